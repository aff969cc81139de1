package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/mission-reveal/internal/config"
	"github.com/iliyamo/mission-reveal/internal/database"
	"github.com/iliyamo/mission-reveal/internal/fieldcrypt"
	"github.com/iliyamo/mission-reveal/internal/utils"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations to the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.DBParams())
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.DBDriver)
			return nil
		},
	}
}

// codecFromEnv builds the codec from --key or ENCRYPTION_KEY.
func codecFromEnv(key string) (*fieldcrypt.Codec, error) {
	if key == "" {
		key = os.Getenv("ENCRYPTION_KEY")
	}
	if key == "" {
		return nil, errors.New("no key: pass --key or set ENCRYPTION_KEY")
	}
	return fieldcrypt.New(key)
}

// inputArg returns args[0], or stdin when the argument is "-" or missing.
func inputArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

func newEncryptCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:     "encrypt [value|-]",
		Short:   "Encrypt a value into the stored blob format",
		Example: `  echo -n "Misión Perú Lima Sur" | revealctl encrypt -`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := codecFromEnv(key)
			if err != nil {
				return err
			}
			in, err := inputArg(cmd, args)
			if err != nil {
				return err
			}
			blob, err := codec.Encrypt(in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), blob)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "key material (defaults to $ENCRYPTION_KEY)")
	return cmd
}

func newDecryptCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "decrypt [blob|-]",
		Short: "Decrypt a stored field blob",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := codecFromEnv(key)
			if err != nil {
				return err
			}
			in, err := inputArg(cmd, args)
			if err != nil {
				return err
			}
			plain, err := codec.Decrypt(strings.TrimSpace(in))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), plain)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "key material (defaults to $ENCRYPTION_KEY)")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password [password|-]",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := inputArg(cmd, args)
			if err != nil {
				return err
			}
			hash, err := utils.HashPassword(in, cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", 12, "bcrypt cost")
	return cmd
}
