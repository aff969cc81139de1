/*
Package main is the operator CLI for the mission reveal backend.

Usage:

	revealctl [command]

Available Commands:

	migrate        Apply database migrations
	encrypt        Encrypt a value with the field codec
	decrypt        Decrypt a stored field blob
	hash-password  Produce the ADMIN_PASSWORD_HASH value
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "revealctl",
		Short:         "Operator tools for the mission reveal backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newEncryptCmd(),
		newDecryptCmd(),
		newHashPasswordCmd(),
	)
	return root
}
