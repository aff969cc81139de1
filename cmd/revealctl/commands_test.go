package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/mission-reveal/internal/fieldcrypt"
	"github.com/iliyamo/mission-reveal/internal/utils"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestEncryptDecrypt(t *testing.T) {
	blob, err := run(t, "", "encrypt", "--key", "cli-key", "Misión Perú Lima Sur")
	require.NoError(t, err)
	assert.Contains(t, blob, ":")

	plain, err := run(t, blob+"\n", "decrypt", "--key", "cli-key", "-")
	require.NoError(t, err)
	assert.Equal(t, "Misión Perú Lima Sur", plain)

	// Blobs are interchangeable with the server codec.
	codec, err := fieldcrypt.New("cli-key")
	require.NoError(t, err)
	got, err := codec.Decrypt(blob)
	require.NoError(t, err)
	assert.Equal(t, "Misión Perú Lima Sur", got)
}

func TestEncryptFromEnv(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "env-key")
	blob, err := run(t, "hola", "encrypt")
	require.NoError(t, err)

	_, err = run(t, "", "decrypt", "--key", "other-key", blob)
	assert.ErrorIs(t, err, fieldcrypt.ErrDecryptionFailed)
}

func TestEncryptWithoutKey(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "")
	_, err := run(t, "", "encrypt", "x")
	assert.ErrorContains(t, err, "ENCRYPTION_KEY")
}

func TestHashPassword(t *testing.T) {
	hash, err := run(t, "", "hash-password", "--cost", "4", "familia")
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(hash, "familia"))
}
