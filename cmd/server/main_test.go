package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, out *bytes.Buffer, args ...string) error {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("superadmin"))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run(&globals{ctx: context.Background(), stdout: out})
}

func TestCreateAdminAndRegisterGame(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "superadmin.db"))
	t.Setenv("ADMIN_PASSWORD", "s3cret-pass")
	var out bytes.Buffer

	require.NoError(t, runCLI(t, &out, "create-admin", "root@example.com"))
	assert.Contains(t, out.String(), "created admin root@example.com")

	err := runCLI(t, &out, "create-admin", "root@example.com")
	assert.Error(t, err)

	require.NoError(t, runCLI(t, &out, "register-game", "quiz", "Quiz Night", "http://games.local",
		"-e", "createSession=start", "--endpoint", "updateSession=sessions/update"))
	assert.True(t, strings.Contains(out.String(), "registered game quiz"))

	err = runCLI(t, &out, "register-game", "trivia", "Trivia", "http://games.local", "-e", "launch=go")
	assert.ErrorContains(t, err, "registering game")
}
