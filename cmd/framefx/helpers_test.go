package main

import (
	"bytes"
	"path/filepath"
	"testing"
)

var bundledPlugins = filepath.Join("..", "..", "plugins", "effects")

// executeCommand runs the root command against the bundled plugins and
// returns stdout; logs go to a separate buffer.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	return executeRaw(t, append([]string{"--plugins", bundledPlugins}, args...)...)
}

func executeRaw(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := root.Execute()
	return stdout.String(), err
}
