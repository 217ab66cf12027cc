package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type logEntry map[string]any

func decode(t *testing.T, buf *bytes.Buffer) logEntry {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry logEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	return entry
}

func TestLoggerInfoWithFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", Writer: buf})
	require.NoError(t, err)

	log = log.WithFields(map[string]any{"effect": "blur_1.0.0", "component": "registry"})
	log.Info("effect registered")

	entry := decode(t, buf)
	require.Equal(t, "effect registered", entry["message"])
	require.Equal(t, "blur_1.0.0", entry["effect"])
	require.Equal(t, "registry", entry["component"])
	require.Equal(t, "info", entry["level"])
}

func TestLoggerKeyValuePairs(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "debug", Writer: buf})
	require.NoError(t, err)

	log.With("session", "abc").Debug("scan finished", "loaded", 2, "failed", 1, "dangling")

	entry := decode(t, buf)
	require.Equal(t, "abc", entry["session"])
	require.EqualValues(t, 2, entry["loaded"])
	require.EqualValues(t, 1, entry["failed"])
	require.Contains(t, entry, "dangling")
	require.Nil(t, entry["dangling"])
}

func TestLoggerDebugRespectsLevel(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", Writer: buf})
	require.NoError(t, err)

	log.Debug("this should not appear")
	require.Equal(t, "", strings.TrimSpace(buf.String()))
}

func TestLoggerErrorIncludesContext(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "debug", Writer: buf})
	require.NoError(t, err)

	log = log.WithFields(map[string]any{"candidate": "edges"})
	log.Error(errors.New("boom"), "candidate failed", "stage", "instantiating")

	entry := decode(t, buf)
	require.Equal(t, "candidate failed", entry["message"])
	require.Equal(t, "edges", entry["candidate"])
	require.Equal(t, "instantiating", entry["stage"])
	require.Equal(t, "boom", entry["error"])
}

func TestLoggerRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Level: "loud"})
	require.Error(t, err)
}

func TestNilLoggerIsSafe(t *testing.T) {
	t.Parallel()

	var log *Logger
	require.NotPanics(t, func() {
		log.Info("ignored")
		log.Warn("ignored", "k", "v")
		log.Error(errors.New("x"), "ignored")
		require.Nil(t, log.With("k", "v"))
		require.Nil(t, log.WithFields(map[string]any{"k": "v"}))
	})
	Nop().Info("discarded")
}
