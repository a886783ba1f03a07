package logger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "client.log")
	l := NewIsolatedLogger(path)

	l.Info("job", "submitted", map[string]interface{}{"job_id": "abc"})
	l.Warn("poller", "transient poll failure", nil)
	l.Error("payment", "verification failed", map[string]interface{}{"error": errors.New("bad signature")})
	require.NoError(t, l.Sync())

	all, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "verification failed", all[0].Message)
	assert.Equal(t, "payment", all[0].Module)
	assert.Equal(t, "bad signature", all[0].Details["error"])
	assert.Equal(t, "submitted", all[2].Message)

	warnings, err := l.GetLogs("WARN", 10, 0)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "poller", warnings[0].Module)

	page, err := l.GetLogs("", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "transient poll failure", page[0].Message)

	empty, err := l.GetLogs("", 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetLogsMissingFile(t *testing.T) {
	l := &ZapLogger{filePath: filepath.Join(t.TempDir(), "nope.log")}

	entries, err := l.GetLogs("", 10, 0)

	require.NoError(t, err)
	assert.Empty(t, entries)
}
