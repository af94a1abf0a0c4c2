package anomalylog

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValkeyLogDecodeSkipsAndLogsBadEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	store := NewValkeyLog(nil, "test", 10, logger)

	entries := store.decode([]string{
		`{"branchId":"Zurich","index":2,"reason":"missing date"}`,
		`not-json`,
		`{"branchId":"Geneva","index":0,"reason":"missing predicted value"}`,
	})

	require.Len(t, entries, 2)
	require.Equal(t, "missing date", entries[0].Reason)
	require.Equal(t, "missing predicted value", entries[1].Reason)
	require.Contains(t, buf.String(), "skipping undecodable anomaly entry")
	require.Contains(t, buf.String(), "key=test:anomalies")
	require.Contains(t, buf.String(), "position=1")
	require.Contains(t, buf.String(), "component=anomalylog.valkey")
}
