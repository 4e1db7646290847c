package guest

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridgelog "github.com/reglet-dev/ankibridge/log"
)

func TestLogHandler_RoundTripsThroughReplay(t *testing.T) {
	var sent [][]byte
	logger := slog.New(NewLogHandler(func(b []byte) { sent = append(sent, b) }, slog.LevelInfo))

	logger.Debug("dropped")
	logger.With("guest", "importer").WithGroup("deck").Info("imported", "count", 3)
	require.Len(t, sent, 1)

	var wire bridgelog.LogMessageWire
	require.NoError(t, json.Unmarshal(sent[0], &wire))
	assert.Equal(t, "imported", wire.Message)
	assert.Equal(t, "INFO", wire.Level)

	var out bytes.Buffer
	host := slog.New(slog.NewTextHandler(&out, nil))
	bridgelog.Replay(context.Background(), host, sent[0])

	assert.Contains(t, out.String(), "msg=imported")
	assert.Contains(t, out.String(), "source=guest")
	assert.Contains(t, out.String(), "guest=importer")
	assert.Contains(t, out.String(), "deck.count=3")
}
