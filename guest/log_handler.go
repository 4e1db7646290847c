package guest

import (
	"context"
	"encoding/json"
	"log/slog"

	bridgelog "github.com/reglet-dev/ankibridge/log"
)

// LogHandler implements slog.Handler by sending each record, encoded as
// bridgelog.LogMessageWire, to sink.
type LogHandler struct {
	sink  func([]byte)
	attrs []slog.Attr
	group string
	level slog.Level
}

// NewLogHandler creates a handler that emits records at level or above.
func NewLogHandler(sink func([]byte), level slog.Level) *LogHandler {
	return &LogHandler{sink: sink, level: level}
}

// Enabled reports whether the handler handles records at the given level.
func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle encodes record with the handler's accumulated attributes.
func (h *LogHandler) Handle(_ context.Context, record slog.Record) error {
	r := record
	if len(h.attrs) > 0 || h.group != "" {
		r = slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
		r.AddAttrs(h.attrs...)
		record.Attrs(func(a slog.Attr) bool {
			r.AddAttrs(h.qualify(a))
			return true
		})
	}

	data, err := json.Marshal(bridgelog.EncodeRecord(r))
	if err != nil {
		return err
	}
	h.sink(data)
	return nil
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, h.qualify(a))
	}
	return &next
}

// WithGroup returns a handler that prefixes later attribute keys with name.
func (h *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = h.qualifyKey(name)
	return &next
}

func (h *LogHandler) qualify(a slog.Attr) slog.Attr {
	a.Key = h.qualifyKey(a.Key)
	return a
}

func (h *LogHandler) qualifyKey(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}
