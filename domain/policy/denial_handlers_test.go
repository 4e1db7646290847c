package policy

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterDenialHandler(t *testing.T) {
	var buf bytes.Buffer
	h := &WriterDenialHandler{W: &buf}

	h.OnDenial("addNote", "perm.RW")

	assert.Equal(t, "Permission Denied [addNote]: perm.RW not granted\n", buf.String())
}

func TestRecordingDenialHandler(t *testing.T) {
	h := &RecordingDenialHandler{}
	h.OnDenial("addNote", "p")
	h.OnDenial("getNote", "p")

	assert.Equal(t, []string{"addNote", "getNote"}, h.Methods())
}

func TestNopAndSlogDenialHandlers(t *testing.T) {
	assert.NotPanics(t, func() {
		(&NopDenialHandler{}).OnDenial("x", "p")
		(&SlogDenialHandler{}).OnDenial("x", "p")
	})
}
