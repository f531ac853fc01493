package utils

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiLogHandler_FansOutByLevel(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	debugH := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	warnH := slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})

	logger := slog.New(NewMultiLogHandler(debugH, warnH)).With("component", "gateway")
	logger.Debug("sending request")
	logger.Warn("credential store read failed")

	assert.Contains(t, debugBuf.String(), "sending request")
	assert.Contains(t, debugBuf.String(), "credential store read failed")
	assert.Contains(t, debugBuf.String(), "component=gateway")
	assert.NotContains(t, warnBuf.String(), "sending request")
	assert.Contains(t, warnBuf.String(), "credential store read failed")
}
