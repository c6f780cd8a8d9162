package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func newDual(t *testing.T) (*slog.Logger, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Cleanup(EnableErrorMirroring)
	EnableErrorMirroring()

	var primary, console bytes.Buffer
	logger := slog.New(NewDualHandler(
		slog.NewJSONHandler(&primary, &slog.HandlerOptions{Level: slog.LevelInfo}),
		NewFriendlyErrorHandler(&console),
	))
	return logger, &primary, &console
}

func TestDualHandlerAddsHTTPLogContext(t *testing.T) {
	logger, primary, console := newDual(t)

	ctx := WithHTTPLogContext(context.Background(), HTTPLogContext{
		TransportMode: "relay",
		Operation:     "delete",
		RequestID:     "0b7c2a8e-1f0d-4a55-9a5e-3c1d1c0e9f11",
	})
	logger.ErrorContext(ctx, "Failed to delete client", "status", 404)

	var record map[string]any
	require.NoError(t, json.Unmarshal(primary.Bytes(), &record))
	require.Equal(t, "0b7c2a8e-1f0d-4a55-9a5e-3c1d1c0e9f11", record["request_id"])
	require.Equal(t, "relay", record["transport_mode"])
	require.Equal(t, "delete", record["operation"])

	require.Equal(t, "Error: Failed to delete client\n  status: 404\n", console.String())
}

func TestDualHandlerWithoutContextAddsNothing(t *testing.T) {
	logger, primary, _ := newDual(t)

	logger.Info("relay listening", "addr", ":3000")

	var record map[string]any
	require.NoError(t, json.Unmarshal(primary.Bytes(), &record))
	require.NotContains(t, record, "request_id")
	require.Equal(t, ":3000", record["addr"])
}

func TestDualHandlerMirrorsOnlyErrors(t *testing.T) {
	logger, primary, console := newDual(t)

	logger.Error("Failed to list clients", "error", errors.New("status 500"))
	logger.Info("still going")

	require.Contains(t, primary.String(), "Failed to list clients")
	require.Contains(t, primary.String(), "still going")
	require.Equal(t, "Error: Failed to list clients\n  error: status 500\n", console.String())
}

func TestDualHandlerMirroringCanBeDisabled(t *testing.T) {
	logger, primary, console := newDual(t)
	DisableErrorMirroring()

	logger.Error("boom")

	require.Contains(t, primary.String(), "boom")
	require.Empty(t, console.String())
}

func TestDualHandlerWithAttrsReachesBoth(t *testing.T) {
	logger, primary, console := newDual(t)

	logger.With("id", "rec1").Error("Failed to update client")

	require.Contains(t, primary.String(), `"id":"rec1"`)
	require.Contains(t, console.String(), "  id: rec1\n")
}

func TestFriendlyHandlerFormatting(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(NewFriendlyErrorHandler(&out))

	logger.Error("",
		"suggestion", "start it with clientctl serve",
		"error", "relay unreachable",
		"details", "dial tcp\n\n127.0.0.1:3000 refused",
		slog.Group("http", "status", 0),
	)
	logger.WithGroup("relay").Error("Relay stopped", "port", 3000)
	logger.Warn("not shown")

	require.Equal(t, "Error: relay unreachable\n"+
		"  details: dial tcp\n"+
		"    127.0.0.1:3000 refused\n"+
		"  suggestion: start it with clientctl serve\n"+
		"  http.status: 0\n"+
		"Error: Relay stopped\n"+
		"  relay.port: 3000\n", out.String())
}
