package trace

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growly/internal/log"
)

func newLogger(buf *bytes.Buffer) *log.Logger {
	return log.New(log.Config{
		Component: log.ComponentCLI,
		Handler:   NewHandler(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
}

func TestGenerateRunID(t *testing.T) {
	a, b := GenerateRunID(), GenerateRunID()
	assert.True(t, strings.HasPrefix(a, "run_"))
	assert.Len(t, a, len("run_")+16)
	assert.NotEqual(t, a, b)
}

func TestRunIDContext(t *testing.T) {
	assert.Empty(t, RunID(context.Background()))
	ctx := WithRunID(context.Background(), "run_x")
	assert.Equal(t, "run_x", RunID(ctx))
}

func TestHandlerAddsRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf).With("static", "yes")

	logger.InfoContext(WithRunID(context.Background(), "run_abc"), "hello")
	logger.Info("no context")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "run_id=run_abc")
	assert.Contains(t, lines[0], "static=yes")
	assert.NotContains(t, lines[1], "run_id")
}

func TestRun(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf)

	var seen string
	err := Run(context.Background(), logger, "add", func(ctx context.Context) error {
		seen = RunID(ctx)
		return nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, seen)
	assert.Contains(t, buf.String(), "run_id="+seen)
	assert.Contains(t, buf.String(), "operation=add")
	assert.Contains(t, buf.String(), "success=true")

	buf.Reset()
	boom := errors.New("boom")
	err = Run(context.Background(), logger, "import", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "error=boom")
}
