package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, true, slog.LevelInfo)

	ctx := AppendCtx(context.Background(), slog.String("run", "abc"))
	ctx = AppendCtx(ctx, slog.Int("n", 2))
	log.InfoContext(ctx, "Hello", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Hello", rec["msg"])
	assert.Equal(t, "v", rec["k"])
	assert.Equal(t, "abc", rec["run"])
	assert.Equal(t, float64(2), rec["n"])
}

func TestAppendCtxDoesNotLeakToParent(t *testing.T) {
	parent := AppendCtx(context.Background(), slog.String("a", "1"))
	_ = AppendCtx(parent, slog.String("b", "2"))

	attrs, ok := parent.Value(ctxKey{}).([]slog.Attr)
	require.True(t, ok)
	assert.Len(t, attrs, 1)
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, false, slog.LevelWarn)
	log.Info("Quiet")
	assert.Zero(t, buf.Len())
	log.Warn("Loud")
	assert.Contains(t, buf.String(), "msg=Loud")
}

func TestLoggerWithGroup(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, false, slog.LevelInfo).WithGroup("dib").With("x", 1)
	log.InfoContext(AppendCtx(context.Background(), slog.String("run", "r")), "Grouped")
	assert.Contains(t, buf.String(), "dib.x=1")
	assert.Contains(t, buf.String(), "dib.run=r")
}

func TestRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dibctl.log")
	w := RotatingFile(path, 1, 2)
	log := Logger(w, false, slog.LevelInfo)
	log.Info("Written")
	require.NoError(t, w.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "msg=Written")
}
