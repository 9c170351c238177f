package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func Test_ParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
level: debug
file:
  filepath: /tmp/gochan.log
  max_size: 10
  compress: true
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Level)
	assert.True(t, cfg.Console)
	assert.Equal(t, "/tmp/gochan.log", cfg.File.Filepath)
	assert.Equal(t, 10, cfg.File.MaxSize)
	assert.True(t, cfg.File.Compress)
}

func Test_ParseConfigInvalid(t *testing.T) {
	_, err := ParseConfig([]byte("level: [debug"))
	assert.Error(t, err)
}

func Test_LoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func Test_NewLoggerBadLevel(t *testing.T) {
	_, err := NewLogger(Config{Level: "loud"})
	assert.Error(t, err)
}

func Test_NewLoggerFile(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"a.log", "b.log"} {
		path := filepath.Join(dir, name)

		l, err := NewLogger(Config{Level: "info", File: FileConfig{Filepath: path}})
		require.NoError(t, err)

		l.Infof("hello from %s", name)
		require.NoError(t, l.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(data), "hello from "+name))
	}
}

func Test_ReplaceGlobals(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	restore := ReplaceGlobals(zap.New(core).Sugar())
	Debugf("value %d", 42)
	restore()
	Debugf("dropped")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "value 42", logs.All()[0].Message)
}
