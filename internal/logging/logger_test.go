package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("stream", &buf, INFO)

	logger.Debug("скрытое сообщение %d", 1)
	logger.Info("чанк %d загружен", 42)
	logger.Error("ошибка: %s", "диск")

	out := buf.String()
	assert.NotContains(t, out, "скрытое")
	assert.Contains(t, out, "[INFO] [stream] чанк 42 загружен")
	assert.Contains(t, out, "[ERROR] [stream] ошибка: диск")
}

func TestNewLogger_WritesFile(t *testing.T) {
	old := LogDir
	LogDir = t.TempDir()
	defer func() { LogDir = old }()

	logger, err := NewLogger("storage")
	require.NoError(t, err)

	logger.SetLevels(ERROR, TRACE)
	logger.Trace("запись %s", "трассировки")
	require.NoError(t, logger.Close())

	files, err := filepath.Glob(filepath.Join(LogDir, "storage_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "[TRACE] [storage] запись трассировки")
}

func TestLoggerManager_ReusesComponentLoggers(t *testing.T) {
	lm := &LoggerManager{loggers: make(map[string]*Logger)}

	a := lm.MustGetLogger("world")
	b := lm.MustGetLogger("world")
	assert.Same(t, a, b)

	require.NoError(t, lm.SetLogLevel("world", DEBUG, DEBUG))
	assert.Error(t, lm.SetLogLevel("unknown", DEBUG, DEBUG))
	assert.NoError(t, lm.CloseAll())
}
