package logger

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"botcheck/pkg/config"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "chatty"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "botcheck.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "", "warn", "warning", "error", "disabled"} {
		_, err := parseLogLevel(level)
		assert.NoError(t, err, level)
	}
	_, err := parseLogLevel("verbose")
	assert.Error(t, err)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "warn")
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("hidden too")
	l.Warn("shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
	assert.Equal(t, "botcheck", lines[0]["app"])
}

func TestFieldsAreCopiedNotShared(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "debug")
	require.NoError(t, err)

	parent := l.WithField("account", "alice")
	child := parent.WithFields(map[string]interface{}{"page": 2, "wait": time.Second})
	parent.Info("parent")
	child.WithError(errors.New("boom")).Error("child")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "alice", lines[0]["account"])
	assert.NotContains(t, lines[0], "page")
	assert.Equal(t, float64(2), lines[1]["page"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestTestLoggerCapturesFieldsAndErrors(t *testing.T) {
	tl := NewTestLogger()
	tl.WithField("screen_name", "bob").WithError(errors.New("nope")).Warn("skipped")
	tl.InfoWithFields("done", map[string]interface{}{"processed": 3})

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "bob", msgs[0].Fields["screen_name"])
	assert.EqualError(t, msgs[0].Error, "nope")
	assert.True(t, tl.HasMessage("done"))
	assert.False(t, tl.HasError())
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)
	assert.Contains(t, tl.String(), "[INFO] done")

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestGormLoggerTrace(t *testing.T) {
	tl := NewTestLogger()
	gl := NewGormLogger(tl)

	sql := func() (string, int64) { return "INSERT INTO followers", 1 }

	gl.Trace(context.Background(), time.Now(), sql, nil)
	assert.Empty(t, tl.GetMessages(), "fast statements are quiet at warn level")

	gl.Trace(context.Background(), time.Now(), sql, errors.New("disk full"))
	require.Len(t, tl.GetMessagesByLevel("ERROR"), 1)
	assert.Equal(t, "SQLite INSERT failed", tl.GetMessagesByLevel("ERROR")[0].Message)

	gl.Trace(context.Background(), time.Now(), sql, gormlogger.ErrRecordNotFound)
	assert.Len(t, tl.GetMessagesByLevel("ERROR"), 1, "record not found is not an error")

	gl.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)

	silent := gl.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), sql, errors.New("ignored"))
	assert.Len(t, tl.GetMessagesByLevel("ERROR"), 1)
}

func TestRestyLogger(t *testing.T) {
	tl := NewTestLogger()
	rl := NewRestyLogger(tl)

	rl.Warnf("retry %d", 2)
	rl.Errorf("gave up: %s", "timeout")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "retry 2", msgs[0].Message)
	assert.Equal(t, "http", msgs[1].Fields["component"])
}
