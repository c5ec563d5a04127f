package logger

import (
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a JSON zap logger writing to writer at the given level
// ("debug", "info", "warn", "error"). Unknown levels fall back to info.
func New(writer io.Writer, level string) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.LevelKey = "level"
	encoderCfg.MessageKey = "message"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(writer),
		parseLevel(level),
	)
	return zap.New(core, zap.AddCaller())
}

// Init builds the logger and installs it as the zap global.
func Init(writer io.Writer, level string) *zap.Logger {
	l := New(writer, level)
	zap.ReplaceGlobals(l)
	return l
}

func parseLevel(level string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
