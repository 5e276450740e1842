package logging

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func timeEncoder(config Config) zapcore.TimeEncoder {
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(config.Prefix + t.Format(config.TimeFormat))
	}
}

// GetEncoder returns a zapcore.Encoder based on the config format.
func GetEncoder(config Config) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    config.ZapEncodeLevel(),
		EncodeTime:     timeEncoder(config),
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	if config.Format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// exactLevel enables only one level so each file holds a single level.
func exactLevel(level zapcore.Level) zap.LevelEnablerFunc {
	return func(l zapcore.Level) bool {
		return l == level
	}
}

// getZapCores builds one core per level >= config.Level. Each writes its own
// lumberjack file when Director is set; the terminal gets every level once.
func getZapCores(config Config) []zapcore.Core {
	encoder := GetEncoder(config)
	minLevel := config.TransportLevel()

	cores := make([]zapcore.Core, 0, 8)
	if config.LogInTerminal {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), minLevel))
	}
	if config.Director != "" {
		for level := minLevel; level <= zapcore.FatalLevel; level++ {
			writer := zapcore.AddSync(newLevelWriter(config, level.String()))
			cores = append(cores, zapcore.NewCore(encoder, writer, exactLevel(level)))
		}
	}
	return cores
}
