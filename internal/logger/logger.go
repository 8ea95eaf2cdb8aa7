package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Глобальный логгер ядра. Инициализируется один раз в main,
// дальше пакеты используют Log/SLog напрямую.
var (
	Log  *zap.Logger
	SLog *zap.SugaredLogger
)

// Init настраивает zap-логгер. level — debug/info/warn/error,
// при пустом или неизвестном значении используется info.
func Init(level string) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		if parsed, err := zapcore.ParseLevel(level); err == nil {
			lvl = parsed
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = l
	SLog = l.Sugar()
	return nil
}

// Sync сбрасывает буферы логгера. Вызывается через defer в main.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

func init() {
	// До явного Init — no-op логгер, чтобы пакеты не паниковали в тестах.
	Log = zap.NewNop()
	SLog = Log.Sugar()
}
