package logger

import (
	"go.uber.org/zap"
)

var log = zap.NewNop()

func Init() {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}

	log = l
	log.Info("logger initialized")
}

func fieldsOf(m map[string]any) []zap.Field {
	if len(m) == 0 {
		return nil
	}
	fields := make([]zap.Field, 0, len(m))
	for k, v := range m {
		fields = append(fields, zap.Any(k, v))
	}
	return fields
}

func Info(msg string, fields map[string]any) {
	log.Info(msg, fieldsOf(fields)...)
}

func Warn(msg string, fields map[string]any) {
	log.Warn(msg, fieldsOf(fields)...)
}

func Error(msg string, fields map[string]any) {
	log.Error(msg, fieldsOf(fields)...)
}

func Fatal(msg string, fields map[string]any) {
	log.Fatal(msg, fieldsOf(fields)...)
}
