package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// GetLogger returns zap.Logger instance, but using singleton pattern creates only one reusable instace.
// LOG_MODE=production switches to the production preset, development config by default
func GetLogger() *zap.Logger {
	once.Do(func() {
		var err error
		logger, err = build(os.Getenv("LOG_MODE"))
		if err != nil {
			panic("failed logger setup : " + err.Error())
		}

	})
	return logger
}

func build(mode string) (*zap.Logger, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		return zap.NewProduction()
	default:
		return zap.NewDevelopment()
	}
}
