package logging

import (
	"os"

	"go.uber.org/zap"
)

// New creates a zap logger for the current APP_ENV and installs it as the
// zap global so the rest of the codebase can use zap.S() directly.
func New() *zap.SugaredLogger {
	logger, err := setLogger(os.Getenv("APP_ENV"))
	if err != nil {
		logger = zap.NewExample()
	}
	zap.ReplaceGlobals(logger)
	return logger.Sugar()
}

func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	default:
		return zap.NewExample(), nil
	}
}
