package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gitpr-dev/gitpr/internal/logger"
)

func TestNewLogger(t *testing.T) {
	levels := []string{"debug", "info", "warn", "error", "bogus", ""}
	for _, level := range levels {
		t.Run("level "+level, func(t *testing.T) {
			log := logger.NewLogger(level)
			assert.NotNil(t, log)
		})
	}
}

func TestLoggerSatisfiesInterface(t *testing.T) {
	var log logger.Logger = logger.NewLogger("info")
	assert.NotNil(t, log)

	var silent logger.Logger = logger.NoLogger()
	assert.NotNil(t, silent)
}
