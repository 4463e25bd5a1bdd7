package conf

import (
	"sync"

	"github.com/oceanecho/oceanecho/internal/logger"
)

var (
	serviceLogger logger.Logger
	loggerOnce    sync.Once
)

// GetLogger returns the configuration module logger.
func GetLogger() logger.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logger.Global().Module("config")
	})
	return serviceLogger
}
