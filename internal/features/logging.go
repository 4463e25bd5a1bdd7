package features

import (
	"sync"

	"github.com/oceanecho/oceanecho/internal/logger"
)

var (
	serviceLogger logger.Logger
	loggerOnce    sync.Once
)

// GetLogger returns the features module logger.
func GetLogger() logger.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logger.Global().Module("features")
	})
	return serviceLogger
}
