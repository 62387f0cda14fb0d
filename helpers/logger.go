package helpers

import (
	"fmt"
	"os"
	"sync"
	"time"

	"sjsage522/profilewatch/logger"
)

// FailureLogger records identifiers that could not be processed
type FailureLogger interface {
	LogFailure(identifier string, err error)
}

// FailureLog appends failed identifiers to a plain-text file
type FailureLog struct {
	mu        sync.Mutex
	errorFile string
	log       *logger.Logger
}

// NewFailureLog creates a new failure log writing to errorFile
func NewFailureLog(errorFile string) *FailureLog {
	return &FailureLog{
		errorFile: errorFile,
		log:       logger.ForComponent("failures"),
	}
}

// LogFailure logs a failure to a file with identifier and timestamp
func (l *FailureLog) LogFailure(identifier string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		l.log.Warn().Err(fileErr).Str("file", l.errorFile).Msg("Failed to open failure log")
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	if _, writeErr := f.WriteString(fmt.Sprintf("[%s] [%s] %s\n", timestamp, identifier, err.Error())); writeErr != nil {
		l.log.Warn().Err(writeErr).Str("file", l.errorFile).Msg("Failed to write failure log")
	}
}
