package util

import (
	"log"
	"os"
)

// NewLogger returns the process-wide logger used by every component.
func NewLogger() *log.Logger {
	return log.New(os.Stdout, "[hostel-datahub] ", log.LstdFlags|log.Lmsgprefix)
}
