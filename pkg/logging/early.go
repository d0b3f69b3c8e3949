package logging

import (
	"fmt"
	"io"
	"os"
)

// EarlyLog reports startup failures that happen before the zap logger is
// configured, such as an unreadable config file.
type EarlyLog struct {
	service string
	out     io.Writer
}

func NewEarlyLog(service string) *EarlyLog {
	return &EarlyLog{service: service, out: os.Stderr}
}

func (l *EarlyLog) Error(msg string, args ...interface{}) {
	fmt.Fprintf(l.out, "%s ERROR: %s\n", l.service, fmt.Sprintf(msg, args...))
}
