// Package eventlog writes the operator-facing record of a cleanup run: each
// event is echoed to the console and appended to the log file as
//
//	YYYY-MM-DD HH:MM:SS - <message>
package eventlog

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timeLayout = "2006-01-02 15:04:05"

// lineFormatter renders entries in the event log line format.
type lineFormatter struct{}

func (lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	return []byte(e.Time.Format(timeLayout) + " - " + e.Message + "\n"), nil
}

type Options struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

type Logger struct {
	mu      sync.Mutex
	console io.Writer
	file    *logrus.Logger
	closer  io.Closer
}

// Open appends to the log file at o.Path, creating it and its directory as
// needed. The file is rotated once it grows past o.MaxSizeMB.
func Open(o Options, console io.Writer) *Logger {
	sink := &lumberjack.Logger{
		Filename:   o.Path,
		MaxSize:    o.MaxSizeMB,
		MaxBackups: o.MaxBackups,
	}
	l := New(sink, console)
	l.closer = sink
	return l
}

// New writes log lines to w and echoes to console.
func New(w io.Writer, console io.Writer) *Logger {
	file := logrus.New()
	file.SetOutput(w)
	file.SetFormatter(lineFormatter{})
	file.SetLevel(logrus.InfoLevel)
	return &Logger{console: console, file: file}
}

// Eventf prints the message and appends it to the log file.
func (l *Logger) Eventf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console, msg)
	l.file.Info(msg)
}

// Printf prints the message without logging it.
func (l *Logger) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console, msg)
}

func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
