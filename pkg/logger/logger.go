package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[string]Level{
	"DEBUG":   DEBUG,
	"INFO":    INFO,
	"WARN":    WARN,
	"WARNING": WARN,
	"ERROR":   ERROR,
}

// ParseLevel maps a level name to a Level. Matching is case-insensitive;
// unknown names fall back to INFO.
func ParseLevel(level string) Level {
	if l, ok := levelNames[strings.ToUpper(strings.TrimSpace(level))]; ok {
		return l
	}
	return INFO
}

// ValidLevel reports whether ParseLevel recognises level.
func ValidLevel(level string) bool {
	_, ok := levelNames[strings.ToUpper(strings.TrimSpace(level))]
	return ok
}

type Logger struct {
	level       Level
	debugLogger *log.Logger
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// New creates a logger writing INFO and DEBUG to stdout and WARN and ERROR
// to stderr.
func New(level string) *Logger {
	return NewWithWriters(level, os.Stdout, os.Stderr)
}

// NewWithWriters creates a logger with explicit output streams.
func NewWithWriters(level string, out, errOut io.Writer) *Logger {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	return &Logger{
		level:       ParseLevel(level),
		debugLogger: log.New(out, "[DEBUG] ", flags),
		infoLogger:  log.New(out, "[INFO] ", flags),
		warnLogger:  log.New(errOut, "[WARN] ", flags),
		errorLogger: log.New(errOut, "[ERROR] ", flags),
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	l := NewWithWriters("ERROR", io.Discard, io.Discard)
	l.level = ERROR + 1
	return l
}

func (l *Logger) log(level Level, logger *log.Logger, format string, v ...interface{}) {
	if level >= l.level {
		logger.Output(3, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.log(DEBUG, l.debugLogger, format, v...)
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.log(INFO, l.infoLogger, format, v...)
}

func (l *Logger) Warn(format string, v ...interface{}) {
	l.log(WARN, l.warnLogger, format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.log(ERROR, l.errorLogger, format, v...)
}
