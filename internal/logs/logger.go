package logs

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

type Level string

const (
	INFO  Level = "INFO"
	WARN  Level = "WARN"
	ERROR Level = "ERROR"
	DEBUG Level = "DEBUG"
)

// levelPriority defines the priority of each log level
// higher value = more severe
var levelPriority = map[Level]int{
	DEBUG: 1,
	INFO:  2,
	WARN:  3,
	ERROR: 4,
}

// ParseLevel maps a config string to a Level, falling back to INFO.
func ParseLevel(s string) Level {
	lvl := Level(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelPriority[lvl]; ok {
		return lvl
	}
	return INFO
}

type Entry struct {
	TimeStamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Component string    `json:"component,omitempty"`
	Message   string    `json:"message"`
}

// buffer is shared by a root logger and every child created with With.
type buffer struct {
	mu      sync.Mutex
	entries []Entry
	maxSize int
	out     io.Writer
}

type Logger struct {
	buf       *buffer
	level     Level
	component string
}

// level: minimum log level to record (e.g. INFO, WARN, ERROR, DEBUG)
//
// maxSize: maximum number of log entries kept in memory
func NewLogger(maxSize int, level Level) *Logger {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Logger{
		buf: &buffer{
			entries: make([]Entry, 0, maxSize),
			maxSize: maxSize,
		},
		level: level,
	}
}

// SetOutput mirrors every recorded entry to w as one text line.
// Pass nil to stop mirroring.
func (l *Logger) SetOutput(w io.Writer) {
	l.buf.mu.Lock()
	defer l.buf.mu.Unlock()
	l.buf.out = w
}

// With returns a child logger tagged with component. Children share the
// parent's buffer and level.
func (l *Logger) With(component string) *Logger {
	if l == nil {
		return nil
	}
	if l.component != "" {
		component = l.component + "." + component
	}
	return &Logger{buf: l.buf, level: l.level, component: component}
}

// log applies level filtering and ring buffer behavior.
// A nil logger discards everything.
func (l *Logger) log(level Level, msg string) {
	if l == nil {
		return
	}
	if levelPriority[level] < levelPriority[l.level] {
		return
	}

	entry := Entry{
		TimeStamp: time.Now(),
		Level:     level,
		Component: l.component,
		Message:   msg,
	}

	l.buf.mu.Lock()
	defer l.buf.mu.Unlock()

	if len(l.buf.entries) >= l.buf.maxSize {
		// drop oldest
		l.buf.entries = l.buf.entries[1:]
	}
	l.buf.entries = append(l.buf.entries, entry)

	if l.buf.out != nil {
		fmt.Fprintln(l.buf.out, entry.String())
	}
}

func (e Entry) String() string {
	if e.Component == "" {
		return fmt.Sprintf("%s %-5s %s", e.TimeStamp.Format(time.RFC3339), e.Level, e.Message)
	}
	return fmt.Sprintf("%s %-5s [%s] %s", e.TimeStamp.Format(time.RFC3339), e.Level, e.Component, e.Message)
}

func (l *Logger) Debug(msg string) {
	l.log(DEBUG, msg)
}

func (l *Logger) Info(msg string) {
	l.log(INFO, msg)
}

func (l *Logger) Warn(msg string) {
	l.log(WARN, msg)
}

func (l *Logger) Error(msg string) {
	l.log(ERROR, msg)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.log(DEBUG, fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...any) {
	l.log(INFO, fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.log(WARN, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.log(ERROR, fmt.Sprintf(format, args...))
}

// GetLast returns a copy of the newest n entries, oldest first.
func (l *Logger) GetLast(n int) []Entry {
	if l == nil {
		return nil
	}
	l.buf.mu.Lock()
	defer l.buf.mu.Unlock()

	if n > len(l.buf.entries) {
		n = len(l.buf.entries)
	}
	if n <= 0 {
		return []Entry{}
	}

	start := len(l.buf.entries) - n
	out := make([]Entry, n)
	copy(out, l.buf.entries[start:])
	return out
}
