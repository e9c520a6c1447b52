package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Output formats. "text" is accepted as an alias for console.
const (
	FormatConsole = "console"
	FormatPretty  = "pretty"
	FormatJSON    = "json"
)

// Logger is a zerolog logger that remembers the service it was built for.
// Derived loggers are immutable copies.
type Logger struct {
	logger  zerolog.Logger
	service string
}

var global *Logger

// Init builds the process-wide logger from cfg.
func Init(cfg *Config) {
	cfg.ApplyDefaults()
	global = New(cfg, cfg.ServiceName)
}

// New builds a logger. An unknown level falls back to info.
func New(cfg *Config, serviceName string) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := stream(cfg.Output)
	var zctx zerolog.Context
	if isConsoleFormat(cfg.Format) {
		zctx = zerolog.New(consoleWriter(out, serviceName, cfg.NoColor)).With().Timestamp()
	} else {
		zctx = zerolog.New(out).With()
		if serviceName != "" {
			zctx = zctx.Str(FieldService, serviceName)
		}
		if cfg.Timestamp {
			zctx = zctx.Timestamp()
		}
	}
	if cfg.Caller {
		zctx = zctx.Caller()
	}
	return &Logger{logger: zctx.Logger(), service: serviceName}
}

// NewDefault is an info-level console logger on stdout.
func NewDefault(serviceName string) *Logger {
	return New(&Config{Level: "info", Format: FormatConsole, Output: "stdout", Timestamp: true}, serviceName)
}

func NewNop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// NewWithWriter writes JSON lines to w at the given level.
func NewWithWriter(w io.Writer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return &Logger{logger: zerolog.New(w).Level(lvl)}
}

// SetGlobalLogger replaces the process-wide logger.
func SetGlobalLogger(l *Logger) { global = l }

// GetGlobalLogger returns the process-wide logger, creating a console one on
// first use.
func GetGlobalLogger() *Logger {
	if global == nil {
		global = NewDefault("")
	}
	return global
}

type requestIDKey struct{}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (l *Logger) derive(add func(zerolog.Context) zerolog.Context) *Logger {
	return &Logger{logger: add(l.logger.With()).Logger(), service: l.service}
}

// WithContext tags the logger with the request id carried by ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	id := RequestIDFromContext(ctx)
	if id == "" {
		return l
	}
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Str(FieldRequestID, id) })
}

func (l *Logger) WithComponent(name string) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Str(FieldComponent, name) })
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Fields(fields) })
}

func (l *Logger) WithError(err error) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Err(err) })
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	emit(l.logger.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	emit(l.logger.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	emit(l.logger.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	emit(l.logger.Error(), msg, fields)
}

func emit(event *zerolog.Event, msg string, fields []map[string]interface{}) {
	for _, f := range fields {
		event.Fields(f)
	}
	event.Msg(msg)
}

func isConsoleFormat(format string) bool {
	switch strings.ToLower(format) {
	case FormatConsole, FormatPretty, "text":
		return true
	}
	return false
}

func stream(output string) io.Writer {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

var levelTags = map[string]struct{ plain, color string }{
	"DEBUG": {"[DBG]", "\033[36m[DBG]\033[0m"},
	"INFO":  {"[INF]", "\033[32m[INF]\033[0m"},
	"WARN":  {"[WRN]", "\033[33m[WRN]\033[0m"},
	"ERROR": {"[ERR]", "\033[31m[ERR]\033[0m"},
	"FATAL": {"[FTL]", "\033[35m[FTL]\033[0m"},
}

// consoleWriter prefixes every line with a three letter service tag and a
// short level tag, e.g. "[S3F][INF]".
func consoleWriter(out io.Writer, serviceName string, noColor bool) zerolog.ConsoleWriter {
	var svc string
	if len(serviceName) >= 3 {
		svc = "[" + strings.ToUpper(serviceName[:3]) + "]"
		if !noColor {
			svc = "\033[34m" + svc + "\033[0m"
		}
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i interface{}) string {
			name := strings.ToUpper(fmt.Sprint(i))
			tag, ok := levelTags[name]
			switch {
			case !ok:
				return svc + "[" + name + "]"
			case noColor:
				return svc + tag.plain
			default:
				return svc + tag.color
			}
		},
		FormatFieldName: func(i interface{}) string { return fmt.Sprint(i) + ":" },
	}
}
