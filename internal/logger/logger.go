package logger

import (
	"io"
	"os"
	"strings"

	"privacy-checkout/internal/config"

	"github.com/labstack/gommon/log"
)

const textHeader = "${time_rfc3339} ${level} ${prefix} ${short_file}:${line}"

// New builds the process logger. The same instance backs echo's e.Logger so
// request logs and service logs share level and format.
func New(cfg config.Log, prefix string) *log.Logger {
	return NewWithOutput(cfg, prefix, os.Stdout)
}

func NewWithOutput(cfg config.Log, prefix string, w io.Writer) *log.Logger {
	l := log.New(prefix)
	l.SetOutput(w)
	l.SetLevel(ParseLevel(cfg.Level))
	if strings.EqualFold(cfg.Format, "text") {
		l.SetHeader(textHeader)
	}
	return l
}

// Discard is for tests.
func Discard() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

func ParseLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
