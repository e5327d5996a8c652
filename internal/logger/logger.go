package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"

	serviceName = "linkframe"
)

// Цвета для разных уровней логирования
var levelColors = map[string]string{
	"TRACE": "\x1b[36m",   // голубой
	"DEBUG": "\x1b[32m",   // зелёный
	"INFO":  "\x1b[34m",   // синий
	"WARN":  "\x1b[33m",   // жёлтый
	"ERROR": "\x1b[31m",   // красный
	"FATAL": "\x1b[31;1m", // ярко-красный
	"PANIC": "\x1b[35m",   // пурпурный
}

// NewLogger пишет в stdout цветной консольный вывод или JSON построчно
// (format=json, для сборщиков логов). Неизвестный уровень заменяется на info.
func NewLogger(level, format string) *zerolog.Logger {
	l := initLogger(os.Stdout, format).Level(parseLevel(level))
	return &l
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func initLogger(out io.Writer, format string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldInteger = true

	if format != FormatJSON {
		out = consoleWriter(out)
	}

	return zerolog.New(out).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05 MST",
		FormatLevel: func(i any) string {
			level, _ := i.(string)
			level = strings.ToUpper(level)
			color, ok := levelColors[level]
			if !ok {
				color = "\x1b[0m"
			}
			return fmt.Sprintf("%s| %-6s|\x1b[0m", color, level)
		},
		FormatMessage: func(i any) string {
			return fmt.Sprintf("\x1b[1m%s\x1b[0m", i)
		},
		FormatFieldName: func(i any) string {
			return fmt.Sprintf("\x1b[36m%s:\x1b[0m", i)
		},
		FormatFieldValue: func(i any) string {
			return fmt.Sprintf("\x1b[32m%s\x1b[0m", i)
		},
	}
}
