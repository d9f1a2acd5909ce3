package tool

import (
	"strings"

	"github.com/charmbracelet/log"
)

var DefaultLogger = log.Default()

func InitLogger() {
	DefaultLogger.SetTimeFormat("2006-01-02 15:04:05")
	DefaultLogger.SetReportCaller(true)
}

// SetLogMode maps the --log flag onto a logger level.
func SetLogMode(mode string) {
	switch strings.ToLower(mode) {
	case "", "prod":
		DefaultLogger.SetLevel(log.InfoLevel)
	case "dev":
		DefaultLogger.SetLevel(log.DebugLevel)
	case "none":
		DefaultLogger.SetLevel(log.FatalLevel)
	default:
		DefaultLogger.Warnf("Unknown log mode %q, using info level", mode)
		DefaultLogger.SetLevel(log.InfoLevel)
	}
}
