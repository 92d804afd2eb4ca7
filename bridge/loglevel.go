package bridge

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// SetLogLevel maps a boundary log-level name onto the process logger.
// The names "critical" and "off" raise the threshold past everything
// the bridge emits; nothing here logs at fatal or panic severity, so
// neither level can terminate the process. An unknown name is
// reported and leaves the level unchanged.
func SetLogLevel(level string) {
	switch strings.ToLower(level) {
	case "trace":
		logrus.SetLevel(logrus.TraceLevel)
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	case "critical":
		logrus.SetLevel(logrus.FatalLevel)
	case "off":
		logrus.SetLevel(logrus.PanicLevel)
	default:
		logrus.Warnf("set log level: unknown level %q", level)
	}
}
