package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New initializes the application logger. Level falls back to info when
// the configured value does not parse.
func New(level string, jsonFormat bool) *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stdout

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	if jsonFormat {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			PadLevelText:  true,
		})
	}

	return l
}
