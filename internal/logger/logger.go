package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// New builds the application logger.
func New() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: time.DateTime,
		FullTimestamp:   true,
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}
