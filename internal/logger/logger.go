package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the application logger. It always writes to stdout and, when
// logDir is set, to a rotated app.log inside it. Output of the standard log
// package is sent to the same place.
func New(logDir, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}

	var out io.Writer = os.Stdout
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, errors.Wrap(err, "create log dir")
		}
		logFile := &lumberjack.Logger{
			Filename:   filepath.Join(logDir, "app.log"),
			MaxSize:    100, // megabytes
			MaxBackups: 30,
			MaxAge:     30, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, logFile)
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	log.SetOutput(l.Writer())
	log.SetFlags(0)

	if logDir != "" {
		l.WithField("dir", logDir).Info("logger initialized")
	}
	return l, nil
}
