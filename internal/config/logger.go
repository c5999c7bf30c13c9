package config

import (
	"github.com/sirupsen/logrus"
)

var Logger = logrus.New()

// InitLogger applies the configured level and format. Production logs are JSON.
func InitLogger(level string, production bool) {
	if production {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		Logger.Warnf("unknown LOG_LEVEL %q, using info", level)
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)
}

// Component returns a logger tagged with the component name.
func Component(name string) *logrus.Entry {
	return Logger.WithField("component", name)
}
