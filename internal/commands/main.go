// Package commands holds the units of work fired by HTTP handlers and the
// background update loop: scraping sources, refreshing EPG data and running
// the channel to EPG auto-mapper.
package commands

import (
	"os"

	"github.com/sirupsen/logrus"
)

var (
	log = &logrus.Logger{
		Out: os.Stderr,
		Formatter: &logrus.TextFormatter{
			FullTimestamp: true,
		},
		Hooks: make(logrus.LevelHooks),
		Level: logrus.DebugLevel,
	}
)
