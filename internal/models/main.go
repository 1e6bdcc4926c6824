package models

import (
	"context"
	"os"

	"github.com/jmoiron/sqlx"
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

// APICollection is a struct containing all models.
type APICollection struct {
	Channel     ChannelAPI
	EPGSource   EPGSourceAPI
	EPGChannel  EPGChannelAPI
	MappingRule MappingRuleAPI
	ScrapedURL  ScrapedURLAPI
}

// NewAPICollection returns an initialized APICollection struct.
func NewAPICollection(ctx context.Context, db *sqlx.DB) *APICollection {
	api := &APICollection{}

	api.Channel = newChannelDB(db, api)
	api.EPGSource = newEPGSourceDB(db, api)
	api.EPGChannel = newEPGChannelDB(db, api)
	api.MappingRule = newMappingRuleDB(db, api)
	api.ScrapedURL = newScrapedURLDB(db, api)
	return api
}
