// Package context provides aceguide specific context functions like SQLite access, along with initialized API clients and other packages such as models.
package context

import (
	ctx "context"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // the SQLite driver
	"github.com/pressly/goose"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/acetv/aceguide/internal/models"
)

// CContext is a context struct that gets passed around the application.
type CContext struct {
	API *models.APICollection
	Ctx ctx.Context
	Log *logrus.Logger

	RawSQL *sqlx.DB
}

// Copy returns a cloned version of the input CContext.
func (cc *CContext) Copy() *CContext {
	return &CContext{
		API:    cc.API,
		Ctx:    cc.Ctx,
		Log:    cc.Log,
		RawSQL: cc.RawSQL,
	}
}

// NewCContext returns an initialized CContext struct
func NewCContext() (*CContext, error) {

	theCtx := ctx.Background()

	log := &logrus.Logger{
		Out: os.Stderr,
		Formatter: &logrus.TextFormatter{
			FullTimestamp: true,
		},
		Hooks: make(logrus.LevelHooks),
		Level: logrus.InfoLevel,
	}

	if level, levelErr := logrus.ParseLevel(viper.GetString("log.level")); levelErr == nil {
		log.Level = level
	}

	gooseLog := &logrus.Logger{
		Out: os.Stderr,
		Formatter: &logrus.TextFormatter{
			FullTimestamp: true,
		},
		Hooks: make(logrus.LevelHooks),
		Level: logrus.DebugLevel,
	}

	sql, dbErr := sqlx.Open("sqlite3", viper.GetString("database.file"))
	if dbErr != nil {
		log.WithError(dbErr).Panicln("Unable to open database")
	}

	if _, execErr := sql.Exec(`PRAGMA foreign_keys = ON;`); execErr != nil {
		log.WithError(execErr).Panicln("error enabling foreign keys")
	}

	log.Debugln("Checking migrations status and running any required migrations...")

	goose.SetLogger(gooseLog)

	if dialectErr := goose.SetDialect("sqlite3"); dialectErr != nil {
		log.WithError(dialectErr).Panicln("error setting migrations dialect")
	}

	if statusErr := goose.Status(sql.DB, "./migrations"); statusErr != nil {
		log.WithError(statusErr).Panicln("error getting migrations status")
	}

	if upErr := goose.Up(sql.DB, "./migrations"); upErr != nil {
		log.WithError(upErr).Panicln("error migrating up")
	}

	api := models.NewAPICollection(theCtx, sql)

	context := &CContext{
		API:    api,
		Ctx:    theCtx,
		Log:    log,
		RawSQL: sql,
	}

	log.Debugln("Context: Context build complete")

	return context, nil
}
