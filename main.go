package main

import (
	"os"
	"time"

	"github.com/namsral/flag"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/acetv/aceguide/internal/api"
	"github.com/acetv/aceguide/internal/commands"
	"github.com/acetv/aceguide/internal/context"
	"github.com/acetv/aceguide/internal/matcher"
)

var log = &logrus.Logger{
	Out: os.Stderr,
	Formatter: &logrus.TextFormatter{
		FullTimestamp: true,
	},
	Hooks: make(logrus.LevelHooks),
	Level: logrus.DebugLevel,
}

func main() {
	databaseFile := flag.String("database", "aceguide.db", "Path to the SQLite database file")
	listenAddress := flag.String("listen", "localhost:6878", "IP:Port to listen on")
	logLevel := flag.String("loglevel", "info", "Log level (debug, info, warn, error)")
	logRequests := flag.Bool("logrequests", false, "Log HTTP requests")
	scrapeInterval := flag.Duration("scrapeinterval", 1*time.Hour, "How often to rescrape enabled URLs")
	scrapeTimeout := flag.Duration("scrapetimeout", 30*time.Second, "HTTP timeout when fetching a scraped URL")
	epgInterval := flag.Duration("epginterval", 12*time.Hour, "How often to refresh enabled EPG sources")
	epgTimeout := flag.Duration("epgtimeout", 1*time.Minute, "HTTP timeout when fetching an XMLTV file")
	statusInterval := flag.Duration("statusinterval", 1*time.Hour, "How often to check channel status against the acestream engine")
	statusTimeout := flag.Duration("statustimeout", 10*time.Second, "HTTP timeout for a single channel status probe")
	matchThreshold := flag.Float64("matchthreshold", 0.75, "Minimum similarity score for an automatic EPG match")
	autoMap := flag.Bool("automap", false, "Run the EPG auto-mapper after every EPG refresh")
	playlistBase := flag.String("playlistbase", "", "Base URL of an acestream engine for playlist stream URLs, e.g. http://127.0.0.1:6878. Empty emits acestream:// links")
	playlistAddPID := flag.Bool("playlistaddpid", false, "Append a pid parameter to engine stream URLs")
	flag.Parse()

	viper.Set("database.file", *databaseFile)
	viper.Set("web.listen-address", *listenAddress)
	viper.Set("log.level", *logLevel)
	viper.Set("log.requests", *logRequests)
	viper.Set("scraper.interval", *scrapeInterval)
	viper.Set("scraper.fetch-timeout", *scrapeTimeout)
	viper.Set("epg.interval", *epgInterval)
	viper.Set("epg.fetch-timeout", *epgTimeout)
	viper.Set("status.interval", *statusInterval)
	viper.Set("status.check-timeout", *statusTimeout)
	viper.Set("epg.match-threshold", *matchThreshold)
	viper.Set("epg.automap", *autoMap)
	viper.Set("playlist.base-url", *playlistBase)
	viper.Set("playlist.addpid", *playlistAddPID)

	if level, levelErr := logrus.ParseLevel(*logLevel); levelErr == nil {
		log.SetLevel(level)
	}

	log.Infoln("booting aceguide")

	cc, ccErr := context.NewCContext()
	if ccErr != nil {
		log.WithError(ccErr).Fatalln("could not initialize aceguide")
	}

	go runUpdaters(cc)

	api.ServeAPI(cc)
}

// runUpdaters drives the background scrape and EPG refresh cycles. Both fire
// once at boot so a fresh install has data before the first tick.
func runUpdaters(cc *context.CContext) {
	commands.StartFireScrapeUpdates(cc)
	commands.StartFireEPGUpdates(cc)
	fireAutoMap(cc)
	commands.StartFireStatusChecks(cc)

	scrapeTicker := time.NewTicker(viper.GetDuration("scraper.interval"))
	epgTicker := time.NewTicker(viper.GetDuration("epg.interval"))
	statusTicker := time.NewTicker(viper.GetDuration("status.interval"))

	for {
		select {
		case <-scrapeTicker.C:
			commands.StartFireScrapeUpdates(cc)
		case <-epgTicker.C:
			commands.StartFireEPGUpdates(cc)
			fireAutoMap(cc)
		case <-statusTicker.C:
			commands.StartFireStatusChecks(cc)
		}
	}
}

func fireAutoMap(cc *context.CContext) {
	if !viper.GetBool("epg.automap") {
		return
	}

	opts := matcher.Options{
		Threshold:       viper.GetFloat64("epg.match-threshold"),
		RespectExisting: true,
	}
	if _, err := commands.RunAutoMap(cc, opts); err != nil {
		log.WithError(err).Errorln("scheduled auto-map run failed")
	}
}
