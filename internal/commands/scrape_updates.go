package commands

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/acetv/aceguide/internal/context"
	"github.com/acetv/aceguide/internal/metrics"
	"github.com/acetv/aceguide/internal/models"
	"github.com/acetv/aceguide/internal/scraper"
)

// ScrapeURL fetches a single scraped URL and syncs its channels: streams
// found in the source are upserted, streams that disappeared are removed.
func ScrapeURL(cc *context.CContext, scrapedURL *models.ScrapedURL) error {
	// search and manual URLs hold channels added by other means and are
	// never fetched.
	if scrapedURL.URLType == "search" || scrapedURL.URLType == "manual" {
		return cc.API.ScrapedURL.UpdateScrapedURLStatus(scrapedURL.ID, "ok", nil)
	}

	if statusErr := cc.API.ScrapedURL.UpdateScrapedURLStatus(scrapedURL.ID, "processing", nil); statusErr != nil {
		return statusErr
	}

	timeout := viper.GetDuration("scraper.fetch-timeout")
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	found, fetchErr := scraper.Fetch(scrapedURL.URL, timeout)
	if fetchErr != nil {
		metrics.ScrapeErrors.WithLabelValues(scrapedURL.URL).Inc()
		errText := fetchErr.Error()
		if statusErr := cc.API.ScrapedURL.UpdateScrapedURLStatus(scrapedURL.ID, "failed", &errText); statusErr != nil {
			log.WithError(statusErr).Errorln("error recording scrape failure")
		}
		return fmt.Errorf("error scraping %s: %s", scrapedURL.URL, fetchErr)
	}

	keepIDs := make([]string, 0, len(found))
	for _, foundChannel := range found {
		channel := models.Channel{
			ID:           foundChannel.ID,
			Name:         foundChannel.Name,
			SourceURL:    &scrapedURL.URL,
			ScrapedURLID: &scrapedURL.ID,
		}
		if foundChannel.TVGID != "" {
			channel.EPGID = &foundChannel.TVGID
		}
		if foundChannel.TVGName != "" {
			channel.TVGName = &foundChannel.TVGName
		}
		if foundChannel.Logo != "" {
			channel.Logo = &foundChannel.Logo
		}
		if foundChannel.GroupTitle != "" {
			channel.GroupTitle = &foundChannel.GroupTitle
		}

		if _, upsertErr := cc.API.Channel.UpsertChannel(channel); upsertErr != nil {
			log.WithError(upsertErr).Errorf("error upserting channel %s from %s", foundChannel.ID, scrapedURL.URL)
			continue
		}
		keepIDs = append(keepIDs, foundChannel.ID)
	}

	if deleteErr := cc.API.Channel.DeleteChannelsForScrapedURL(scrapedURL.ID, keepIDs); deleteErr != nil {
		log.WithError(deleteErr).Errorf("error removing stale channels for %s", scrapedURL.URL)
	}

	if statusErr := cc.API.ScrapedURL.UpdateScrapedURLStatus(scrapedURL.ID, "ok", nil); statusErr != nil {
		return statusErr
	}

	log.Infof("scraped %d channels from %s", len(found), scrapedURL.URL)

	refreshChannelMetrics(cc)

	return nil
}

// FireScrapeUpdates scrapes every enabled URL.
func FireScrapeUpdates(cc *context.CContext) error {
	urls, urlsErr := cc.API.ScrapedURL.GetEnabledScrapedURLs()
	if urlsErr != nil {
		return fmt.Errorf("error getting enabled scraped URLs: %s", urlsErr)
	}

	log.Infof("scrape update is beginning for %d URLs", len(urls))

	var lastErr error
	for i := range urls {
		if err := ScrapeURL(cc, &urls[i]); err != nil {
			log.WithError(err).Errorf("error scraping %s", urls[i].URL)
			lastErr = err
		}
	}

	return lastErr
}

// StartFireScrapeUpdates Scheduler triggered function to scrape all enabled URLs.
func StartFireScrapeUpdates(cc *context.CContext) {
	if err := FireScrapeUpdates(cc); err != nil {
		log.Errorf("could not complete scrape updates: %s", err)
		return
	}

	log.Infoln("scraped URLs have been updated successfully")
}

func refreshChannelMetrics(cc *context.CContext) {
	channels, channelsErr := cc.API.Channel.GetAllChannels()
	if channelsErr != nil {
		log.WithError(channelsErr).Errorln("error counting channels for metrics")
		return
	}

	counts := make(map[string]int)
	for _, channel := range channels {
		counts[channel.Status]++
	}
	for status, count := range counts {
		metrics.ExposedChannels.WithLabelValues(status).Set(float64(count))
	}
}
