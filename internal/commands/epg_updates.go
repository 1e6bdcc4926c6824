package commands

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/acetv/aceguide/internal/context"
	"github.com/acetv/aceguide/internal/metrics"
	"github.com/acetv/aceguide/internal/models"
	"github.com/acetv/aceguide/internal/utils"
)

// FireEPGUpdates refreshes every enabled EPG source. A failing source is
// recorded on its row and does not stop the remaining sources.
func FireEPGUpdates(cc *context.CContext) error {
	sources, sourcesErr := cc.API.EPGSource.GetEnabledEPGSources()
	if sourcesErr != nil {
		return fmt.Errorf("error getting enabled EPG sources: %s", sourcesErr)
	}

	log.Infof("EPG update is beginning for %d sources", len(sources))

	var lastErr error
	for _, source := range sources {
		if err := RefreshEPGSource(cc, source); err != nil {
			log.WithError(err).Errorf("error refreshing EPG source %s (%s)", source.Name, source.URL)
			lastErr = err
		}
	}

	return lastErr
}

// RefreshEPGSource refreshes a single EPG source, recording failures on its row.
func RefreshEPGSource(cc *context.CContext, source models.EPGSource) error {
	if err := refreshEPGSource(cc, source); err != nil {
		if markErr := cc.API.EPGSource.MarkEPGSourceFailed(source.ID, err.Error()); markErr != nil {
			log.WithError(markErr).Errorln("error recording EPG source failure")
		}
		return err
	}
	return nil
}

func refreshEPGSource(cc *context.CContext, source models.EPGSource) error {
	timeout := viper.GetDuration("epg.fetch-timeout")
	if timeout == 0 {
		timeout = time.Minute
	}

	tv, tvErr := utils.GetXMLTV(source.URL, timeout)
	if tvErr != nil {
		return tvErr
	}

	channels := make([]models.EPGChannel, 0, len(tv.Channels))
	for _, xmltvChannel := range tv.Channels {
		if xmltvChannel.ID == "" || len(xmltvChannel.DisplayNames) == 0 {
			continue
		}

		channel := models.EPGChannel{
			XMLTVID: xmltvChannel.ID,
			Name:    xmltvChannel.DisplayNames[0].Value,
		}
		for _, displayName := range xmltvChannel.DisplayNames[1:] {
			if displayName.Value != "" {
				channel.Aliases = append(channel.Aliases, displayName.Value)
			}
		}
		if len(xmltvChannel.Icons) > 0 {
			iconURL := xmltvChannel.Icons[0].Source
			channel.IconURL = &iconURL
		}

		channels = append(channels, channel)
	}

	if replaceErr := cc.API.EPGChannel.ReplaceEPGChannelsForSource(source.ID, channels); replaceErr != nil {
		return fmt.Errorf("error replacing EPG channels for source %d: %s", source.ID, replaceErr)
	}

	if markErr := cc.API.EPGSource.MarkEPGSourceRefreshed(source.ID); markErr != nil {
		return fmt.Errorf("error marking EPG source %d refreshed: %s", source.ID, markErr)
	}

	metrics.EPGChannels.WithLabelValues(source.Name).Set(float64(len(channels)))

	log.Infof("imported %d channels from EPG source %s", len(channels), source.Name)

	return nil
}

// StartFireEPGUpdates Scheduler triggered function to update EPG sources.
func StartFireEPGUpdates(cc *context.CContext) {
	if err := FireEPGUpdates(cc); err != nil {
		log.Errorf("could not complete EPG updates: %s", err)
		return
	}

	log.Infoln("EPG sources have been updated successfully")
}
