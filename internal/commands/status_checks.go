package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/acetv/aceguide/internal/context"
	"github.com/acetv/aceguide/internal/metrics"
	"github.com/acetv/aceguide/internal/models"
)

const statusCheckConcurrency = 20

type engineStatusResponse struct {
	Response *struct {
		IsLive int `json:"is_live"`
	} `json:"response"`
	Error *string `json:"error"`
}

// CheckChannelStatus asks the acestream engine whether a channel is live and
// records the outcome on its row.
func CheckChannelStatus(cc *context.CContext, engineURL string, channel models.Channel) (bool, error) {
	timeout := viper.GetDuration("status.check-timeout")
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	online, checkErr := probeEngine(engineURL, channel.ID, timeout)

	var errText *string
	if checkErr != nil {
		text := checkErr.Error()
		errText = &text
	}

	if updateErr := cc.API.Channel.UpdateChannelStatus(channel.ID, online, errText); updateErr != nil {
		return online, updateErr
	}

	return online, nil
}

// probeEngine queries the engine's stream status endpoint. A channel counts
// as online when the engine reports it live, or when it answers with the
// "got newer download" notice, which still means the stream is usable.
func probeEngine(engineURL, channelID string, timeout time.Duration) (bool, error) {
	client := &http.Client{Timeout: timeout}

	statusURL := fmt.Sprintf("%s/ace/getstream?id=%s&format=json&method=get_status", strings.TrimRight(engineURL, "/"), url.QueryEscape(channelID))

	resp, respErr := client.Get(statusURL)
	if respErr != nil {
		return false, respErr
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("engine returned HTTP %d", resp.StatusCode)
	}

	var status engineStatusResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&status); decodeErr != nil {
		return false, fmt.Errorf("invalid engine response: %s", decodeErr)
	}

	if status.Error != nil {
		if strings.Contains(strings.ToLower(*status.Error), "got newer download") {
			return true, nil
		}
		return false, fmt.Errorf("%s", *status.Error)
	}

	if status.Response != nil && status.Response.IsLive == 1 {
		return true, nil
	}

	return false, fmt.Errorf("channel is not live")
}

// FireStatusChecks probes every active channel against the acestream engine.
// Without a configured engine base URL there is nothing to probe.
func FireStatusChecks(cc *context.CContext) error {
	engineURL := viper.GetString("playlist.base-url")
	if engineURL == "" {
		log.Debugln("no engine base URL configured, skipping channel status checks")
		return nil
	}

	channels, channelsErr := cc.API.Channel.GetActiveChannels()
	if channelsErr != nil {
		return fmt.Errorf("error getting active channels: %s", channelsErr)
	}

	log.Infof("status check is beginning for %d channels", len(channels))

	var wg sync.WaitGroup
	var mu sync.Mutex
	sem := make(chan struct{}, statusCheckConcurrency)
	online := 0

	for _, channel := range channels {
		wg.Add(1)
		sem <- struct{}{}
		go func(channel models.Channel) {
			defer wg.Done()
			defer func() { <-sem }()

			isOnline, checkErr := CheckChannelStatus(cc, engineURL, channel)
			if checkErr != nil {
				log.WithError(checkErr).Errorf("error recording status of channel %s", channel.ID)
				return
			}
			if isOnline {
				mu.Lock()
				online++
				mu.Unlock()
			}
		}(channel)
	}

	wg.Wait()

	metrics.OnlineChannels.Set(float64(online))

	log.Infof("status check complete: %d of %d channels online", online, len(channels))

	return nil
}

// StartFireStatusChecks Scheduler triggered function to check channel status.
func StartFireStatusChecks(cc *context.CContext) {
	if err := FireStatusChecks(cc); err != nil {
		log.Errorf("could not complete channel status checks: %s", err)
		return
	}

	log.Infoln("channel statuses have been updated successfully")
}
