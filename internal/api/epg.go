package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/schollz/closestmatch"
	"github.com/spf13/viper"

	"github.com/acetv/aceguide/internal/commands"
	"github.com/acetv/aceguide/internal/context"
	"github.com/acetv/aceguide/internal/matcher"
	"github.com/acetv/aceguide/internal/models"
)

func getEPGSources(cc *context.CContext, c *gin.Context) {
	sources, sourcesErr := cc.API.EPGSource.GetAllEPGSources()
	if sourcesErr != nil {
		c.AbortWithError(http.StatusInternalServerError, sourcesErr)
		return
	}

	c.JSON(http.StatusOK, sources)
}

func addEPGSource(cc *context.CContext, c *gin.Context) {
	var payload models.EPGSource
	if c.BindJSON(&payload) != nil {
		return
	}

	if payload.URL == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	if payload.Name == "" {
		payload.Name = payload.URL
	}
	payload.Enabled = true

	newSource, insertErr := cc.API.EPGSource.InsertEPGSource(payload)
	if insertErr != nil {
		c.AbortWithError(http.StatusInternalServerError, insertErr)
		return
	}

	if refreshErr := commands.RefreshEPGSource(cc, *newSource); refreshErr != nil {
		log.WithError(refreshErr).Errorf("initial refresh of EPG source %s failed", newSource.URL)
	}

	refreshed, refreshedErr := cc.API.EPGSource.GetEPGSourceByID(newSource.ID)
	if refreshedErr != nil {
		c.AbortWithError(http.StatusInternalServerError, refreshedErr)
		return
	}

	c.JSON(http.StatusOK, refreshed)
}

func saveEPGSource(cc *context.CContext, c *gin.Context) {
	sourceID, idErr := strconv.Atoi(c.Param("sourceId"))
	if idErr != nil {
		c.AbortWithError(http.StatusBadRequest, idErr)
		return
	}

	var payload models.EPGSource
	if c.BindJSON(&payload) != nil {
		return
	}
	payload.ID = sourceID

	if updateErr := cc.API.EPGSource.UpdateEPGSource(payload); updateErr != nil {
		if updateErr == sql.ErrNoRows {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.AbortWithError(http.StatusInternalServerError, updateErr)
		return
	}

	source, sourceErr := cc.API.EPGSource.GetEPGSourceByID(sourceID)
	if sourceErr != nil {
		c.AbortWithError(http.StatusInternalServerError, sourceErr)
		return
	}

	c.JSON(http.StatusOK, source)
}

func toggleEPGSource(cc *context.CContext, c *gin.Context) {
	sourceID, idErr := strconv.Atoi(c.Param("sourceId"))
	if idErr != nil {
		c.AbortWithError(http.StatusBadRequest, idErr)
		return
	}

	source, toggleErr := cc.API.EPGSource.ToggleEPGSource(sourceID)
	if toggleErr != nil {
		if toggleErr == sql.ErrNoRows {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.AbortWithError(http.StatusInternalServerError, toggleErr)
		return
	}

	c.JSON(http.StatusOK, source)
}

func refreshEPGSource(cc *context.CContext, c *gin.Context) {
	sourceID, idErr := strconv.Atoi(c.Param("sourceId"))
	if idErr != nil {
		c.AbortWithError(http.StatusBadRequest, idErr)
		return
	}

	source, sourceErr := cc.API.EPGSource.GetEPGSourceByID(sourceID)
	if sourceErr != nil {
		if sourceErr == sql.ErrNoRows {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.AbortWithError(http.StatusInternalServerError, sourceErr)
		return
	}

	if refreshErr := commands.RefreshEPGSource(cc, *source); refreshErr != nil {
		c.AbortWithError(http.StatusInternalServerError, refreshErr)
		return
	}

	refreshed, refreshedErr := cc.API.EPGSource.GetEPGSourceByID(sourceID)
	if refreshedErr != nil {
		c.AbortWithError(http.StatusInternalServerError, refreshedErr)
		return
	}

	c.JSON(http.StatusOK, refreshed)
}

// refreshAllEPGSources refreshes every enabled source and returns the
// resulting source rows so the caller sees the new error bookkeeping.
func refreshAllEPGSources(cc *context.CContext, c *gin.Context) {
	if refreshErr := commands.FireEPGUpdates(cc); refreshErr != nil {
		log.WithError(refreshErr).Errorln("EPG refresh completed with failures")
	}

	sources, sourcesErr := cc.API.EPGSource.GetAllEPGSources()
	if sourcesErr != nil {
		c.AbortWithError(http.StatusInternalServerError, sourcesErr)
		return
	}

	c.JSON(http.StatusOK, sources)
}

func deleteEPGSource(cc *context.CContext, c *gin.Context) {
	sourceID, idErr := strconv.Atoi(c.Param("sourceId"))
	if idErr != nil {
		c.AbortWithError(http.StatusBadRequest, idErr)
		return
	}

	if deleteErr := cc.API.EPGSource.DeleteEPGSource(sourceID); deleteErr != nil {
		if deleteErr == sql.ErrNoRows {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.AbortWithError(http.StatusInternalServerError, deleteErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func getEPGChannels(cc *context.CContext, c *gin.Context) {
	if rawSourceID := c.Query("sourceId"); rawSourceID != "" {
		sourceID, idErr := strconv.Atoi(rawSourceID)
		if idErr != nil {
			c.AbortWithError(http.StatusBadRequest, idErr)
			return
		}
		channels, channelsErr := cc.API.EPGChannel.GetEPGChannelsForSource(sourceID)
		if channelsErr != nil {
			c.AbortWithError(http.StatusInternalServerError, channelsErr)
			return
		}
		c.JSON(http.StatusOK, channels)
		return
	}

	channels, channelsErr := cc.API.EPGChannel.GetAllEPGChannels()
	if channelsErr != nil {
		c.AbortWithError(http.StatusInternalServerError, channelsErr)
		return
	}

	c.JSON(http.StatusOK, channels)
}

func suggestEPGChannels(cc *context.CContext, c *gin.Context) {
	inputChannelName := c.Query("name")

	if inputChannelName == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	epgChannels, channelsErr := cc.API.EPGChannel.GetAllEPGChannels()
	if channelsErr != nil {
		c.AbortWithError(http.StatusInternalServerError, channelsErr)
		return
	}

	names := make([]string, 0, len(epgChannels))
	channelMap := make(map[string]models.EPGChannel)

	for _, channel := range epgChannels {
		names = append(names, channel.Name)
		channelMap[channel.Name] = channel
		for _, alias := range channel.Aliases {
			names = append(names, alias)
			channelMap[alias] = channel
		}
	}

	bagSizes := []int{3}

	// Create a closestmatch object
	cm := closestmatch.New(names, bagSizes)

	results := cm.ClosestN(inputChannelName, 3)

	suggestions := make([]models.EPGChannel, 0, len(results))
	seen := make(map[string]bool)

	for _, result := range results {
		channel, ok := channelMap[result]
		if !ok || seen[channel.XMLTVID] {
			continue
		}
		seen[channel.XMLTVID] = true
		suggestions = append(suggestions, channel)
	}

	c.JSON(http.StatusOK, suggestions)
}

type autoMapRequest struct {
	Threshold       *float64 `json:"threshold"`
	RespectExisting *bool    `json:"respectExisting"`
	CleanUnmatched  *bool    `json:"cleanUnmatched"`
}

func runAutoMap(cc *context.CContext, c *gin.Context) {
	var payload autoMapRequest
	if c.Request.ContentLength > 0 {
		if c.BindJSON(&payload) != nil {
			return
		}
	}

	opts := matcher.Options{
		Threshold:       viper.GetFloat64("epg.match-threshold"),
		RespectExisting: true,
	}
	if payload.Threshold != nil {
		opts.Threshold = *payload.Threshold
	}
	if payload.RespectExisting != nil {
		opts.RespectExisting = *payload.RespectExisting
	}
	if payload.CleanUnmatched != nil {
		opts.CleanUnmatched = *payload.CleanUnmatched
	}

	report, runErr := commands.RunAutoMap(cc, opts)
	if runErr != nil {
		if runErr == matcher.ErrInvalidThreshold {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": runErr.Error()})
			return
		}
		// stored rules are operator configuration, not request input
		if runErr == matcher.ErrInvalidRule {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("mapping rule configuration error: %s", runErr)})
			return
		}
		c.AbortWithError(http.StatusInternalServerError, runErr)
		return
	}

	c.JSON(http.StatusOK, report)
}
