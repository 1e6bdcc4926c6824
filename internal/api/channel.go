package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/acetv/aceguide/internal/context"
	"github.com/acetv/aceguide/internal/models"
)

func getChannels(cc *context.CContext, c *gin.Context) {
	if term := c.Query("search"); term != "" {
		channels, channelsErr := cc.API.Channel.SearchChannels(term)
		if channelsErr != nil {
			c.AbortWithError(http.StatusInternalServerError, channelsErr)
			return
		}
		c.JSON(http.StatusOK, channels)
		return
	}

	channels, channelsErr := cc.API.Channel.GetAllChannels()
	if channelsErr != nil {
		c.AbortWithError(http.StatusInternalServerError, channelsErr)
		return
	}

	c.JSON(http.StatusOK, channels)
}

var channelIDRegex = regexp.MustCompile(`^[a-fA-F0-9]{40}$`)

// addChannel creates a hand-entered channel. Manual channels hang off a
// dedicated scraped URL row so the scrape loop never removes them.
func addChannel(cc *context.CContext, c *gin.Context) {
	var payload models.Channel
	if c.BindJSON(&payload) != nil {
		return
	}

	if !channelIDRegex.MatchString(payload.ID) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "id must be a 40 character acestream content id"})
		return
	}
	if payload.Name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	manualURL, manualErr := cc.API.ScrapedURL.EnsureManualScrapedURL()
	if manualErr != nil {
		c.AbortWithError(http.StatusInternalServerError, manualErr)
		return
	}

	payload.ID = strings.ToLower(payload.ID)
	payload.ScrapedURLID = &manualURL.ID

	newChannel, upsertErr := cc.API.Channel.UpsertChannel(payload)
	if upsertErr != nil {
		c.AbortWithError(http.StatusInternalServerError, upsertErr)
		return
	}

	c.JSON(http.StatusOK, newChannel)
}

func getChannel(cc *context.CContext, c *gin.Context) {
	channel, channelErr := cc.API.Channel.GetChannelByID(c.Param("channelId"))
	if channelErr != nil {
		if channelErr == sql.ErrNoRows {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.AbortWithError(http.StatusInternalServerError, channelErr)
		return
	}

	c.JSON(http.StatusOK, channel)
}

func setChannelEPGID(cc *context.CContext, c *gin.Context) {
	var payload struct {
		EPGID *string `json:"epgId"`
	}
	if c.BindJSON(&payload) != nil {
		return
	}

	channelID := c.Param("channelId")

	if payload.EPGID != nil {
		if _, lookupErr := cc.API.EPGChannel.GetEPGChannelByXMLTVID(*payload.EPGID); lookupErr != nil {
			if lookupErr == sql.ErrNoRows {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown EPG channel id %s", *payload.EPGID)})
				return
			}
			c.AbortWithError(http.StatusInternalServerError, lookupErr)
			return
		}
	}

	if updateErr := cc.API.Channel.UpdateChannelEPGID(channelID, payload.EPGID); updateErr != nil {
		if updateErr == sql.ErrNoRows {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.AbortWithError(http.StatusInternalServerError, updateErr)
		return
	}

	channel, channelErr := cc.API.Channel.GetChannelByID(channelID)
	if channelErr != nil {
		c.AbortWithError(http.StatusInternalServerError, channelErr)
		return
	}

	c.JSON(http.StatusOK, channel)
}

func setChannelProtected(cc *context.CContext, c *gin.Context) {
	var payload struct {
		Protected bool `json:"protected"`
	}
	if c.BindJSON(&payload) != nil {
		return
	}

	channelID := c.Param("channelId")

	if updateErr := cc.API.Channel.SetChannelProtected(channelID, payload.Protected); updateErr != nil {
		if updateErr == sql.ErrNoRows {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.AbortWithError(http.StatusInternalServerError, updateErr)
		return
	}

	channel, channelErr := cc.API.Channel.GetChannelByID(channelID)
	if channelErr != nil {
		c.AbortWithError(http.StatusInternalServerError, channelErr)
		return
	}

	c.JSON(http.StatusOK, channel)
}

func deleteChannel(cc *context.CContext, c *gin.Context) {
	if deleteErr := cc.API.Channel.DeleteChannel(c.Param("channelId")); deleteErr != nil {
		if deleteErr == sql.ErrNoRows {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.AbortWithError(http.StatusInternalServerError, deleteErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
