package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"

	"github.com/acetv/aceguide/internal/context"
	"github.com/acetv/aceguide/internal/m3u"
	"github.com/acetv/aceguide/internal/models"
)

// getPlaylist renders the active channels as an M3U playlist. Stream URLs
// point at the configured acestream engine when a base URL is set and fall
// back to raw acestream:// links otherwise.
func getPlaylist(cc *context.CContext, c *gin.Context) {
	var channels []models.Channel
	var channelsErr error

	if term := c.Query("search"); term != "" {
		channels, channelsErr = cc.API.Channel.SearchChannels(term)
	} else {
		channels, channelsErr = cc.API.Channel.GetActiveChannels()
	}
	if channelsErr != nil {
		c.AbortWithError(http.StatusInternalServerError, channelsErr)
		return
	}

	baseURL := viper.GetString("playlist.base-url")
	addPID := viper.GetBool("playlist.addpid")

	entries := make([]m3u.Entry, 0, len(channels))
	for _, channel := range channels {
		entry := m3u.Entry{
			Name: channel.Name,
			URI:  streamURI(baseURL, addPID, channel.ID),
		}
		if channel.EPGID != nil {
			entry.TVGID = *channel.EPGID
		}
		if channel.TVGName != nil {
			entry.TVGName = *channel.TVGName
		}
		if channel.Logo != nil {
			entry.Logo = *channel.Logo
		}
		if channel.GroupTitle != nil {
			entry.GroupTitle = *channel.GroupTitle
		}
		entries = append(entries, entry)
	}

	buf := &bytes.Buffer{}
	if encodeErr := m3u.Encode(buf, entries); encodeErr != nil {
		c.AbortWithError(http.StatusInternalServerError, encodeErr)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="playlist.m3u"`)
	c.Data(http.StatusOK, "audio/x-mpegurl", buf.Bytes())
}

func streamURI(baseURL string, addPID bool, channelID string) string {
	if baseURL == "" {
		return fmt.Sprintf("acestream://%s", channelID)
	}

	uri := fmt.Sprintf("%s/ace/getstream?id=%s", baseURL, channelID)
	if addPID {
		uri = fmt.Sprintf("%s&pid=0", uri)
	}
	return uri
}
