// Package api exposes the aceguide REST API and playlist endpoint.
package api

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/acetv/aceguide/internal/context"
)

var log = &logrus.Logger{
	Out: os.Stderr,
	Formatter: &logrus.TextFormatter{
		FullTimestamp: true,
	},
	Hooks: make(logrus.LevelHooks),
	Level: logrus.DebugLevel,
}

// ServeAPI starts up the aceguide REST API.
func ServeAPI(cc *context.CContext) {
	cc.Log.Debugln("creating webserver routes")

	if viper.GetString("log.level") != logrus.DebugLevel.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := newGin()

	router.GET("/playlist.m3u", wrapContext(cc, getPlaylist))

	apiGroup := router.Group("/api")

	apiGroup.GET("/channels", wrapContext(cc, getChannels))
	apiGroup.POST("/channels", wrapContext(cc, addChannel))
	apiGroup.GET("/channels/:channelId", wrapContext(cc, getChannel))
	apiGroup.PUT("/channels/:channelId/epg", wrapContext(cc, setChannelEPGID))
	apiGroup.PUT("/channels/:channelId/protect", wrapContext(cc, setChannelProtected))
	apiGroup.DELETE("/channels/:channelId", wrapContext(cc, deleteChannel))

	apiGroup.GET("/urls", wrapContext(cc, getScrapedURLs))
	apiGroup.POST("/urls", wrapContext(cc, addScrapedURL))
	apiGroup.PUT("/urls/:urlId/refresh", wrapContext(cc, refreshScrapedURL))
	apiGroup.DELETE("/urls/:urlId", wrapContext(cc, deleteScrapedURL))

	apiGroup.GET("/epg/sources", wrapContext(cc, getEPGSources))
	apiGroup.POST("/epg/sources", wrapContext(cc, addEPGSource))
	apiGroup.PUT("/epg/sources/:sourceId", wrapContext(cc, saveEPGSource))
	apiGroup.PUT("/epg/sources/:sourceId/toggle", wrapContext(cc, toggleEPGSource))
	apiGroup.PUT("/epg/sources/:sourceId/refresh", wrapContext(cc, refreshEPGSource))
	apiGroup.DELETE("/epg/sources/:sourceId", wrapContext(cc, deleteEPGSource))
	apiGroup.POST("/epg/refresh", wrapContext(cc, refreshAllEPGSources))
	apiGroup.GET("/epg/channels", wrapContext(cc, getEPGChannels))
	apiGroup.GET("/epg/suggest", wrapContext(cc, suggestEPGChannels))
	apiGroup.POST("/epg/automap", wrapContext(cc, runAutoMap))

	apiGroup.GET("/epg/mappings", wrapContext(cc, getMappingRules))
	apiGroup.POST("/epg/mappings", wrapContext(cc, addMappingRule))
	apiGroup.PUT("/epg/mappings/:ruleId", wrapContext(cc, saveMappingRule))
	apiGroup.DELETE("/epg/mappings/:ruleId", wrapContext(cc, deleteMappingRule))
	apiGroup.GET("/epg/mappings/preview", wrapContext(cc, previewMappingRule))

	cc.Log.Infof("aceguide is live and on the air!")
	cc.Log.Infof("Serving from http://%s/", viper.GetString("web.listen-address"))
	cc.Log.Infof("Playlist URL: http://%s/playlist.m3u", viper.GetString("web.listen-address"))

	if err := router.Run(viper.GetString("web.listen-address")); err != nil {
		cc.Log.WithError(err).Panicln("Error starting up web server")
	}
}
