package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acetv/aceguide/internal/context"
	"github.com/acetv/aceguide/internal/matcher"
	"github.com/acetv/aceguide/internal/models"
)

func getMappingRules(cc *context.CContext, c *gin.Context) {
	rules, rulesErr := cc.API.MappingRule.GetAllMappingRules()
	if rulesErr != nil {
		c.AbortWithError(http.StatusInternalServerError, rulesErr)
		return
	}

	c.JSON(http.StatusOK, rules)
}

func addMappingRule(cc *context.CContext, c *gin.Context) {
	var payload models.MappingRule
	if c.BindJSON(&payload) != nil {
		return
	}

	if validateErr := validateMappingRule(payload); validateErr != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validateErr.Error()})
		return
	}

	newRule, insertErr := cc.API.MappingRule.InsertMappingRule(payload)
	if insertErr != nil {
		c.AbortWithError(http.StatusInternalServerError, insertErr)
		return
	}

	c.JSON(http.StatusOK, newRule)
}

func saveMappingRule(cc *context.CContext, c *gin.Context) {
	ruleID, idErr := strconv.Atoi(c.Param("ruleId"))
	if idErr != nil {
		c.AbortWithError(http.StatusBadRequest, idErr)
		return
	}

	var payload models.MappingRule
	if c.BindJSON(&payload) != nil {
		return
	}
	payload.ID = ruleID

	if validateErr := validateMappingRule(payload); validateErr != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validateErr.Error()})
		return
	}

	if updateErr := cc.API.MappingRule.UpdateMappingRule(payload); updateErr != nil {
		if updateErr == sql.ErrNoRows {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.AbortWithError(http.StatusInternalServerError, updateErr)
		return
	}

	rule, ruleErr := cc.API.MappingRule.GetMappingRuleByID(ruleID)
	if ruleErr != nil {
		c.AbortWithError(http.StatusInternalServerError, ruleErr)
		return
	}

	c.JSON(http.StatusOK, rule)
}

func deleteMappingRule(cc *context.CContext, c *gin.Context) {
	ruleID, idErr := strconv.Atoi(c.Param("ruleId"))
	if idErr != nil {
		c.AbortWithError(http.StatusBadRequest, idErr)
		return
	}

	if deleteErr := cc.API.MappingRule.DeleteMappingRule(ruleID); deleteErr != nil {
		if deleteErr == sql.ErrNoRows {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.AbortWithError(http.StatusInternalServerError, deleteErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// previewMappingRule lists the channels a pattern would apply to, without
// touching any of them.
func previewMappingRule(cc *context.CContext, c *gin.Context) {
	pattern := c.Query("pattern")
	if pattern == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "pattern is required"})
		return
	}

	limit := matcher.DefaultPreviewLimit
	if rawLimit := c.Query("limit"); rawLimit != "" {
		parsedLimit, limitErr := strconv.Atoi(rawLimit)
		if limitErr != nil {
			c.AbortWithError(http.StatusBadRequest, limitErr)
			return
		}
		limit = parsedLimit
	}

	channels, channelsErr := cc.API.Channel.GetActiveChannels()
	if channelsErr != nil {
		c.AbortWithError(http.StatusInternalServerError, channelsErr)
		return
	}

	matcherChannels := make([]matcher.Channel, 0, len(channels))
	for _, channel := range channels {
		matcherChannels = append(matcherChannels, matcher.Channel{
			ID:                 channel.ID,
			Name:               channel.Name,
			EPGID:              channel.EPGID,
			EPGUpdateProtected: channel.EPGUpdateProtected,
		})
	}

	c.JSON(http.StatusOK, matcher.Preview(pattern, matcherChannels, limit))
}

func validateMappingRule(rule models.MappingRule) error {
	check := matcher.MappingRule{
		Pattern:      rule.Pattern,
		IsExclusion:  rule.IsExclusion,
		EPGChannelID: rule.EPGChannelID,
	}
	return check.Validate()
}
