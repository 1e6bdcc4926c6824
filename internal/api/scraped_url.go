package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acetv/aceguide/internal/commands"
	"github.com/acetv/aceguide/internal/context"
	"github.com/acetv/aceguide/internal/models"
)

func getScrapedURLs(cc *context.CContext, c *gin.Context) {
	urls, urlsErr := cc.API.ScrapedURL.GetAllScrapedURLs()
	if urlsErr != nil {
		c.AbortWithError(http.StatusInternalServerError, urlsErr)
		return
	}

	c.JSON(http.StatusOK, urls)
}

func addScrapedURL(cc *context.CContext, c *gin.Context) {
	var payload models.ScrapedURL
	if c.BindJSON(&payload) != nil {
		return
	}

	if payload.URL == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	payload.Enabled = true

	newURL, insertErr := cc.API.ScrapedURL.InsertScrapedURL(payload)
	if insertErr != nil {
		c.AbortWithError(http.StatusInternalServerError, insertErr)
		return
	}

	if scrapeErr := commands.ScrapeURL(cc, newURL); scrapeErr != nil {
		log.WithError(scrapeErr).Errorf("initial scrape of %s failed", newURL.URL)
	}

	refreshed, refreshedErr := cc.API.ScrapedURL.GetScrapedURLByID(newURL.ID)
	if refreshedErr != nil {
		c.AbortWithError(http.StatusInternalServerError, refreshedErr)
		return
	}

	c.JSON(http.StatusOK, refreshed)
}

func refreshScrapedURL(cc *context.CContext, c *gin.Context) {
	urlID, idErr := strconv.Atoi(c.Param("urlId"))
	if idErr != nil {
		c.AbortWithError(http.StatusBadRequest, idErr)
		return
	}

	scrapedURL, urlErr := cc.API.ScrapedURL.GetScrapedURLByID(urlID)
	if urlErr != nil {
		if urlErr == sql.ErrNoRows {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.AbortWithError(http.StatusInternalServerError, urlErr)
		return
	}

	if scrapeErr := commands.ScrapeURL(cc, scrapedURL); scrapeErr != nil {
		c.AbortWithError(http.StatusInternalServerError, scrapeErr)
		return
	}

	refreshed, refreshedErr := cc.API.ScrapedURL.GetScrapedURLByID(urlID)
	if refreshedErr != nil {
		c.AbortWithError(http.StatusInternalServerError, refreshedErr)
		return
	}

	c.JSON(http.StatusOK, refreshed)
}

func deleteScrapedURL(cc *context.CContext, c *gin.Context) {
	urlID, idErr := strconv.Atoi(c.Param("urlId"))
	if idErr != nil {
		c.AbortWithError(http.StatusBadRequest, idErr)
		return
	}

	if deleteErr := cc.API.ScrapedURL.DeleteScrapedURL(urlID); deleteErr != nil {
		if deleteErr == sql.ErrNoRows {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.AbortWithError(http.StatusInternalServerError, deleteErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
