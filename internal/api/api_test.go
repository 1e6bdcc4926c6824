package api

import (
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/acetv/aceguide/internal/context"
	"github.com/acetv/aceguide/internal/models"
)

var testLog = &logrus.Logger{
	Out:       os.Stderr,
	Formatter: &logrus.TextFormatter{},
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.PanicLevel,
}

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeChannelAPI struct {
	channels []models.Channel
	upserted []models.Channel
}

func (f *fakeChannelAPI) UpsertChannel(channel models.Channel) (*models.Channel, error) {
	f.upserted = append(f.upserted, channel)
	return &channel, nil
}

func (f *fakeChannelAPI) GetAllChannels() ([]models.Channel, error) {
	return f.channels, nil
}

func (f *fakeChannelAPI) GetActiveChannels() ([]models.Channel, error) {
	return f.channels, nil
}

func (f *fakeChannelAPI) GetChannelByID(id string) (*models.Channel, error) {
	for i := range f.channels {
		if f.channels[i].ID == id {
			return &f.channels[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeChannelAPI) GetChannelsForScrapedURL(scrapedURLID int) ([]models.Channel, error) {
	return nil, nil
}

func (f *fakeChannelAPI) SearchChannels(term string) ([]models.Channel, error) {
	return nil, nil
}

func (f *fakeChannelAPI) UpdateChannelEPGID(id string, epgID *string) error {
	return nil
}

func (f *fakeChannelAPI) SetChannelProtected(id string, protected bool) error {
	return nil
}

func (f *fakeChannelAPI) UpdateChannelStatus(id string, isOnline bool, checkError *string) error {
	return nil
}

func (f *fakeChannelAPI) DeleteChannel(id string) error {
	return nil
}

func (f *fakeChannelAPI) DeleteChannelsForScrapedURL(scrapedURLID int, keepIDs []string) error {
	return nil
}

type fakeScrapedURLAPI struct {
	manual models.ScrapedURL
}

func (f *fakeScrapedURLAPI) InsertScrapedURL(url models.ScrapedURL) (*models.ScrapedURL, error) {
	return &url, nil
}

func (f *fakeScrapedURLAPI) GetAllScrapedURLs() ([]models.ScrapedURL, error) {
	return nil, nil
}

func (f *fakeScrapedURLAPI) GetEnabledScrapedURLs() ([]models.ScrapedURL, error) {
	return nil, nil
}

func (f *fakeScrapedURLAPI) GetScrapedURLByID(id int) (*models.ScrapedURL, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeScrapedURLAPI) EnsureManualScrapedURL() (*models.ScrapedURL, error) {
	manual := f.manual
	return &manual, nil
}

func (f *fakeScrapedURLAPI) UpdateScrapedURLStatus(id int, status string, lastError *string) error {
	return nil
}

func (f *fakeScrapedURLAPI) DeleteScrapedURL(id int) error {
	return nil
}

type fakeEPGChannelAPI struct {
	channels []models.EPGChannel
}

func (f *fakeEPGChannelAPI) ReplaceEPGChannelsForSource(sourceID int, channels []models.EPGChannel) error {
	return nil
}

func (f *fakeEPGChannelAPI) GetAllEPGChannels() ([]models.EPGChannel, error) {
	return f.channels, nil
}

func (f *fakeEPGChannelAPI) GetEPGChannelsForSource(sourceID int) ([]models.EPGChannel, error) {
	return f.channels, nil
}

func (f *fakeEPGChannelAPI) GetEPGChannelByXMLTVID(xmltvID string) (*models.EPGChannel, error) {
	for i := range f.channels {
		if f.channels[i].XMLTVID == xmltvID {
			return &f.channels[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeEPGSourceAPI struct {
	sources []models.EPGSource
}

func (f *fakeEPGSourceAPI) InsertEPGSource(source models.EPGSource) (*models.EPGSource, error) {
	return &source, nil
}

func (f *fakeEPGSourceAPI) GetAllEPGSources() ([]models.EPGSource, error) {
	return f.sources, nil
}

func (f *fakeEPGSourceAPI) GetEnabledEPGSources() ([]models.EPGSource, error) {
	return nil, nil
}

func (f *fakeEPGSourceAPI) GetEPGSourceByID(id int) (*models.EPGSource, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeEPGSourceAPI) UpdateEPGSource(source models.EPGSource) error {
	return nil
}

func (f *fakeEPGSourceAPI) MarkEPGSourceRefreshed(id int) error {
	return nil
}

func (f *fakeEPGSourceAPI) MarkEPGSourceFailed(id int, lastError string) error {
	return nil
}

func (f *fakeEPGSourceAPI) ToggleEPGSource(id int) (*models.EPGSource, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeEPGSourceAPI) DeleteEPGSource(id int) error {
	return nil
}

type fakeMappingRuleAPI struct {
	rules []models.MappingRule
}

func (f *fakeMappingRuleAPI) InsertMappingRule(rule models.MappingRule) (*models.MappingRule, error) {
	return &rule, nil
}

func (f *fakeMappingRuleAPI) GetAllMappingRules() ([]models.MappingRule, error) {
	return f.rules, nil
}

func (f *fakeMappingRuleAPI) GetMappingRuleByID(id int) (*models.MappingRule, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeMappingRuleAPI) UpdateMappingRule(rule models.MappingRule) error {
	return nil
}

func (f *fakeMappingRuleAPI) DeleteMappingRule(id int) error {
	return nil
}

func newTestContext(api *models.APICollection) *context.CContext {
	return &context.CContext{API: api, Log: testLog}
}

func jsonRequest(c *gin.Context, method, target, body string) {
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
}

func TestAddChannelAttachesManualURL(t *testing.T) {
	channels := &fakeChannelAPI{}
	urls := &fakeScrapedURLAPI{manual: models.ScrapedURL{ID: 7, URL: "manual", URLType: "manual"}}
	cc := newTestContext(&models.APICollection{Channel: channels, ScrapedURL: urls})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	jsonRequest(c, "POST", "/api/channels", `{"id": "B624BA39F9D496A5FCDB4E2BE64E05ADD33BD3B1", "name": "Manual One"}`)

	addChannel(cc, c)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(channels.upserted) != 1 {
		t.Fatalf("expected 1 upserted channel, got %d", len(channels.upserted))
	}

	created := channels.upserted[0]
	if created.ID != "b624ba39f9d496a5fcdb4e2be64e05add33bd3b1" {
		t.Errorf("expected lowercased id, got %q", created.ID)
	}
	if created.ScrapedURLID == nil || *created.ScrapedURLID != 7 {
		t.Errorf("expected channel owned by manual URL 7, got %v", created.ScrapedURLID)
	}
}

func TestAddChannelRejectsInvalidID(t *testing.T) {
	channels := &fakeChannelAPI{}
	urls := &fakeScrapedURLAPI{manual: models.ScrapedURL{ID: 7}}
	cc := newTestContext(&models.APICollection{Channel: channels, ScrapedURL: urls})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	jsonRequest(c, "POST", "/api/channels", `{"id": "not-a-content-id", "name": "Bad"}`)

	addChannel(cc, c)

	if w.Code != 400 {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(channels.upserted) != 0 {
		t.Error("expected no channel created for invalid id")
	}
}

func TestSetChannelEPGIDRejectsUnknownEPGChannel(t *testing.T) {
	channels := &fakeChannelAPI{channels: []models.Channel{{ID: "b624ba39f9d496a5fcdb4e2be64e05add33bd3b1", Name: "ESPN HD"}}}
	epgChannels := &fakeEPGChannelAPI{}
	cc := newTestContext(&models.APICollection{Channel: channels, EPGChannel: epgChannels})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "channelId", Value: "b624ba39f9d496a5fcdb4e2be64e05add33bd3b1"}}
	jsonRequest(c, "PUT", "/api/channels/b624ba39f9d496a5fcdb4e2be64e05add33bd3b1/epg", `{"epgId": "nosuch.id"}`)

	setChannelEPGID(cc, c)

	if w.Code != 400 {
		t.Fatalf("expected 400 for unknown EPG channel id, got %d", w.Code)
	}
}

func TestAutoMapInvalidThresholdReturns400(t *testing.T) {
	cc := newTestContext(&models.APICollection{
		Channel:     &fakeChannelAPI{},
		EPGChannel:  &fakeEPGChannelAPI{},
		MappingRule: &fakeMappingRuleAPI{},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	jsonRequest(c, "POST", "/api/epg/automap", `{"threshold": 1.5}`)

	runAutoMap(cc, c)

	if w.Code != 400 {
		t.Fatalf("expected 400 for out of range threshold, got %d", w.Code)
	}
}

func TestAutoMapMalformedRuleReturns500(t *testing.T) {
	cc := newTestContext(&models.APICollection{
		Channel:     &fakeChannelAPI{},
		EPGChannel:  &fakeEPGChannelAPI{},
		MappingRule: &fakeMappingRuleAPI{rules: []models.MappingRule{{Pattern: ""}}},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	jsonRequest(c, "POST", "/api/epg/automap", `{"threshold": 0.75}`)

	runAutoMap(cc, c)

	if w.Code != 500 {
		t.Fatalf("expected 500 for malformed stored rule, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "configuration error") {
		t.Errorf("expected configuration error message, got %s", w.Body.String())
	}
}

func TestRefreshAllEPGSourcesReturnsSources(t *testing.T) {
	sources := &fakeEPGSourceAPI{sources: []models.EPGSource{{ID: 1, Name: "guide", URL: "http://example.com/epg.xml"}}}
	cc := newTestContext(&models.APICollection{EPGSource: sources, EPGChannel: &fakeEPGChannelAPI{}})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	jsonRequest(c, "POST", "/api/epg/refresh", "")

	refreshAllEPGSources(cc, c)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got []models.EPGSource
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "guide" {
		t.Errorf("expected the configured source back, got %v", got)
	}
}
