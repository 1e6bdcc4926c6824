package commands

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/acetv/aceguide/internal/context"
	"github.com/acetv/aceguide/internal/models"
)

var testLog = &logrus.Logger{
	Out:       os.Stderr,
	Formatter: &logrus.TextFormatter{},
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.PanicLevel,
}

const (
	liveChannelID  = "b624ba39f9d496a5fcdb4e2be64e05add33bd3b1"
	newerChannelID = "c735cb40a0e507b60dec5f3cf75f16be44ce4c2a"
	deadChannelID  = "d846dc51b1f618c71ef06a4da86a27cf55df5d3b"
)

type recordedStatus struct {
	isOnline   bool
	checkError *string
}

type statusChannelAPI struct {
	mu       sync.Mutex
	channels []models.Channel
	statuses map[string]recordedStatus
}

func (s *statusChannelAPI) UpsertChannel(channel models.Channel) (*models.Channel, error) {
	return &channel, nil
}

func (s *statusChannelAPI) GetAllChannels() ([]models.Channel, error) {
	return s.channels, nil
}

func (s *statusChannelAPI) GetActiveChannels() ([]models.Channel, error) {
	return s.channels, nil
}

func (s *statusChannelAPI) GetChannelByID(id string) (*models.Channel, error) {
	for i := range s.channels {
		if s.channels[i].ID == id {
			return &s.channels[i], nil
		}
	}
	return nil, fmt.Errorf("no channel %s", id)
}

func (s *statusChannelAPI) GetChannelsForScrapedURL(scrapedURLID int) ([]models.Channel, error) {
	return nil, nil
}

func (s *statusChannelAPI) SearchChannels(term string) ([]models.Channel, error) {
	return nil, nil
}

func (s *statusChannelAPI) UpdateChannelEPGID(id string, epgID *string) error {
	return nil
}

func (s *statusChannelAPI) SetChannelProtected(id string, protected bool) error {
	return nil
}

func (s *statusChannelAPI) UpdateChannelStatus(id string, isOnline bool, checkError *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[id] = recordedStatus{isOnline: isOnline, checkError: checkError}
	return nil
}

func (s *statusChannelAPI) DeleteChannel(id string) error {
	return nil
}

func (s *statusChannelAPI) DeleteChannelsForScrapedURL(scrapedURLID int, keepIDs []string) error {
	return nil
}

func fakeEngine() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id") {
		case liveChannelID:
			fmt.Fprint(w, `{"response": {"is_live": 1}, "error": null}`)
		case newerChannelID:
			fmt.Fprint(w, `{"response": null, "error": "Got newer download"}`)
		default:
			fmt.Fprint(w, `{"response": {"is_live": 0}, "error": null}`)
		}
	}))
}

func TestFireStatusChecksRecordsEngineResults(t *testing.T) {
	engine := fakeEngine()
	defer engine.Close()

	viper.Set("playlist.base-url", engine.URL)
	viper.Set("status.check-timeout", 2*time.Second)
	defer viper.Set("playlist.base-url", "")

	api := &statusChannelAPI{
		channels: []models.Channel{
			{ID: liveChannelID, Name: "Live One"},
			{ID: newerChannelID, Name: "Newer One"},
			{ID: deadChannelID, Name: "Dead One"},
		},
		statuses: make(map[string]recordedStatus),
	}

	cc := &context.CContext{
		API: &models.APICollection{Channel: api},
		Log: testLog,
	}

	if err := FireStatusChecks(cc); err != nil {
		t.Fatal(err)
	}

	if len(api.statuses) != 3 {
		t.Fatalf("expected 3 recorded statuses, got %d", len(api.statuses))
	}

	live := api.statuses[liveChannelID]
	if !live.isOnline || live.checkError != nil {
		t.Errorf("expected live channel online with no error, got online=%v error=%v", live.isOnline, live.checkError)
	}

	newer := api.statuses[newerChannelID]
	if !newer.isOnline {
		t.Error("expected channel with newer download notice to count as online")
	}

	dead := api.statuses[deadChannelID]
	if dead.isOnline {
		t.Error("expected non-live channel to be offline")
	}
	if dead.checkError == nil || *dead.checkError != "channel is not live" {
		t.Errorf("expected not-live error recorded, got %v", dead.checkError)
	}
}

func TestFireStatusChecksSkipsWithoutEngineURL(t *testing.T) {
	viper.Set("playlist.base-url", "")

	api := &statusChannelAPI{
		channels: []models.Channel{{ID: liveChannelID, Name: "Live One"}},
		statuses: make(map[string]recordedStatus),
	}

	cc := &context.CContext{
		API: &models.APICollection{Channel: api},
		Log: testLog,
	}

	if err := FireStatusChecks(cc); err != nil {
		t.Fatal(err)
	}

	if len(api.statuses) != 0 {
		t.Errorf("expected no status probes without an engine URL, got %d", len(api.statuses))
	}
}
