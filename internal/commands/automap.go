package commands

import (
	"sync"

	"github.com/acetv/aceguide/internal/context"
	"github.com/acetv/aceguide/internal/matcher"
	"github.com/acetv/aceguide/internal/metrics"
	"github.com/acetv/aceguide/internal/models"
)

// automapMu serializes matcher runs. Re-running concurrently over mutating
// channel or EPG data is undefined, so the whole run happens under one lock.
var automapMu sync.Mutex

// RunAutoMap executes a single auto-mapping run over the active channels.
func RunAutoMap(cc *context.CContext, opts matcher.Options) (*matcher.Report, error) {
	automapMu.Lock()
	defer automapMu.Unlock()

	engine := matcher.NewEngine(
		&channelStore{api: cc.API},
		&epgChannelStore{api: cc.API},
		&mappingRuleStore{api: cc.API},
		cc.Log,
	)

	report, runErr := engine.Run(opts)
	if runErr != nil {
		return nil, runErr
	}

	metrics.MatcherRuns.Inc()
	metrics.MatcherAssignments.WithLabelValues("matched").Set(float64(report.Matched))
	metrics.MatcherAssignments.WithLabelValues("cleaned").Set(float64(report.Cleaned))
	metrics.MatcherAssignments.WithLabelValues("skipped").Set(float64(report.Skipped))

	cc.Log.Infof("auto-map run complete: %d matched, %d cleaned, %d skipped", report.Matched, report.Cleaned, report.Skipped)

	return report, nil
}

// channelStore adapts the persistence layer to the matcher's view of a channel.
type channelStore struct {
	api *models.APICollection
}

func (s *channelStore) ListChannels() ([]matcher.Channel, error) {
	channels, channelsErr := s.api.Channel.GetActiveChannels()
	if channelsErr != nil {
		return nil, channelsErr
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
	return matcherChannels, nil
}

func (s *channelStore) UpdateEPGID(channelID string, epgID *string) error {
	return s.api.Channel.UpdateChannelEPGID(channelID, epgID)
}

type epgChannelStore struct {
	api *models.APICollection
}

func (s *epgChannelStore) ListEPGChannels() ([]matcher.EPGChannel, error) {
	channels, channelsErr := s.api.EPGChannel.GetAllEPGChannels()
	if channelsErr != nil {
		return nil, channelsErr
	}

	matcherChannels := make([]matcher.EPGChannel, 0, len(channels))
	for _, channel := range channels {
		matcherChannels = append(matcherChannels, matcher.EPGChannel{
			ID:      channel.XMLTVID,
			Name:    channel.Name,
			Aliases: channel.Aliases,
		})
	}
	return matcherChannels, nil
}

type mappingRuleStore struct {
	api *models.APICollection
}

func (s *mappingRuleStore) ListRules() ([]matcher.MappingRule, error) {
	rules, rulesErr := s.api.MappingRule.GetAllMappingRules()
	if rulesErr != nil {
		return nil, rulesErr
	}

	matcherRules := make([]matcher.MappingRule, 0, len(rules))
	for _, rule := range rules {
		matcherRules = append(matcherRules, matcher.MappingRule{
			Pattern:      rule.Pattern,
			IsExclusion:  rule.IsExclusion,
			EPGChannelID: rule.EPGChannelID,
		})
	}
	return matcherRules, nil
}
