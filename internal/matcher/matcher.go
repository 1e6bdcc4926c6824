// Package matcher decides which EPG channel, if any, each acestream channel
// should be linked to. It evaluates user-authored mapping rules first and
// falls back to string similarity scoring against a configurable threshold.
package matcher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidThreshold is returned when the similarity threshold falls outside [0, 1].
	ErrInvalidThreshold = errors.New("similarity threshold must be between 0 and 1")
	// ErrInvalidRule is returned when a mapping rule is neither an exclusion nor a direct mapping.
	ErrInvalidRule = errors.New("mapping rule must either be an exclusion or carry a target EPG channel id")
)

// Channel is a stream entry with a display name and optional EPG linkage.
type Channel struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	EPGID              *string `json:"epgId"`
	EPGUpdateProtected bool    `json:"epgUpdateProtected"`
}

// EPGChannel is a single channel from an XMLTV-like guide feed. Aliases hold
// any additional display names the feed advertised for it.
type EPGChannel struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
}

// MappingRule associates a name pattern with either a direct EPG channel id
// or an exclusion marker. Exactly one of the two applies.
type MappingRule struct {
	Pattern      string  `json:"pattern"`
	IsExclusion  bool    `json:"isExclusion"`
	EPGChannelID *string `json:"epgChannelId"`
}

// Validate checks the exclusion/direct-mapping invariant.
func (r MappingRule) Validate() error {
	if strings.TrimSpace(r.Pattern) == "" {
		return ErrInvalidRule
	}
	if r.IsExclusion == (r.EPGChannelID != nil) {
		return ErrInvalidRule
	}
	return nil
}

// Matches reports whether the rule's pattern is contained in the given
// channel name, case-insensitively.
func (r MappingRule) Matches(channelName string) bool {
	return strings.Contains(strings.ToLower(channelName), strings.ToLower(r.Pattern))
}

// MatchResult records a single assignment made during a matcher run.
type MatchResult struct {
	ChannelID    string  `json:"channelId"`
	EPGChannelID string  `json:"epgChannelId"`
	Score        float64 `json:"score"`
}

// Report summarizes a matcher run.
type Report struct {
	Results []MatchResult `json:"results"`
	Matched int           `json:"matched"`
	Cleaned int           `json:"cleaned"`
	Skipped int           `json:"skipped"`
}

// Options control a single matcher run.
type Options struct {
	// Threshold is the minimum acceptable similarity score in [0, 1].
	Threshold float64
	// RespectExisting skips channels that already have an EPG id assigned.
	RespectExisting bool
	// CleanUnmatched clears the EPG id of channels that found no acceptable match.
	CleanUnmatched bool
}

// ChannelStore lists the channels eligible for matching and persists EPG assignments.
type ChannelStore interface {
	ListChannels() ([]Channel, error)
	UpdateEPGID(channelID string, epgID *string) error
}

// EPGChannelStore lists the guide channels available as match targets.
type EPGChannelStore interface {
	ListEPGChannels() ([]EPGChannel, error)
}

// MappingRuleStore lists mapping rules in insertion order.
type MappingRuleStore interface {
	ListRules() ([]MappingRule, error)
}

// Engine runs the channel to EPG channel matching over the provided stores.
type Engine struct {
	channels ChannelStore
	epg      EPGChannelStore
	rules    MappingRuleStore
	log      *logrus.Logger
}

// NewEngine returns an initialized Engine.
func NewEngine(channels ChannelStore, epg EPGChannelStore, rules MappingRuleStore, log *logrus.Logger) *Engine {
	return &Engine{
		channels: channels,
		epg:      epg,
		rules:    rules,
		log:      log,
	}
}

// Run evaluates every eligible channel once and persists the resulting EPG
// assignments. Configuration level failures (bad threshold, malformed rule)
// abort the run before any mutation; failures updating a single channel are
// logged, counted as skipped and the run continues.
func (e *Engine) Run(opts Options) (*Report, error) {
	if opts.Threshold < 0 || opts.Threshold > 1 {
		return nil, ErrInvalidThreshold
	}

	rules, rulesErr := e.rules.ListRules()
	if rulesErr != nil {
		return nil, fmt.Errorf("error listing mapping rules: %s", rulesErr)
	}

	for _, rule := range rules {
		if validateErr := rule.Validate(); validateErr != nil {
			return nil, validateErr
		}
	}

	epgChannels, epgErr := e.epg.ListEPGChannels()
	if epgErr != nil {
		return nil, fmt.Errorf("error listing EPG channels: %s", epgErr)
	}

	channels, channelsErr := e.channels.ListChannels()
	if channelsErr != nil {
		return nil, fmt.Errorf("error listing channels: %s", channelsErr)
	}

	report := &Report{Results: make([]MatchResult, 0)}

	for _, channel := range channels {
		if channel.EPGUpdateProtected {
			report.Skipped++
			continue
		}

		if opts.RespectExisting && channel.EPGID != nil {
			report.Skipped++
			continue
		}

		rule, hasRule := firstMatchingRule(rules, channel.Name)

		if hasRule && !rule.IsExclusion {
			if updateErr := e.channels.UpdateEPGID(channel.ID, rule.EPGChannelID); updateErr != nil {
				e.log.WithError(updateErr).Errorf("unable to assign EPG id %s to channel %s", *rule.EPGChannelID, channel.ID)
				report.Skipped++
				continue
			}
			report.Matched++
			report.Results = append(report.Results, MatchResult{
				ChannelID:    channel.ID,
				EPGChannelID: *rule.EPGChannelID,
				Score:        1,
			})
			continue
		}

		bestIndex := -1
		bestScore := 0.0

		if !hasRule {
			for i, epgChannel := range epgChannels {
				if score := epgChannelScore(channel.Name, epgChannel); score > bestScore {
					bestScore = score
					bestIndex = i
				}
			}
		}

		if bestIndex >= 0 && bestScore >= opts.Threshold {
			epgID := epgChannels[bestIndex].ID
			if updateErr := e.channels.UpdateEPGID(channel.ID, &epgID); updateErr != nil {
				e.log.WithError(updateErr).Errorf("unable to assign EPG id %s to channel %s", epgID, channel.ID)
				report.Skipped++
				continue
			}
			e.log.Debugf("matched channel %s (%s) to EPG channel %s with score %.2f", channel.ID, channel.Name, epgID, bestScore)
			report.Matched++
			report.Results = append(report.Results, MatchResult{
				ChannelID:    channel.ID,
				EPGChannelID: epgID,
				Score:        bestScore,
			})
			continue
		}

		if opts.CleanUnmatched && channel.EPGID != nil {
			if updateErr := e.channels.UpdateEPGID(channel.ID, nil); updateErr != nil {
				e.log.WithError(updateErr).Errorf("unable to clear EPG id of channel %s", channel.ID)
				report.Skipped++
				continue
			}
			report.Cleaned++
		}
	}

	return report, nil
}

// firstMatchingRule returns the first rule, in insertion order, whose pattern
// is contained in the channel name.
func firstMatchingRule(rules []MappingRule, channelName string) (MappingRule, bool) {
	for _, rule := range rules {
		if rule.Matches(channelName) {
			return rule, true
		}
	}
	return MappingRule{}, false
}

// epgChannelScore returns the best similarity between the channel name and
// the EPG channel's name or any of its aliases.
func epgChannelScore(channelName string, epgChannel EPGChannel) float64 {
	best := Similarity(channelName, epgChannel.Name)
	for _, alias := range epgChannel.Aliases {
		if score := Similarity(channelName, alias); score > best {
			best = score
		}
	}
	return best
}

// DefaultPreviewLimit caps preview results when the caller does not provide a limit.
const DefaultPreviewLimit = 10

// Preview returns the first limit channels whose name contains the pattern,
// case-insensitively, preserving input order. It exists so an operator can
// try out a mapping rule pattern before saving it.
func Preview(pattern string, channels []Channel, limit int) []Channel {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}

	folded := strings.ToLower(pattern)
	matches := make([]Channel, 0, limit)

	for _, channel := range channels {
		if strings.Contains(strings.ToLower(channel.Name), folded) {
			matches = append(matches, channel)
			if len(matches) == limit {
				break
			}
		}
	}

	return matches
}
