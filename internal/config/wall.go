package config

import (
	"errors"
	"regexp"
	"slices"
	"strings"
	"time"

	"fediwall/internal/domain"
)

const (
	minLimit    = 1
	maxLimit    = 100
	minInterval = 1
	maxInterval = 600
)

var (
	tagPattern     = regexp.MustCompile(`(?i)^[a-z0-9]+$`)
	accountPattern = regexp.MustCompile(`(?i)^[a-z0-9._%+-]+(@[a-z0-9.-]+\.[a-z]{2,})?$`)
	invalidServer  = regexp.MustCompile(`[^a-z0-9.-]+`)
)

// ErrNoServers is returned when no usable server remains after sanitization.
var ErrNoServers = errors.New("at least one server is required")

// Wall turns the raw configuration into the validated record the pipeline
// consumes. Invalid tags and accounts are dropped, numbers are clamped.
func (c Config) Wall() (domain.WallConfig, error) {
	servers := sanitizeServers(c.Servers)
	if len(servers) == 0 {
		return domain.WallConfig{}, ErrNoServers
	}

	return domain.WallConfig{
		Servers:       servers,
		Tags:          sanitizeTags(c.Tags),
		Accounts:      sanitizeAccounts(c.Accounts),
		Limit:         clamp(c.Limit, minLimit, maxLimit),
		Interval:      time.Duration(clamp(c.Interval, minInterval, maxInterval)) * time.Second,
		LoadPublic:    c.LoadPublic,
		LoadFederated: c.LoadFederated,
		LoadTrends:    c.LoadTrends,
		Languages:     lowerAll(c.Languages),
		BadWords:      lowerAll(c.BadWords),
		HideSensitive: c.HideSensitive,
		HideBoosts:    c.HideBoosts,
		HideReplies:   c.HideReplies,
		HideBots:      c.HideBots,
		ShowText:      c.ShowText,
		ShowMedia:     c.ShowMedia,
		PlayVideos:    c.PlayVideos,
	}, nil
}

// sanitizeServers reduces each entry to a bare host name. Order is kept.
func sanitizeServers(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if _, rest, ok := strings.Cut(s, "://"); ok {
			s = rest
		}
		s, _, _ = strings.Cut(s, "/")
		s = invalidServer.ReplaceAllString(s, "")
		s = strings.Trim(s, ".-")
		if s == "" || slices.Contains(out, s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func sanitizeTags(in []string) []string {
	var out []string
	for _, t := range in {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if tagPattern.MatchString(t) {
			out = append(out, t)
		}
	}
	return sortedUnique(out)
}

func sanitizeAccounts(in []string) []string {
	var out []string
	for _, a := range in {
		a = strings.TrimPrefix(strings.TrimSpace(a), "@")
		if accountPattern.MatchString(a) {
			out = append(out, a)
		}
	}
	return sortedUnique(out)
}

func lowerAll(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func sortedUnique(in []string) []string {
	slices.Sort(in)
	return slices.Compact(in)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
