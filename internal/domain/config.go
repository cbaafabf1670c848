package domain

import "time"

// WallConfig is the validated configuration for one fetch cycle. It is
// produced by the config package and treated as immutable by the pipeline.
type WallConfig struct {
	Servers  []string
	Tags     []string
	Accounts []string

	// Limit is the per-request result limit, 1..100.
	Limit int

	// Interval is the pause between refresh cycles in watch mode.
	Interval time.Duration

	LoadPublic    bool
	LoadFederated bool
	LoadTrends    bool

	// Languages is an allow-list. Empty means every language is accepted.
	Languages []string
	BadWords  []string

	HideSensitive bool
	HideBoosts    bool
	HideReplies   bool
	HideBots      bool

	ShowText   bool
	ShowMedia  bool
	PlayVideos bool
}
