package pipeline

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"fediwall/internal/domain"
)

// TaskKind identifies which remote resource a task reads.
type TaskKind string

const (
	KindHashtag TaskKind = "hashtag"
	KindAccount TaskKind = "account"
	KindTrends  TaskKind = "trends"
	KindPublic  TaskKind = "public"
)

// Task is one fetch against one server. It is a plain value: the Executor
// knows how to run it, and the Scheduler runs it exactly once.
type Task struct {
	Kind   TaskKind   `json:"kind"`
	Domain string     `json:"domain"`
	Path   string     `json:"path"`
	Query  url.Values `json:"query,omitempty"`

	// User is the local part of the handle for account tasks. Path then holds
	// a "%s" placeholder for the resolved account id.
	User string `json:"user,omitempty"`

	// SkipBotAccounts drops account tasks whose account turns out to be a bot.
	SkipBotAccounts bool `json:"skip_bot_accounts,omitempty"`
}

func (t Task) String() string {
	if t.Kind == KindAccount {
		return fmt.Sprintf("%s %s@%s", t.Kind, t.User, t.Domain)
	}
	return fmt.Sprintf("%s %s/%s", t.Kind, t.Domain, t.Path)
}

// Plan is the full task list of a fetch cycle, grouped by domain.
type Plan struct {
	// Domains lists every domain with tasks, in first-seen order.
	Domains []string
	Tasks   map[string][]Task
}

// Total returns the number of tasks across all domains.
func (p Plan) Total() int {
	n := 0
	for _, tasks := range p.Tasks {
		n += len(tasks)
	}
	return n
}

func (p *Plan) add(t Task) {
	if p.Tasks == nil {
		p.Tasks = map[string][]Task{}
	}
	if _, ok := p.Tasks[t.Domain]; !ok {
		p.Domains = append(p.Domains, t.Domain)
	}
	p.Tasks[t.Domain] = append(p.Tasks[t.Domain], t)
}

const (
	tagTimelinePath    = "api/v1/timelines/tag/%s"
	accountStatusPath  = "api/v1/accounts/%s/statuses"
	trendsPath         = "api/v1/trends/statuses"
	publicTimelinePath = "api/v1/timelines/public"
)

// PlanTasks enumerates every fetch needed for cfg. Within each category the
// order is server-major, item-minor, so plans are deterministic.
func PlanTasks(cfg domain.WallConfig) Plan {
	var plan Plan

	for _, server := range cfg.Servers {
		for _, tag := range cfg.Tags {
			q := baseQuery(cfg)
			for _, w := range cfg.BadWords {
				q.Add("none[]", w)
			}
			plan.add(Task{
				Kind:   KindHashtag,
				Domain: server,
				Path:   fmt.Sprintf(tagTimelinePath, url.PathEscape(tag)),
				Query:  q,
			})
		}
	}

	for _, account := range cfg.Accounts {
		user, home, _ := strings.Cut(account, "@")
		servers := cfg.Servers
		if home != "" {
			servers = []string{home}
		}
		for _, server := range servers {
			q := baseQuery(cfg)
			if cfg.HideReplies {
				q.Set("exclude_replies", "true")
			}
			if cfg.HideBoosts {
				q.Set("exclude_reblogs", "true")
			}
			plan.add(Task{
				Kind:            KindAccount,
				Domain:          server,
				Path:            accountStatusPath,
				Query:           q,
				User:            user,
				SkipBotAccounts: cfg.HideBots && cfg.HideBoosts,
			})
		}
	}

	if cfg.LoadTrends {
		for _, server := range cfg.Servers {
			plan.add(Task{Kind: KindTrends, Domain: server, Path: trendsPath, Query: baseQuery(cfg)})
		}
	}

	if cfg.LoadPublic || cfg.LoadFederated {
		for _, server := range cfg.Servers {
			q := baseQuery(cfg)
			if !cfg.LoadPublic {
				q.Set("remote", "true")
			}
			if !cfg.LoadFederated {
				q.Set("local", "true")
			}
			plan.add(Task{Kind: KindPublic, Domain: server, Path: publicTimelinePath, Query: q})
		}
	}

	return plan
}

// baseQuery holds the parameters every task sends. only_media is a server
// side hint; the content filter re-checks it.
func baseQuery(cfg domain.WallConfig) url.Values {
	q := url.Values{"limit": {strconv.Itoa(cfg.Limit)}}
	if !cfg.ShowText {
		q.Set("only_media", "true")
	}
	return q
}
