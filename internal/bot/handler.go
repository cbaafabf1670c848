package bot

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"fediwall/internal/domain"
	"fediwall/internal/pipeline"
)

// PostFetcher runs a fetch cycle.
type PostFetcher interface {
	FetchPosts(ctx context.Context, cfg domain.WallConfig, onProgress pipeline.ProgressFunc) []domain.Post
}

// Handler holds dependencies for the Telegram bot handlers.
type Handler struct {
	bot      *tgbot.Bot
	wall     domain.WallConfig
	fetcher  PostFetcher
	maxPosts int
	log      logrus.FieldLogger
}

// NewHandler creates a new bot handler instance.
func NewHandler(token string, wall domain.WallConfig, fetcher PostFetcher, maxPosts int, logger logrus.FieldLogger) (*Handler, error) {
	log := logger.WithField("component", "bot_handler")

	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}

	b, err := tgbot.New(token)
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	h := &Handler{
		bot:      b,
		wall:     wall,
		fetcher:  fetcher,
		maxPosts: maxPosts,
		log:      log,
	}
	h.registerHandlers()

	log.Info("Telegram bot handler initialized")
	return h, nil
}

func (h *Handler) registerHandlers() {
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, h.startHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/wall", tgbot.MatchTypePrefix, h.wallHandler)
	h.log.Info("Registered /start and /wall command handlers")
}

// Start begins polling for updates from Telegram.
// This function blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

func (h *Handler) startHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	log := h.log.WithField("chat_id", update.Message.Chat.ID)
	log.Info("Received /start command")

	welcome := fmt.Sprintf("Welcome to fediwall! Send /wall to get the %d newest posts for %s.",
		h.maxPosts, describeWall(h.wall))
	if _, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   welcome,
	}); err != nil {
		log.WithError(err).Error("Failed to send welcome message")
	}
}

func (h *Handler) wallHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	log := h.log.WithField("chat_id", update.Message.Chat.ID)
	log.Info("Received /wall command")

	if _, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   h.wallReply(ctx),
	}); err != nil {
		log.WithError(err).Error("Failed to send wall")
	}
}

// wallReply runs one fetch cycle and renders the answer.
func (h *Handler) wallReply(ctx context.Context) string {
	var failed int
	posts := h.fetcher.FetchPosts(ctx, h.wall, func(p pipeline.Progress) {
		failed = len(p.Errors)
	})
	return FormatPosts(posts, h.maxPosts, failed)
}

// FormatPosts renders up to limit posts as a plain text message, newest
// collected first. failed is the number of tasks that could not be run.
func FormatPosts(posts []domain.Post, limit, failed int) string {
	var sb strings.Builder
	if len(posts) == 0 {
		sb.WriteString("No posts found.")
	}
	for i, p := range posts {
		if i == limit {
			break
		}
		if i > 0 {
			sb.WriteString("\n\n")
		}
		author := "unknown"
		if p.Author != nil && p.Author.Profile != "" {
			author = "@" + p.Author.Profile
		}
		fmt.Fprintf(&sb, "%d. %s, %s\n%s", i+1, author, p.Date.UTC().Format("2006-01-02 15:04"), p.URL)
	}
	if failed > 0 {
		fmt.Fprintf(&sb, "\n\n(%d of the requests failed)", failed)
	}
	return sb.String()
}

func describeWall(cfg domain.WallConfig) string {
	var parts []string
	for _, t := range cfg.Tags {
		parts = append(parts, "#"+t)
	}
	for _, a := range cfg.Accounts {
		parts = append(parts, "@"+a)
	}
	if cfg.LoadTrends {
		parts = append(parts, "trending posts")
	}
	if cfg.LoadPublic || cfg.LoadFederated {
		parts = append(parts, "public timelines")
	}
	if len(parts) == 0 {
		return strings.Join(cfg.Servers, ", ")
	}
	return strings.Join(parts, " ") + " on " + strings.Join(cfg.Servers, ", ")
}
