package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"portfolio-chat/internal/config"
	"portfolio-chat/internal/content"
	"portfolio-chat/internal/usecase/chat"
)

const chunkSize = 2048

type Bot struct {
	api       *tgbotapi.BotAPI
	cfg       config.Config
	chat      *chat.Service
	portfolio content.Portfolio
	log       *slog.Logger
}

func NewBot(cfg config.Config, chatSvc *chat.Service, portfolio content.Portfolio, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Bot{
		api:       api,
		cfg:       cfg,
		chat:      chatSvc,
		portfolio: portfolio,
		log:       logger.With("component", "telegram", "bot", api.Self.UserName),
	}, nil
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()
	b.log.Info("telegram bot polling")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			msg := update.Message
			if msg.From == nil {
				continue
			}
			go b.handleMessage(ctx, msg)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !isAllowedUser(msg.From.ID, b.cfg) {
		b.sendText(msg.Chat.ID, msg.MessageID, "access denied")
		return
	}

	b.sendChatAction(msg.Chat.ID)
	b.sendText(msg.Chat.ID, msg.MessageID, b.respond(ctx, msg.Chat.ID, msg.Text))
}

// respond maps one incoming text to the reply text. Commands are answered
// from the portfolio; anything else goes to the assistant.
func (b *Bot) respond(ctx context.Context, chatID int64, text string) string {
	id := sessionID(chatID)

	switch command(text) {
	case "start":
		turns := b.chat.History(id)
		return turns[0].Content
	case "projects":
		return formatProjects(b.portfolio.Projects)
	case "faq":
		return formatFAQ(b.portfolio.FAQ)
	case "reset":
		b.chat.Reset(id)
		return b.chat.History(id)[0].Content
	}

	reply, err := b.chat.HandleMessage(ctx, id, text)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			return "i need some text to work with"
		}
		b.log.Error("chat failed", "chat_id", chatID, "error", err)
		return "Error: " + err.Error()
	}
	return reply
}

func (b *Bot) sendText(chatID int64, replyTo int, text string) {
	chunks := splitText(text, chunkSize)
	for idx, chunk := range chunks {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if idx == 0 {
			msg.ReplyToMessageID = replyTo
		}
		if _, err := b.api.Send(msg); err != nil {
			b.log.Error("failed to send reply", "chat_id", chatID, "error", err)
		}
	}
}

func (b *Bot) sendChatAction(chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.log.Warn("failed to send chat action", "chat_id", chatID, "error", err)
	}
}

func sessionID(chatID int64) string {
	return fmt.Sprintf("telegram:%d", chatID)
}

// command returns the bot command in text without the leading slash or
// @botname suffix, or "" if text is not a command.
func command(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name, _, _ := strings.Cut(text[1:], " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name)
}

func formatProjects(projects []content.Project) string {
	if len(projects) == 0 {
		return "No projects yet."
	}
	var sb strings.Builder
	for i, p := range projects {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(p.Name)
		if p.Description != "" {
			sb.WriteString("\n" + p.Description)
		}
		if p.Link != "" {
			sb.WriteString("\n" + p.Link)
		}
	}
	return sb.String()
}

func formatFAQ(faq []content.FAQ) string {
	if len(faq) == 0 {
		return "No questions yet."
	}
	var sb strings.Builder
	for i, f := range faq {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("Q: " + f.Question + "\nA: " + f.Answer)
	}
	return sb.String()
}

func isAllowedUser(userID int64, cfg config.Config) bool {
	for _, id := range cfg.AdminUserIDs {
		if id == userID {
			return true
		}
	}

	if len(cfg.AllowedUserIDs) == 0 {
		return true
	}

	for _, id := range cfg.AllowedUserIDs {
		if id == userID {
			return true
		}
	}

	return false
}

func splitText(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		return []string{text}
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/chunkSize+1)
	for start := 0; start < len(runes); start += chunkSize {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks
}
