package messaging

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/resend/resend-go/v2"
)

// Envelope is one outbound message.
type Envelope struct {
	To      string // Email address
	ChatID  int64  // Telegram chat
	Subject string
	Content string
}

// Sender delivers messages on one channel.
type Sender interface {
	Send(ctx context.Context, env Envelope) error
}

// ResendSender delivers email through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a ResendSender sending from the given address.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) Send(ctx context.Context, env Envelope) error {
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{env.To},
		Subject: env.Subject,
		Text:    env.Content,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

// TelegramSender delivers Markdown messages through the Telegram Bot API.
// The bot is created on first use, since creating it calls the API.
type TelegramSender struct {
	token    string
	endpoint string
	client   *http.Client

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// NewTelegramSender creates a TelegramSender for the bot token.
func NewTelegramSender(token string, client *http.Client) *TelegramSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &TelegramSender{token: token, endpoint: tgbotapi.APIEndpoint, client: client}
}

func (s *TelegramSender) botAPI() (*tgbotapi.BotAPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bot != nil {
		return s.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(s.token, s.endpoint, s.client)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	s.bot = bot
	return bot, nil
}

// Send posts the message. The bot API takes no context; ctx only gates the
// call.
func (s *TelegramSender) Send(ctx context.Context, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bot, err := s.botAPI()
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(env.ChatID, TelegramText(env.Subject, env.Content))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	return nil
}
