// Package messaging sends templated email and Telegram messages to guests
// and logs every attempt.
package messaging

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/thefitz/companion/pkg/events"
	"github.com/thefitz/companion/pkg/masking"
	"github.com/thefitz/companion/pkg/metrics"
	"github.com/thefitz/companion/pkg/models"
	"github.com/thefitz/companion/pkg/services"
)

// GuestLookup resolves message recipients.
type GuestLookup interface {
	Get(ctx context.Context, id string) (*models.Guest, error)
}

// MessageLog stores delivery attempts.
type MessageLog interface {
	Record(ctx context.Context, msg *models.Message) (*models.Message, error)
	ListForGuest(ctx context.Context, guestID string) ([]*models.Message, error)
}

// Service sends guest messages. A channel without a Sender runs in demo
// mode: the message is logged as sent without leaving the process.
type Service struct {
	guests    GuestLookup
	log       MessageLog
	senders   map[string]Sender
	metrics   *metrics.JobMetrics
	publisher events.Publisher
	warnings  *services.SystemWarningsService
	masker    *masking.Service
	logger    *slog.Logger
}

// Options wires the optional collaborators of a Service.
type Options struct {
	Email     Sender
	Telegram  Sender
	Metrics   *metrics.JobMetrics
	Publisher events.Publisher
	Warnings  *services.SystemWarningsService
	// Masker redacts contact details and credentials from delivery errors.
	Masker *masking.Service
}

// NewService creates a Service.
func NewService(guests GuestLookup, log MessageLog, opts Options) *Service {
	s := &Service{
		guests:    guests,
		log:       log,
		senders:   make(map[string]Sender),
		metrics:   opts.Metrics,
		publisher: opts.Publisher,
		warnings:  opts.Warnings,
		masker:    opts.Masker,
		logger:    slog.Default().With("component", "messaging"),
	}
	if opts.Email != nil {
		s.senders[models.ChannelEmail] = opts.Email
	}
	if opts.Telegram != nil {
		s.senders[models.ChannelTelegram] = opts.Telegram
	}
	for _, channel := range []string{models.ChannelEmail, models.ChannelTelegram} {
		if s.DemoMode(channel) {
			s.warnings.Add(services.WarningCategoryMessaging, channel,
				"Guest messages on "+channel+" run in demo mode", "no provider credentials configured")
		}
	}
	return s
}

// DemoMode reports whether channel has no configured sender.
func (s *Service) DemoMode(channel string) bool {
	_, ok := s.senders[channel]
	return !ok
}

// Send delivers a message to a guest on the requested channel (email by
// default). A provider failure is not an error: the attempt is logged as
// failed and the provider message is returned in the result.
func (s *Service) Send(ctx context.Context, req models.SendMessageRequest) (*models.SendMessageResult, error) {
	channel := req.Channel
	if channel == "" {
		channel = models.ChannelEmail
	}
	if req.GuestID == "" {
		return nil, services.NewValidationError("guest_id", "required")
	}

	guest, err := s.guests.Get(ctx, req.GuestID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, err
		}
		return nil, services.NewRemoteError("load guest", err)
	}

	subject, content := Render(req.Template, guest.Name, guest.RoomNumber, req.Subject, req.Content)
	if strings.TrimSpace(content) == "" {
		return nil, services.NewValidationError("content", "required")
	}

	env := Envelope{Subject: subject, Content: content}
	switch channel {
	case models.ChannelEmail:
		if guest.ContactEmail == nil || *guest.ContactEmail == "" {
			return nil, services.NewValidationError("contact_email", "Guest has no email address")
		}
		env.To = *guest.ContactEmail
	case models.ChannelTelegram:
		if guest.TelegramChatID == nil || *guest.TelegramChatID == 0 {
			return nil, services.NewValidationError("telegram_chat_id", "Guest has no Telegram chat ID")
		}
		env.ChatID = *guest.TelegramChatID
	default:
		return nil, services.NewValidationError("channel", `Invalid channel. Use "email" or "telegram"`)
	}

	status := models.MessageStatusSent
	var sendErr *string
	if sender, ok := s.senders[channel]; ok {
		if err := sender.Send(ctx, env); err != nil {
			msg := s.masker.MaskError(err)
			s.logger.Error("Message delivery failed", "guest_id", guest.ID, "channel", channel, "error", msg)
			status = models.MessageStatusFailed
			sendErr = &msg
			s.warnings.Add(services.WarningCategoryMessaging, channel, "Guest message delivery failed", msg)
		} else {
			s.warnings.Clear(services.WarningCategoryMessaging, channel)
		}
	} else {
		s.logger.Info("Message would be sent (demo mode)",
			"guest_id", guest.ID, "channel", channel, "to", s.masker.Mask(env.To), "chat_id", env.ChatID, "subject", subject)
	}
	s.metrics.RecordMessage(channel, status)

	record := &models.Message{
		GuestID: guest.ID,
		Channel: channel,
		Content: content,
		Status:  status,
		Error:   sendErr,
	}
	if subject != "" {
		record.Subject = &subject
	}
	logged, err := s.log.Record(ctx, record)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, err
		}
		return nil, services.NewRemoteError("log message", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewChange(events.ResourceMessage, events.ActionCreated, logged.ID)); err != nil {
			s.logger.Warn("Failed to publish change", "resource", events.ResourceMessage, "error", err)
		}
	}
	return &models.SendMessageResult{Success: true, Message: logged, Error: sendErr}, nil
}

// History returns the messages sent to a guest, newest first.
func (s *Service) History(ctx context.Context, guestID string) ([]*models.Message, error) {
	return s.log.ListForGuest(ctx, guestID)
}
