package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tasukuchiba/duo_chat_app/internal/models"
	"github.com/tasukuchiba/duo_chat_app/internal/storage"
)

var (
	ErrInvalidUser  = errors.New("user must be A or B")
	ErrUnauthorized = errors.New("user is not logged in")
	ErrEmptyText    = errors.New("text is required")
	ErrStore        = errors.New("message store failure")
)

// Notifier receives messages after they are persisted.
type Notifier interface {
	Publish(msgs ...models.Message)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	ActiveUser string `json:"active_user"`
	Message    string `json:"message"`
}

// LogoutResult is returned by logout. ActiveUser is always nil.
type LogoutResult struct {
	ActiveUser *string `json:"active_user"`
	Message    string  `json:"message"`
}

// Exchange pairs a user message with the bot reply it triggered.
type Exchange struct {
	UserMessage models.Message `json:"user_message"`
	BotMessage  models.Message `json:"bot_message"`
}

// Option customizes a Service.
type Option func(*Service)

// WithNotifier publishes every persisted exchange to n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock replaces the wall clock used to stamp messages.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.clock = newClock(now) }
}

// Service runs login, logout, send and list on top of a message store.
// It holds no session state; callers pass the session's active user in.
type Service struct {
	store    storage.Storage
	notifier Notifier
	logger   *slog.Logger
	clock    *clock
}

// NewService wires a Service to its store.
func NewService(store storage.Storage, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		clock:  newClock(time.Now),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login validates the candidate identity. The caller stores it in the
// session only when err is nil.
func (s *Service) Login(ctx context.Context, candidate string) (LoginResult, error) {
	if !models.IsValidUser(candidate) {
		s.logger.InfoContext(ctx, "login rejected", "candidate", candidate)
		return LoginResult{}, ErrInvalidUser
	}

	s.logger.InfoContext(ctx, "user logged in", "user", candidate)
	return LoginResult{
		ActiveUser: candidate,
		Message:    "Logged in as " + candidate,
	}, nil
}

// Logout always succeeds, logged in or not.
func (s *Service) Logout(ctx context.Context) LogoutResult {
	s.logger.DebugContext(ctx, "user logged out")
	return LogoutResult{Message: "Logged out"}
}

// Send persists the user's message and then the bot reply addressed to
// that user. The reply is never written if the first insert fails.
func (s *Service) Send(ctx context.Context, activeUser, text string) (Exchange, error) {
	if !models.IsValidUser(activeUser) {
		return Exchange{}, ErrUnauthorized
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Exchange{}, ErrEmptyText
	}

	userMsg := models.NewUserMessage(activeUser, trimmed)
	userMsg.ID = uuid.NewString()
	userMsg.CreatedAt = s.clock.Next()
	if err := s.store.Save(userMsg); err != nil {
		s.logger.ErrorContext(ctx, "failed to save user message", "user", activeUser, "error", err)
		return Exchange{}, fmt.Errorf("%w: save user message: %w", ErrStore, err)
	}

	botMsg := models.NewBotMessage(activeUser, BotReply(activeUser))
	botMsg.ID = uuid.NewString()
	botMsg.CreatedAt = s.clock.Next()
	if err := s.store.Save(botMsg); err != nil {
		s.logger.ErrorContext(ctx, "failed to save bot reply", "user", activeUser, "message_id", userMsg.ID, "error", err)
		return Exchange{}, fmt.Errorf("%w: save bot reply: %w", ErrStore, err)
	}

	s.logger.InfoContext(ctx, "message exchanged", "user", activeUser, "message_id", userMsg.ID, "reply_id", botMsg.ID)

	if s.notifier != nil {
		s.notifier.Publish(userMsg, botMsg)
	}

	return Exchange{UserMessage: userMsg, BotMessage: botMsg}, nil
}

// List returns the active user's messages and the bot replies addressed
// to them, oldest first.
func (s *Service) List(ctx context.Context, activeUser string) ([]models.Message, error) {
	if !models.IsValidUser(activeUser) {
		return nil, ErrUnauthorized
	}

	messages, err := s.store.ListBySenders(models.VisibleSenders(activeUser)...)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list messages", "user", activeUser, "error", err)
		return nil, fmt.Errorf("%w: list messages: %w", ErrStore, err)
	}

	visible := make([]models.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.VisibleTo(activeUser) {
			visible = append(visible, msg)
		}
	}
	return visible, nil
}

// BotReply is the canned acknowledgment sent after every user message.
func BotReply(user string) string {
	return "Obrigado por seu contato, " + models.DisplayName(user) + ". Em breve responderemos."
}
