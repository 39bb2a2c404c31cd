//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"time"

	"chat-room/domain"
	"chat-room/errors"
	"chat-room/repositories"
	"chat-room/runtime"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

type loginRequest struct {
	Username string `validate:"required,min=1,max=32"`
}

type IChatService interface {
	Login(username string) error
	Logout(username string)
	Online() []string
	History() []domain.ChatMessage
	Archive(ctx context.Context, inbound []domain.Inbound) (int, error)
	Chat(stream runtime.Stream, username string) error
	Search(ctx context.Context, query string, limit int) ([]domain.ChatMessage, error)
}

// ChatService is the facade the transport layer talks to. It owns no
// state itself; everything lives in the runtime and the repositories.
type ChatService struct {
	presence  *runtime.Presence
	ring      *runtime.MessageRing
	lifecycle *runtime.Lifecycle
	archive   repositories.IMessageRepository
	index     repositories.ISearchRepository
}

func NewChatService(presence *runtime.Presence, ring *runtime.MessageRing,
	lifecycle *runtime.Lifecycle, archive repositories.IMessageRepository,
	index repositories.ISearchRepository) *ChatService {
	return &ChatService{
		presence:  presence,
		ring:      ring,
		lifecycle: lifecycle,
		archive:   archive,
		index:     index,
	}
}

// Login validates the username and marks it online. A username already
// online is rejected; the caller decides how to surface that.
func (s *ChatService) Login(username string) error {
	if err := validate.Struct(loginRequest{Username: username}); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidUsername, err)
	}
	if s.presence.IsOnline(username) {
		return errors.ErrLoginRejected
	}
	s.presence.MarkOnline(username)
	return nil
}

func (s *ChatService) Logout(username string) {
	s.presence.MarkOffline(username)
}

// Online returns a point-in-time view of the online usernames.
func (s *ChatService) Online() []string {
	return s.presence.Online()
}

// History returns a point-in-time snapshot of the recent-message ring.
func (s *ChatService) History() []domain.ChatMessage {
	return s.ring.Snapshot()
}

// Archive timestamps a batch of submissions, appends them to the ring
// and persists them (disk + index). No live fan-out happens here.
func (s *ChatService) Archive(ctx context.Context, inbound []domain.Inbound) (int, error) {
	stored := 0
	for _, in := range inbound {
		msg := domain.ChatMessage{
			ID:       uuid.New(),
			Username: in.Username,
			Content:  in.Content,
			SentAt:   time.Now().UTC(),
		}
		s.ring.Append(msg)
		if err := s.archive.StoreMessage(msg); err != nil {
			return stored, fmt.Errorf("archiving message %d: %w", stored, err)
		}
		if err := s.index.Index(msg); err != nil {
			return stored, fmt.Errorf("indexing message %d: %w", stored, err)
		}
		stored++
	}
	return stored, nil
}

// Chat hands the connection to the lifecycle manager and blocks until
// it is closed.
func (s *ChatService) Chat(stream runtime.Stream, username string) error {
	return s.lifecycle.Run(stream, username)
}

func (s *ChatService) Search(ctx context.Context, query string, limit int) ([]domain.ChatMessage, error) {
	return s.index.Search(ctx, query, limit)
}
