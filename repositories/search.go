//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_repository.go -package=mocks
package repositories

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"chat-room/domain"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

type ISearchRepository interface {
	Index(message domain.ChatMessage) error
	Search(ctx context.Context, query string, limit int) ([]domain.ChatMessage, error)
}

// SearchRepository maintains a Bluge full-text index over the archived
// messages. Like the disk archive, it is a side-effect target: indexing
// failures are logged and never reach the sender.
type SearchRepository struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchRepository(path string, log *slog.Logger) (*SearchRepository, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	return &SearchRepository{writer: writer, log: log}, nil
}

func (r *SearchRepository) Index(message domain.ChatMessage) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField("username", message.Username).StoreValue()).
		AddField(bluge.NewTextField("content", message.Content).StoreValue()).
		AddField(bluge.NewStoredOnlyField("at", []byte(strconv.FormatInt(message.SentAt.UnixNano(), 10))))
	return r.writer.Update(doc.ID(), doc)
}

// Search runs a match query over message contents, newest index order
// is not guaranteed; relevance ranking decides.
func (r *SearchRepository) Search(ctx context.Context, query string, limit int) ([]domain.ChatMessage, error) {
	reader, err := r.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			r.log.Error("closing index reader", "err", err)
		}
	}()

	q := bluge.NewMatchQuery(query).SetField("content")
	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var messages []domain.ChatMessage
	match, err := iterator.Next()
	for err == nil && match != nil {
		var msg domain.ChatMessage
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					msg.ID = id
				}
			case "username":
				msg.Username = string(value)
			case "content":
				msg.Content = string(value)
			case "at":
				if ns, parseErr := strconv.ParseInt(string(value), 10, 64); parseErr == nil {
					msg.SentAt = time.Unix(0, ns).UTC()
				}
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		messages = append(messages, msg)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *SearchRepository) Close() error {
	return r.writer.Close()
}
