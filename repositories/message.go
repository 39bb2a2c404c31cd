//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"time"

	"chat-room/domain"
	pb "chat-room/proto/storage"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"google.golang.org/protobuf/proto"
)

type IMessageRepository interface {
	StoreMessage(message domain.ChatMessage) error
	RecentMessages(limit int) ([]domain.ChatMessage, error)
}

// MessageRepository archives every message in BadgerDB.
// The room never depends on it: a failed write costs durability only.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (m MessageRepository) StoreMessage(message domain.ChatMessage) error {
	key := fmt.Sprintf("msg:%019d:%s",
		message.SentAt.UnixNano(),
		message.ID,
	)
	bytes, err := proto.Marshal(lo.ToPtr(fromChatMessage(message)))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// RecentMessages retrieves the newest messages using a reverse prefix scan.
// Thanks to the padded timestamp in the key, messages are naturally sorted by
// time; the result is returned newest first.
func (m MessageRepository) RecentMessages(limit int) ([]domain.ChatMessage, error) {
	var byteMessages [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:")
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(byteMessages) == limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", limit))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var messages []domain.ChatMessage
	for _, b := range byteMessages {
		var messagePb pb.Message
		if err = proto.Unmarshal(b, &messagePb); err != nil {
			return nil, err
		}
		message, err := toChatMessage(&messagePb)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func fromChatMessage(message domain.ChatMessage) pb.Message {
	return pb.Message{
		Id:      message.ID.String(),
		Author:  message.Username,
		Content: message.Content,
		At:      message.SentAt.UnixNano(),
	}
}

func toChatMessage(messagePb *pb.Message) (domain.ChatMessage, error) {
	parsedID, err := uuid.Parse(messagePb.Id)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	return domain.ChatMessage{
		ID:       parsedID,
		Username: messagePb.Author,
		Content:  messagePb.Content,
		SentAt:   time.Unix(0, messagePb.At).UTC(),
	}, nil
}
