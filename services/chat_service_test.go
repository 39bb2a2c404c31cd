package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"chat-room/domain"
	"chat-room/errors"
	"chat-room/mocks"
	"chat-room/runtime"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newService(t *testing.T) (*ChatService, *mocks.MockIMessageRepository, *mocks.MockISearchRepository) {
	ctrl := gomock.NewController(t)
	archive := mocks.NewMockIMessageRepository(ctrl)
	index := mocks.NewMockISearchRepository(ctrl)
	service := NewChatService(runtime.NewPresence(), runtime.NewMessageRing(10), nil, archive, index)
	return service, archive, index
}

func TestChatService_Login(t *testing.T) {
	req := require.New(t)
	service, _, _ := newService(t)

	// When a fresh username logs in
	req.NoError(service.Login("alice"))

	// Then the same username is rejected while online
	req.ErrorIs(service.Login("alice"), errors.ErrLoginRejected)

	// Then it is accepted again after logout
	service.Logout("alice")
	req.NoError(service.Login("alice"))
}

func TestChatService_Online(t *testing.T) {
	req := require.New(t)
	service, _, _ := newService(t)

	// Given an empty room
	req.Empty(service.Online())

	// When two users log in
	req.NoError(service.Login("alice"))
	req.NoError(service.Login("bob"))

	// Then both appear in the online view, until one leaves
	req.ElementsMatch([]string{"alice", "bob"}, service.Online())
	service.Logout("alice")
	req.Equal([]string{"bob"}, service.Online())
}

func TestChatService_Login_InvalidUsername(t *testing.T) {
	req := require.New(t)
	service, _, _ := newService(t)

	req.ErrorIs(service.Login(""), errors.ErrInvalidUsername)
	req.ErrorIs(service.Login(strings.Repeat("a", 33)), errors.ErrInvalidUsername)
}

func TestChatService_Archive(t *testing.T) {
	req := require.New(t)
	service, archive, index := newService(t)

	inbound := []domain.Inbound{
		{Username: "alice", Content: "one"},
		{Username: "alice", Content: "two"},
	}

	// Then every message is persisted and indexed with a server timestamp
	archive.EXPECT().StoreMessage(gomock.Any()).
		DoAndReturn(func(msg domain.ChatMessage) error {
			req.False(msg.SentAt.IsZero())
			req.Equal("alice", msg.Username)
			return nil
		}).Times(2)
	index.EXPECT().Index(gomock.Any()).Return(nil).Times(2)

	stored, err := service.Archive(context.Background(), inbound)
	req.NoError(err)
	req.Equal(2, stored)

	// Then the ring saw the batch too
	req.Len(service.History(), 2)
}

func TestChatService_Archive_StopsOnStorageError(t *testing.T) {
	req := require.New(t)
	service, archive, index := newService(t)

	inbound := []domain.Inbound{
		{Username: "alice", Content: "one"},
		{Username: "alice", Content: "two"},
	}

	// Given a first write succeeding and a second one failing
	gomock.InOrder(
		archive.EXPECT().StoreMessage(gomock.Any()).Return(nil),
		archive.EXPECT().StoreMessage(gomock.Any()).Return(fmt.Errorf("disk full")),
	)
	index.EXPECT().Index(gomock.Any()).Return(nil).Times(1)

	stored, err := service.Archive(context.Background(), inbound)

	// Then the partial count reflects what actually landed
	req.Error(err)
	req.Equal(1, stored)
}

func TestChatService_Search(t *testing.T) {
	req := require.New(t)
	service, _, index := newService(t)

	expected := []domain.ChatMessage{{Username: "alice", Content: "hello"}}
	index.EXPECT().Search(gomock.Any(), "hello", 20).Return(expected, nil)

	found, err := service.Search(context.Background(), "hello", 20)
	req.NoError(err)
	req.Equal(expected, found)
}
