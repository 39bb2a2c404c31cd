package e2e

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	pb "chat-room/proto/chat"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type ChatSuite struct {
	BaseGrpcSuite
}

func TestChatSuite(t *testing.T) {
	suite.Run(t, new(ChatSuite))
}

func (s *ChatSuite) TestFullScenario() {
	alice := fmt.Sprintf("alice-%s", uuid.NewString()[:8])
	bob := fmt.Sprintf("bob-%s", uuid.NewString()[:8])
	marker := uuid.NewString()[:8]

	s.WithChat("login accepts a fresh username", func(ctx context.Context, client pb.ChatServiceClient) {
		res, err := client.Login(ctx, &pb.LoginRequest{Username: alice})
		s.Require().NoError(err)
		s.Require().True(res.Success, res.Message)
	})

	s.WithChat("login rejects a duplicate username", func(ctx context.Context, client pb.ChatServiceClient) {
		res, err := client.Login(ctx, &pb.LoginRequest{Username: alice})
		s.Require().NoError(err)
		s.Require().False(res.Success)
		s.Require().NotEmpty(res.Message)
	})

	s.WithChat("batch submission is acknowledged once", func(ctx context.Context, client pb.ChatServiceClient) {
		stream, err := client.SendMultipleMessages(ctx)
		s.Require().NoError(err)
		for i := 0; i < 3; i++ {
			err = stream.Send(&pb.MessageRequest{
				Username: alice,
				Message:  fmt.Sprintf("batch %s #%d", marker, i),
			})
			s.Require().NoError(err)
		}
		res, err := stream.CloseAndRecv()
		s.Require().NoError(err)
		s.Require().Contains(res.Status, "3")
	})

	s.WithChat("recent messages replay the batch", func(ctx context.Context, client pb.ChatServiceClient) {
		stream, err := client.GetRecentMessages(ctx, &pb.Empty{})
		s.Require().NoError(err)
		found := 0
		for {
			msg, err := stream.Recv()
			if err == io.EOF {
				break
			}
			s.Require().NoError(err)
			if msg.Username == alice {
				found++
			}
		}
		s.Require().GreaterOrEqual(found, 3)
	})

	s.WithChat("live chat delivers to the other participant only", func(ctx context.Context, client pb.ChatServiceClient) {
		aliceStream, err := client.ChatStream(ctx)
		s.Require().NoError(err)
		bobStream, err := client.ChatStream(ctx)
		s.Require().NoError(err)

		// First message identifies each participant.
		s.Require().NoError(aliceStream.Send(&pb.MessageRequest{Username: alice, Message: "hi from " + alice}))
		s.Require().NoError(bobStream.Send(&pb.MessageRequest{Username: bob, Message: "hi from " + bob}))

		// Let both registrations settle before the message under test.
		time.Sleep(time.Second)
		s.Require().NoError(aliceStream.Send(&pb.MessageRequest{Username: alice, Message: "ping " + marker}))

		// Bob only ever receives Alice's messages, never his own.
		received := s.recvWithin(bobStream, 5*time.Second)
		s.Require().Equal(alice, received.Username)

		// Exit closes the server side without a final echo.
		s.Require().NoError(aliceStream.Send(&pb.MessageRequest{Username: alice, Message: "exit"}))
		_, err = aliceStream.Recv()
		s.Require().ErrorIs(err, io.EOF)

		s.Require().NoError(bobStream.Send(&pb.MessageRequest{Username: bob, Message: "exit"}))
	})

	s.WithChat("search finds the archived batch", func(ctx context.Context, client pb.ChatServiceClient) {
		res, err := client.SearchMessages(ctx, &pb.SearchRequest{Query: marker, Limit: 10})
		s.Require().NoError(err)
		s.Require().NotEmpty(res.Messages)
	})
}

func (s *ChatSuite) recvWithin(stream pb.ChatService_ChatStreamClient, timeout time.Duration) *pb.ChatMessage {
	type result struct {
		msg *pb.ChatMessage
		err error
	}
	ch := make(chan result, 1)
	go func() {
		msg, err := stream.Recv()
		ch <- result{msg, err}
	}()
	select {
	case r := <-ch:
		s.Require().NoError(r.err)
		return r.msg
	case <-time.After(timeout):
		s.Require().FailNow("timed out waiting for a live message")
		return nil
	}
}
