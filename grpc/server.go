package grpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"chat-room/domain"
	chaterrors "chat-room/errors"
	pb "chat-room/proto/chat"
	"chat-room/services"

	"github.com/samber/lo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ChatServer struct {
	pb.UnimplementedChatServiceServer
	service services.IChatService
	log     *slog.Logger
}

func NewChatServer(log *slog.Logger, service services.IChatService) *ChatServer {
	return &ChatServer{service: service, log: log}
}

// Login marks the username as present. Rejections (duplicate or invalid
// username) travel in the response payload, not as a gRPC error, so the
// client can show the reason and retry.
func (s *ChatServer) Login(_ context.Context, req *pb.LoginRequest) (*pb.LoginResponse, error) {
	if err := s.service.Login(req.Username); err != nil {
		if errors.Is(err, chaterrors.ErrLoginRejected) || errors.Is(err, chaterrors.ErrInvalidUsername) {
			s.log.Info("login rejected", "username", req.Username, "reason", err)
			return &pb.LoginResponse{Success: false, Message: err.Error()}, nil
		}
		return nil, status.Errorf(codes.Internal, "login: %v", err)
	}
	s.log.Info("user logged in", "username", req.Username)
	return &pb.LoginResponse{
		Success: true,
		Message: fmt.Sprintf("Welcome %s! %d user(s) online", req.Username, len(s.service.Online())),
	}, nil
}

// GetRecentMessages streams a point-in-time snapshot of the ring, then
// closes. It is a replay, not a subscription.
func (s *ChatServer) GetRecentMessages(_ *pb.Empty, stream pb.ChatService_GetRecentMessagesServer) error {
	for _, msg := range s.service.History() {
		if err := stream.Send(lo.ToPtr(toPbMessage(msg))); err != nil {
			return err
		}
	}
	return nil
}

// SendMultipleMessages drains the client stream, then archives the batch
// and answers with one aggregate status after the client half-closes.
func (s *ChatServer) SendMultipleMessages(stream pb.ChatService_SendMultipleMessagesServer) error {
	inbound, err := drain(stream)
	if err != nil {
		return err
	}
	stored, err := s.service.Archive(stream.Context(), inbound)
	if err != nil {
		s.log.Error("batch archiving failed", "stored", stored, "err", err)
		return status.Errorf(codes.Internal, "archive: %v", err)
	}
	return stream.SendAndClose(&pb.MessageResponse{
		Status: fmt.Sprintf("Stored %d messages", stored),
	})
}

// ChatStream is the live room. The first received message identifies
// the user; the lifecycle manager drives everything after that.
func (s *ChatServer) ChatStream(stream pb.ChatService_ChatStreamServer) error {
	first, err := stream.Recv()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	if first.Username == "" {
		return status.Error(codes.InvalidArgument, "username is required")
	}

	adapter := newStreamAdapter(stream, first)
	if err := s.service.Chat(adapter, first.Username); err != nil {
		if errors.Is(err, chaterrors.ErrRegistryFull) {
			return status.Error(codes.ResourceExhausted, err.Error())
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			return nil
		}
		s.log.Warn("chat stream ended with error", "username", first.Username, "err", err)
		return err
	}
	return nil
}

// SearchMessages runs a full-text query over the archived history.
func (s *ChatServer) SearchMessages(ctx context.Context, req *pb.SearchRequest) (*pb.SearchResponse, error) {
	if req.Query == "" {
		return nil, status.Error(codes.InvalidArgument, "query is required")
	}
	limit := int(req.Limit)
	if limit <= 0 {
		limit = 20
	}
	messages, err := s.service.Search(ctx, req.Query, limit)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "search: %v", err)
	}
	res := &pb.SearchResponse{}
	for _, msg := range messages {
		res.Messages = append(res.Messages, lo.ToPtr(toPbMessage(msg)))
	}
	return res, nil
}

func drain(stream pb.ChatService_SendMultipleMessagesServer) ([]domain.Inbound, error) {
	var inbound []domain.Inbound
	for {
		req, err := stream.Recv()
		if err == io.EOF {
			return inbound, nil
		}
		if err != nil {
			return nil, err
		}
		inbound = append(inbound, domain.Inbound{
			Username: req.Username,
			Content:  req.Message,
		})
	}
}
