package grpc

import (
	"context"

	"chat-room/domain"
	pb "chat-room/proto/chat"

	"github.com/samber/lo"
)

// streamAdapter adapts the generated bidirectional stream to the
// abstract stream the lifecycle manager drives. The first message was
// consumed by the handler to identify the user, so it is replayed on
// the first Recv.
type streamAdapter struct {
	stream pb.ChatService_ChatStreamServer
	first  *pb.MessageRequest
}

func newStreamAdapter(stream pb.ChatService_ChatStreamServer, first *pb.MessageRequest) *streamAdapter {
	return &streamAdapter{stream: stream, first: first}
}

func (a *streamAdapter) Recv() (domain.Inbound, error) {
	if a.first != nil {
		req := a.first
		a.first = nil
		return toInbound(req), nil
	}
	req, err := a.stream.Recv()
	if err != nil {
		return domain.Inbound{}, err
	}
	return toInbound(req), nil
}

func (a *streamAdapter) Send(msg domain.ChatMessage) error {
	return a.stream.Send(lo.ToPtr(toPbMessage(msg)))
}

func (a *streamAdapter) Context() context.Context {
	return a.stream.Context()
}

func toInbound(req *pb.MessageRequest) domain.Inbound {
	return domain.Inbound{
		Username: req.Username,
		Content:  req.Message,
	}
}

func toPbMessage(msg domain.ChatMessage) pb.ChatMessage {
	return pb.ChatMessage{
		Username:  msg.Username,
		Message:   msg.Content,
		Timestamp: msg.SentAt.UnixNano(),
	}
}
