package runtime

import (
	"fmt"
	"testing"
	"time"

	"chat-room/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func message(content string) domain.ChatMessage {
	return domain.ChatMessage{
		ID:       uuid.New(),
		Username: "alice",
		Content:  content,
		SentAt:   time.Now().UTC(),
	}
}

func TestMessageRing_AppendAndSnapshot(t *testing.T) {
	req := require.New(t)
	ring := NewMessageRing(5)

	// When three messages are appended
	ring.Append(message("one"))
	ring.Append(message("two"))
	ring.Append(message("three"))

	// Then the snapshot preserves insertion order
	snapshot := ring.Snapshot()
	req.Len(snapshot, 3)
	req.Equal("one", snapshot[0].Content)
	req.Equal("three", snapshot[2].Content)
}

func TestMessageRing_EvictsOldest(t *testing.T) {
	req := require.New(t)
	ring := NewMessageRing(3)

	// When more messages than the capacity are appended
	for i := 1; i <= 5; i++ {
		ring.Append(message(fmt.Sprintf("msg %d", i)))
	}

	// Then only the newest three remain, oldest first
	snapshot := ring.Snapshot()
	req.Len(snapshot, 3)
	req.Equal("msg 3", snapshot[0].Content)
	req.Equal("msg 5", snapshot[2].Content)
}

func TestMessageRing_CapacityTwoScenario(t *testing.T) {
	req := require.New(t)
	ring := NewMessageRing(2)

	// Given three messages through a capacity-2 ring
	ring.Append(message("first"))
	ring.Append(message("second"))
	ring.Append(message("third"))

	// Then a replay yields exactly the last two in order
	snapshot := ring.Snapshot()
	req.Len(snapshot, 2)
	req.Equal("second", snapshot[0].Content)
	req.Equal("third", snapshot[1].Content)
}

func TestMessageRing_SnapshotIsDetached(t *testing.T) {
	req := require.New(t)
	ring := NewMessageRing(5)
	ring.Append(message("one"))

	// Given a snapshot
	snapshot := ring.Snapshot()

	// When the ring keeps growing
	ring.Append(message("two"))

	// Then the snapshot is unaffected
	req.Len(snapshot, 1)
	req.Equal(2, ring.Len())
}

func TestMessageRing_DefaultCapacity(t *testing.T) {
	req := require.New(t)

	// Given a non-positive capacity
	ring := NewMessageRing(0)

	// Then the default bound applies
	for i := 0; i < DefaultRingCapacity+10; i++ {
		ring.Append(message(fmt.Sprintf("msg %d", i)))
	}
	req.Equal(DefaultRingCapacity, ring.Len())
}
