package event

import "time"

type Type string

const (
	MessageBroadcastType    Type = "MESSAGE_BROADCAST"
	RestartedAfterPanicType Type = "WORKER_RESTARTED_AFTER_PANIC"
	ChannelCapacityType     Type = "CHANNEL_CAPACITY"
	DeliveryDroppedType     Type = "DELIVERY_DROPPED"
	ProcessStatsType        Type = "PROCESS_STATS"
	CensorshipHit           Type = "CENSORSHIP_HIT"
)

// Event is the envelope carried on the telemetry channel.
type Event struct {
	Type      Type
	CreatedAt time.Time
	Payload   any
}

func New(t Type, payload any) Event {
	return Event{Type: t, CreatedAt: time.Now(), Payload: payload}
}

type WorkerRestartedAfterPanic struct {
	WorkerName string
}

type ChannelCapacity struct {
	ChannelName string
	Capacity    int
	Length      int
}

// DeliveryDropped reports a recipient queue that refused a message.
// Silent to the sender, counted here.
type DeliveryDropped struct {
	SessionID string
	Username  string
}

type Censored struct {
	Word string
}

type ProcessStats struct {
	PID int32
	Cpu float64
	Ram uint64
}
