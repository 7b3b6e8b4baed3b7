package entity

import "github.com/shandysiswandi/dinebook/internal/pkg/valueobject"

type Channel int16

const (
	ChannelUnknown Channel = 0
	ChannelEmail   Channel = 2
)

func (c Channel) String() string {
	switch c {
	case ChannelEmail:
		return "email"
	default:
		return "unknown"
	}
}

type DeliveryStatus int16

const (
	DeliveryStatusUnknown DeliveryStatus = 0
	DeliveryStatusQueued  DeliveryStatus = 1
	DeliveryStatusSent    DeliveryStatus = 3
	DeliveryStatusFailed  DeliveryStatus = 4
)

func (s DeliveryStatus) String() string {
	switch s {
	case DeliveryStatusQueued:
		return "queued"
	case DeliveryStatusSent:
		return "sent"
	case DeliveryStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type TriggerKey string

const TriggerKeyPasswordReset TriggerKey = "password_reset"

func (tk TriggerKey) String() string {
	return string(tk)
}

type CreateDeliveryLog struct {
	ID        int64
	EventID   int64
	UserID    int64
	Channel   Channel
	Template  TriggerKey
	Recipient string
	Status    DeliveryStatus
}

type UpdateDeliveryLog struct {
	ID         int64
	Status     DeliveryStatus
	ProviderID string
	Attempts   int
	Metadata   valueobject.JSONMap
}
