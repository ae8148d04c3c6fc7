package model

import (
	"database/sql"
	"time"
)

type LinkEventType string

const (
	EventDeviceLinked   LinkEventType = "device_linked"
	EventDeviceUnlinked LinkEventType = "device_unlinked"
	EventGameSelected   LinkEventType = "game_selected"
	EventGameCleared    LinkEventType = "game_cleared"
)

// LinkEvent is an append-only history row. Observational only; pairing
// state lives in the key-value store.
type LinkEvent struct {
	ID         int64          `db:"id"`
	EventType  LinkEventType  `db:"event_type"`
	DeviceName sql.NullString `db:"device_name"`
	Detail     sql.NullString `db:"detail"`
	IP         sql.NullString `db:"ip"`
	CreatedAt  time.Time      `db:"created_at"`
}

type RecordLinkEventParams struct {
	EventType  LinkEventType
	DeviceName string
	Detail     string
	IP         string
}
