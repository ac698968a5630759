package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PositionSample is one raw location report for a driver's vehicle.
type PositionSample struct {
	EntityID   string    `json:"entity_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	ObservedAt time.Time `json:"observed_at"`
}

// DriverPosition is the rendered output for one tracked entity: the
// interpolated coordinates plus the constant heading of the current
// animation segment.
type DriverPosition struct {
	EntityID       string  `json:"entity_id"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	HeadingDegrees float64 `json:"heading_degrees"`
	Done           bool    `json:"done"`
}

// Booking mirrors one row of the external bookings table. The change-feed
// delivers full rows, so the client never merges field-by-field.
type Booking struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	PassengerID string    `json:"passenger_id"`
	DriverID    string    `json:"driver_id"`
	Pickup      Coord     `json:"pickup"`
	Dropoff     Coord     `json:"dropoff"`
	Status      string    `json:"status"` // pending, assigned, en_route, completed, cancelled
	FareCents   int64     `json:"fare_cents"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Key satisfies reconcile.Keyed.
func (b Booking) Key() string { return b.ID }

type EventKind string

const (
	EventInsert EventKind = "insert"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// ChangeEvent is one row-level notification from the external change-feed.
// For insert/update the full new row is carried; for delete only the id.
// Events may arrive duplicated or out of order.
type ChangeEvent struct {
	Kind       EventKind `json:"kind"`
	Table      string    `json:"table"`
	Row        *Booking  `json:"row,omitempty"`
	ID         string    `json:"id,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}
