package domain

import "time"

// RealmEventType names a realm lifecycle transition.
type RealmEventType string

const (
	RealmCreated RealmEventType = "realm.created"
	RealmUpdated RealmEventType = "realm.updated"
	RealmDeleted RealmEventType = "realm.deleted"
)

// RealmEvent is emitted after a realm mutation has been applied locally.
type RealmEvent struct {
	ID           string         `json:"event_id"`
	Type         RealmEventType `json:"type"`
	Realm        string         `json:"realm"`
	CustomerType string         `json:"customer_type,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
	// Snapshot is the realm as stored after the change, or as it was before
	// a delete.
	Snapshot *Realm `json:"snapshot,omitempty"`
}
