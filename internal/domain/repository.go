package domain

import "context"

// RealmRepository defines CRUD persistence for realm records.
// Every call commits on its own; there is no surrounding transaction.
type RealmRepository interface {
	// Get looks a realm up by its unique name. It returns nil, nil when absent.
	Get(ctx context.Context, name string) (*Realm, error)

	// List returns all realms matching the filter's equality conditions.
	List(ctx context.Context, filter RealmFilter) ([]Realm, error)

	// Create inserts a new realm. A duplicate name is reported by the store
	// as a KindConflict error; it is not pre-checked.
	Create(ctx context.Context, data RealmCreate) (*Realm, error)

	// Update applies only the supplied fields of data onto existing.
	Update(ctx context.Context, existing *Realm, data RealmUpdate) (*Realm, error)

	// Delete removes the row of existing.
	Delete(ctx context.Context, existing *Realm) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}

// IdentityProvider is the administrative surface of the external identity
// system that mirrors each realm.
type IdentityProvider interface {
	CreateRealm(ctx context.Context, rep RealmRepresentation) error
	UpdateRealm(ctx context.Context, name string, rep RealmRepresentation) error
	DeleteRealm(ctx context.Context, name string) error

	// Ping verifies the provider accepts the configured admin credentials.
	Ping(ctx context.Context) error
}

// EventPublisher delivers realm lifecycle events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event RealmEvent) error
}
