package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/V4T54L/realm-provisioner/internal/adapter/metrics"
	"github.com/V4T54L/realm-provisioner/internal/domain"
)

// RealmService sequences realm writes across the identity provider and the
// local store. The identity provider is always written first; nothing is
// compensated when the second write fails.
type RealmService struct {
	idp     domain.IdentityProvider
	repo    domain.RealmRepository
	events  domain.EventPublisher
	logger  *slog.Logger
	metrics *metrics.RealmMetrics
}

// NewRealmService creates a new RealmService. events and m may be nil.
func NewRealmService(
	idp domain.IdentityProvider,
	repo domain.RealmRepository,
	events domain.EventPublisher,
	logger *slog.Logger,
	m *metrics.RealmMetrics,
) *RealmService {
	return &RealmService{
		idp:     idp,
		repo:    repo,
		events:  events,
		logger:  logger.With("component", "realm_service"),
		metrics: m,
	}
}

// Create provisions the realm in the identity provider and, only if that
// succeeds, stores it locally.
func (s *RealmService) Create(ctx context.Context, data domain.RealmCreate) (*domain.Realm, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}

	rep := toRepresentation(data.Realm, data.RealmSettings, true)
	if err := s.idp.CreateRealm(ctx, rep); err != nil {
		return nil, fmt.Errorf("create realm %q in identity provider: %w", data.Realm, err)
	}

	realm, err := s.repo.Create(ctx, data)
	if err != nil {
		s.reportInconsistency("create", data.Realm, err)
		return nil, fmt.Errorf("store realm %q: %w", data.Realm, err)
	}

	s.logger.Info("realm created", "realm", realm.Realm, "customer_type", realm.CustomerType)
	s.publish(ctx, domain.RealmCreated, realm)
	return realm, nil
}

// List returns the stored realms matching filter.
func (s *RealmService) List(ctx context.Context, filter domain.RealmFilter) ([]domain.Realm, error) {
	return s.repo.List(ctx, filter)
}

// Get returns the stored realm, or nil when it does not exist.
func (s *RealmService) Get(ctx context.Context, name string) (*domain.Realm, error) {
	return s.repo.Get(ctx, name)
}

// Update pushes the changed settings to the identity provider, then applies
// them to the stored record. A missing local record yields a not-found error
// even though the identity provider has already been updated.
func (s *RealmService) Update(ctx context.Context, name string, data domain.RealmUpdate) (*domain.Realm, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}

	rep := toRepresentation(name, data.RealmSettings, false)
	if err := s.idp.UpdateRealm(ctx, name, rep); err != nil {
		return nil, fmt.Errorf("update realm %q in identity provider: %w", name, err)
	}

	existing, err := s.repo.Get(ctx, name)
	if err != nil {
		s.reportInconsistency("update", name, err)
		return nil, fmt.Errorf("load realm %q: %w", name, err)
	}
	if existing == nil {
		s.reportInconsistency("update", name, domain.ErrNotFound)
		return nil, domain.NewError(domain.KindNotFound, "update realm", "Realm not found", nil)
	}

	realm, err := s.repo.Update(ctx, existing, data)
	if err != nil {
		s.reportInconsistency("update", name, err)
		return nil, fmt.Errorf("store realm %q: %w", name, err)
	}

	s.logger.Info("realm updated", "realm", name)
	s.publish(ctx, domain.RealmUpdated, realm)
	return realm, nil
}

// Delete removes the realm from the identity provider and then from the
// local store. A missing local record is not an error.
func (s *RealmService) Delete(ctx context.Context, name string) error {
	if err := s.idp.DeleteRealm(ctx, name); err != nil {
		return fmt.Errorf("delete realm %q in identity provider: %w", name, err)
	}

	existing, err := s.repo.Get(ctx, name)
	if err != nil {
		s.reportInconsistency("delete", name, err)
		return fmt.Errorf("load realm %q: %w", name, err)
	}
	if existing == nil {
		s.logger.Debug("realm not stored locally, nothing to delete", "realm", name)
		return nil
	}

	if err := s.repo.Delete(ctx, existing); err != nil {
		s.reportInconsistency("delete", name, err)
		return fmt.Errorf("delete stored realm %q: %w", name, err)
	}

	s.logger.Info("realm deleted", "realm", name)
	s.publish(ctx, domain.RealmDeleted, existing)
	return nil
}

// Ready reports whether both backing systems are reachable.
func (s *RealmService) Ready(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := s.idp.Ping(ctx); err != nil {
		return fmt.Errorf("identity provider: %w", err)
	}
	return nil
}

// reportInconsistency records a write that reached the identity provider but
// not the local store.
func (s *RealmService) reportInconsistency(op, name string, err error) {
	s.logger.Error("identity provider and store diverged", "operation", op, "realm", name, "error", err)
	if s.metrics != nil {
		s.metrics.InconsistentWrites.WithLabelValues(op).Inc()
	}
}

// publish is best-effort; a failed publish never fails the request.
func (s *RealmService) publish(ctx context.Context, typ domain.RealmEventType, realm *domain.Realm) {
	if s.events == nil {
		return
	}
	event := domain.RealmEvent{
		ID:           uuid.NewString(),
		Type:         typ,
		Realm:        realm.Realm,
		CustomerType: realm.CustomerType,
		OccurredAt:   time.Now().UTC(),
		Snapshot:     realm,
	}
	status := "ok"
	if err := s.events.Publish(ctx, event); err != nil {
		status = "error"
		s.logger.Warn("failed to publish realm event", "error", err, "event_id", event.ID, "type", typ)
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(status).Inc()
	}
}
