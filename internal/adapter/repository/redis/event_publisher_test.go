package redis

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/realm-provisioner/internal/adapter/pii"
	"github.com/V4T54L/realm-provisioner/internal/domain"
)

func TestEventPublisher_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := NewEventPublisher(client, logger, "", 0, nil)

	event := domain.RealmEvent{
		ID:           "evt-1",
		Type:         domain.RealmCreated,
		Realm:        "acme",
		CustomerType: "Large",
		OccurredAt:   time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(context.Background(), event))

	msgs, err := client.XRange(context.Background(), DefaultEventStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	values := msgs[0].Values
	assert.Equal(t, "evt-1", values["event_id"])
	assert.Equal(t, "realm.created", values["type"])
	assert.Equal(t, "acme", values["realm"])

	var decoded domain.RealmEvent
	require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &decoded))
	assert.Equal(t, event, decoded)
}

func TestEventPublisher_CustomStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := NewEventPublisher(client, logger, "tenant.realm_events", 0, nil)

	for _, typ := range []domain.RealmEventType{domain.RealmCreated, domain.RealmUpdated, domain.RealmDeleted} {
		require.NoError(t, pub.Publish(context.Background(), domain.RealmEvent{ID: string(typ), Type: typ, Realm: "acme"}))
	}

	n, err := client.XLen(context.Background(), "tenant.realm_events").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestEventPublisher_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := NewEventPublisher(client, logger, "", 0, nil)

	err := pub.Publish(context.Background(), domain.RealmEvent{ID: "evt-1", Type: domain.RealmDeleted, Realm: "acme"})
	assert.ErrorContains(t, err, "failed to publish event to stream realm_events")
}

func TestEventPublisher_RedactsSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := NewEventPublisher(client, logger, "", 10, pii.NewRedactor([]string{"password"}, logger))

	snapshot := &domain.Realm{
		ID:           7,
		Realm:        "acme",
		CustomerType: "Large",
		Enabled:      true,
		SMTPServer:   map[string]string{"host": "smtp.acme.test", "password": "hunter2"},
	}
	require.NoError(t, pub.Publish(context.Background(), domain.RealmEvent{
		ID: "evt-1", Type: domain.RealmUpdated, Realm: "acme", Snapshot: snapshot,
	}))

	msgs, err := client.XRange(context.Background(), DefaultEventStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var decoded domain.RealmEvent
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &decoded))
	require.NotNil(t, decoded.Snapshot)
	assert.Equal(t, int64(7), decoded.Snapshot.ID)
	assert.Equal(t, pii.RedactedPlaceholder, decoded.Snapshot.SMTPServer["password"])
	assert.Equal(t, "smtp.acme.test", decoded.Snapshot.SMTPServer["host"])
	assert.Equal(t, "hunter2", snapshot.SMTPServer["password"])
}
