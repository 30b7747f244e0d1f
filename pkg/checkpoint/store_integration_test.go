//go:build integration

package checkpoint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestStore_Integration_SaveAndGet(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := NewStore(redisClient, time.Hour)
	ctx := context.Background()
	key := TokenTransfersKey("0xabc")

	if _, err := store.Get(ctx, key); !errors.Is(err, ErrNoCheckpoint) {
		t.Fatalf("Get() on empty store error = %v, want ErrNoCheckpoint", err)
	}

	want := &Checkpoint{Cursor: "X", Pages: 2, Items: 20, UpdatedAt: time.Now().UTC().Truncate(time.Second)}
	if err := store.Save(ctx, key, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Cursor != want.Cursor || got.Pages != want.Pages || got.Items != want.Items || got.Done != want.Done {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
	if !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, want.UpdatedAt)
	}

	ttl, err := redisClient.TTL(ctx, key.String()).Result()
	if err != nil {
		t.Fatalf("TTL() error = %v", err)
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("TTL = %v, want within (0, 1h]", ttl)
	}
}

func TestStore_Integration_Delete(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := NewStore(redisClient, 0)
	ctx := context.Background()
	key := Key{Resource: "r"}

	if err := store.Save(ctx, key, &Checkpoint{Cursor: "c"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, key); !errors.Is(err, ErrNoCheckpoint) {
		t.Errorf("Get() after Delete error = %v, want ErrNoCheckpoint", err)
	}

	// Deleting again is a no-op
	if err := store.Delete(ctx, key); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestStore_Integration_InvalidEntry(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := NewStore(redisClient, 0)
	ctx := context.Background()
	key := Key{Resource: "corrupt"}

	if err := redisClient.Set(ctx, key.String(), "not json", time.Minute).Err(); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	if _, err := store.Get(ctx, key); !errors.Is(err, ErrInvalidCheckpoint) {
		t.Errorf("Get() error = %v, want ErrInvalidCheckpoint", err)
	}
}

func TestStore_Integration_NilCheckpoint(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := NewStore(redisClient, 0)
	if err := store.Save(context.Background(), Key{Resource: "r"}, nil); err == nil {
		t.Error("Save(nil) should fail")
	}
}

func TestResume_Integration(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := NewStore(redisClient, time.Hour)
	ctx := context.Background()
	key := TokenTransfersKey("0xabc")

	var cursors []string
	walk, err := Resume(ctx, store, key, pagedFetcher(&cursors))
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if _, err := walk.Next(ctx); err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	// A second process picks up where the first stopped
	resumed, err := Resume(ctx, store, key, pagedFetcher(&cursors))
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	page, err := resumed.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	if len(page.Items) != 1 || page.Items[0] != 3 {
		t.Errorf("resumed page items = %v, want [3]", page.Items)
	}
	if len(cursors) != 2 || cursors[1] != "X" {
		t.Errorf("cursors = %v, want [\"\" X]", cursors)
	}
	if !resumed.Done() {
		t.Error("resumed walk should be done")
	}
}
