//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/config"
	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/recognition"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func testEmbedding(dim int, seed float32) []float32 {
	emb := make([]float32, dim)
	for i := range emb {
		emb[i] = (float32(i) + seed) / float32(dim)
	}
	return emb
}

func TestIdentityRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewIdentityRepository(pool)
	alice := uuid.New()
	bob := uuid.New()

	t.Run("SaveAndLoad", func(t *testing.T) {
		if err := repo.SaveEmbedding(ctx, alice, "alice", testEmbedding(512, 0)); err != nil {
			t.Fatalf("Failed to save embedding: %v", err)
		}
		// Second embedding for the same identity must not duplicate the row.
		if err := repo.SaveEmbedding(ctx, alice, "alice", testEmbedding(512, 1)); err != nil {
			t.Fatalf("Failed to save second embedding: %v", err)
		}
		if err := repo.SaveEmbedding(ctx, bob, "bob", testEmbedding(512, 2)); err != nil {
			t.Fatalf("Failed to save embedding: %v", err)
		}

		got, err := repo.LoadAll(ctx)
		if err != nil {
			t.Fatalf("Failed to load identities: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Expected 2 identities, got %d", len(got))
		}

		var loaded *StoredIdentity
		for i := range got {
			if got[i].ID == alice {
				loaded = &got[i]
			}
		}
		if loaded == nil {
			t.Fatal("alice not loaded")
		}
		if loaded.Name != "alice" {
			t.Errorf("Expected name 'alice', got '%s'", loaded.Name)
		}
		if len(loaded.Embeddings) != 2 {
			t.Errorf("Expected 2 embeddings, got %d", len(loaded.Embeddings))
		}
		if len(loaded.Embeddings[0]) != 512 {
			t.Errorf("Expected 512 dimensions, got %d", len(loaded.Embeddings[0]))
		}
	})

	t.Run("Count", func(t *testing.T) {
		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if count != 2 {
			t.Errorf("Expected 2, got %d", count)
		}
	})

	t.Run("DeleteCascades", func(t *testing.T) {
		if err := repo.DeleteIdentity(ctx, alice); err != nil {
			t.Fatalf("Failed to delete identity: %v", err)
		}

		got, err := repo.LoadAll(ctx)
		if err != nil {
			t.Fatalf("Failed to load identities: %v", err)
		}
		if len(got) != 1 || got[0].ID != bob {
			t.Errorf("Expected only bob after delete, got %+v", got)
		}

		var orphans int
		if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM identity_embeddings WHERE identity_id = $1", alice).Scan(&orphans); err != nil {
			t.Fatalf("Failed to count embeddings: %v", err)
		}
		if orphans != 0 {
			t.Errorf("Expected embeddings to cascade, %d rows left", orphans)
		}
	})
}

func TestEventRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewEventRepository(pool)
	identities := NewIdentityRepository(pool)

	alice := uuid.New()
	if err := identities.SaveEmbedding(ctx, alice, "alice", testEmbedding(512, 0)); err != nil {
		t.Fatalf("Failed to save identity: %v", err)
	}

	base := time.Now().UTC().Truncate(time.Second)

	t.Run("AppendAndRecent", func(t *testing.T) {
		events := []recognition.Event{
			{ID: uuid.New(), IdentityID: &alice, IdentityName: "alice", Score: 0.91, ImageRef: "cam-1/0001.jpg", Timestamp: base.Add(-2 * time.Minute)},
			{ID: uuid.New(), IdentityID: nil, IdentityName: "", Score: 0, ImageRef: "cam-1/0002.jpg", Timestamp: base.Add(-time.Minute)},
			{ID: uuid.New(), IdentityID: &alice, IdentityName: "alice", Score: 0.88, ImageRef: "cam-2/0003.jpg", Timestamp: base},
		}
		for _, ev := range events {
			if err := repo.Append(ctx, ev); err != nil {
				t.Fatalf("Failed to append event: %v", err)
			}
		}

		got, err := repo.RecentSince(ctx, base.Add(-90*time.Second))
		if err != nil {
			t.Fatalf("Failed to query events: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Expected 2 events, got %d", len(got))
		}
		if got[0].Timestamp.Before(got[1].Timestamp) {
			t.Error("Events not newest first")
		}
		if got[1].IdentityID != nil {
			t.Error("Unknown event expected a nil identity")
		}
	})

	t.Run("RecentForIdentity", func(t *testing.T) {
		got, err := repo.RecentForIdentity(ctx, alice, base.Add(-time.Hour))
		if err != nil {
			t.Fatalf("Failed to query identity events: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Expected 2 events for alice, got %d", len(got))
		}
		for _, ev := range got {
			if ev.IdentityID == nil || *ev.IdentityID != alice {
				t.Errorf("Unexpected event %+v", ev)
			}
		}
	})

	t.Run("Count", func(t *testing.T) {
		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if count != 3 {
			t.Errorf("Expected 3, got %d", count)
		}
	})

	t.Run("IdentityDeleteKeepsEvents", func(t *testing.T) {
		if err := identities.DeleteIdentity(ctx, alice); err != nil {
			t.Fatalf("Failed to delete identity: %v", err)
		}

		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if count != 3 {
			t.Errorf("Expected events to survive identity deletion, got %d", count)
		}

		// The foreign key nulls out; the denormalized name remains.
		got, err := repo.RecentSince(ctx, base.Add(-time.Hour))
		if err != nil {
			t.Fatalf("Failed to query events: %v", err)
		}
		for _, ev := range got {
			if ev.IdentityID != nil {
				t.Errorf("Expected nil identity after delete, got %s", ev.IdentityID)
			}
		}
	})
}

func TestMigrationsIdempotent(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	// Running migrations again must be a no-op.
	if err := pool.Migrate(context.Background()); err != nil {
		t.Fatalf("Second migrate failed: %v", err)
	}
}
