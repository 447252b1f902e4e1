package cmd

import (
	"context"
	"fmt"

	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/config"
	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/database/postgres"
	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/embedder"
	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/gallery"
	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/recognition"
)

// buildService assembles the recognition core from configuration. With
// DATABASE_URL set the gallery is seeded from PostgreSQL and events are
// persisted there; otherwise everything lives in memory for the process
// lifetime. The returned cleanup stops the correlator and closes the pool.
func buildService(ctx context.Context, cfg *config.Config) (*recognition.Service, func(), error) {
	store := gallery.NewStore(cfg.Embedding.Dim)
	matcher := recognition.NewMatcher(store, cfg.Matcher.Threshold, cfg.Matcher.Margin)
	correlator := recognition.NewCorrelator(cfg.Correlator.Cooldown)
	embedClient := embedder.NewClient(cfg.Embedding.URL, cfg.Embedding.Model)

	var (
		events     recognition.EventStore
		identities recognition.IdentityStore
		pool       *postgres.Pool
	)

	if cfg.Database.URL != "" {
		var err error
		pool, err = postgres.NewPool(&cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}

		identityRepo := postgres.NewIdentityRepository(pool)
		stored, err := identityRepo.LoadAll(ctx)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("loading gallery: %w", err)
		}
		for _, ident := range stored {
			for _, emb := range ident.Embeddings {
				if err := store.Enroll(ident.ID, ident.Name, emb); err != nil {
					fmt.Printf("Warning: skipping stored embedding for %q: %v\n", ident.Name, err)
				}
			}
		}
		fmt.Printf("Gallery loaded: %d identities, %d embeddings\n", store.Count(), store.Snapshot().EmbeddingCount())

		events = postgres.NewEventRepository(pool)
		identities = identityRepo
	} else {
		fmt.Println("No DATABASE_URL set, running with in-memory event log")
		events = recognition.NewMemoryEventLog()
	}

	if cfg.Database.EnableHNSW {
		store.EnableIndex()
		fmt.Printf("Gallery HNSW index enabled (%d embeddings)\n", store.Snapshot().EmbeddingCount())
	}

	svc := recognition.NewService(store, matcher, correlator, events, identities, embedClient)

	if pool != nil {
		if err := svc.RecoverCooldowns(ctx); err != nil {
			fmt.Printf("Warning: cooldown recovery failed: %v\n", err)
		}
	}

	cleanup := func() {
		correlator.Stop()
		if pool != nil {
			if err := pool.Close(); err != nil {
				fmt.Printf("Warning: closing database: %v\n", err)
			}
		}
	}
	return svc, cleanup, nil
}
