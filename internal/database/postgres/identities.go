package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// IdentityRepository persists enrolled identities and their reference
// embeddings. The in-memory gallery is seeded from here at startup and
// remains the read path for matching; this table is the system of record.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates a new identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// SaveEmbedding upserts the identity row and appends one reference embedding.
func (r *IdentityRepository) SaveEmbedding(ctx context.Context, id uuid.UUID, name string, embedding []float32) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO identities (id, name, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO NOTHING
	`, id, name)
	if err != nil {
		return fmt.Errorf("upsert identity: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO identity_embeddings (identity_id, embedding, dim, created_at)
		VALUES ($1, $2, $3, NOW())
	`, id, pgvector.NewVector(embedding), len(embedding))
	if err != nil {
		return fmt.Errorf("insert embedding: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment: %w", err)
	}
	return nil
}

// DeleteIdentity removes an identity; its embeddings cascade.
func (r *IdentityRepository) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM identities WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}

// StoredIdentity is one persisted identity with all its reference embeddings.
type StoredIdentity struct {
	ID         uuid.UUID
	Name       string
	Embeddings [][]float32
	CreatedAt  time.Time
}

// LoadAll returns every persisted identity with its embeddings, for seeding
// the in-memory gallery at startup.
func (r *IdentityRepository) LoadAll(ctx context.Context) ([]StoredIdentity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.name, i.created_at, e.embedding
		FROM identities i
		JOIN identity_embeddings e ON e.identity_id = i.id
		ORDER BY i.created_at, e.id
	`)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]int)
	var out []StoredIdentity
	for rows.Next() {
		var (
			id        uuid.UUID
			name      string
			createdAt time.Time
			vec       pgvector.Vector
		)
		if err := rows.Scan(&id, &name, &createdAt, &vec); err != nil {
			return nil, fmt.Errorf("scan identity row: %w", err)
		}
		idx, ok := byID[id]
		if !ok {
			idx = len(out)
			byID[id] = idx
			out = append(out, StoredIdentity{ID: id, Name: name, CreatedAt: createdAt})
		}
		out[idx].Embeddings = append(out[idx].Embeddings, vec.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return out, nil
}

// Count returns the number of persisted identities.
func (r *IdentityRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}
