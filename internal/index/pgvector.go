package index

import (
	"context"

	"github.com/cloo-solutions/agrovisor/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Hit is one nearest-neighbor match with its raw cosine distance.
type Hit struct {
	domain.Chunk
	Distance float32
}

// PGVector persists chunk embeddings in Postgres and serves cosine
// nearest-neighbor queries over them.
type PGVector struct {
	pool *pgxpool.Pool
}

func NewPGVector(pool *pgxpool.Pool) *PGVector {
	return &PGVector{pool: pool}
}

// Upsert inserts records, replacing any row with the same chunk id. Re-running
// ingestion over a changed document overwrites its chunks in place.
func (x *PGVector) Upsert(ctx context.Context, records []domain.ChunkRecord) error {
	for _, r := range records {
		_, err := x.pool.Exec(ctx,
			`INSERT INTO advisory_chunks
				(id, source, filename, page_start, page_end, heading, content, embedding)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (id) DO UPDATE SET
				source = EXCLUDED.source,
				filename = EXCLUDED.filename,
				page_start = EXCLUDED.page_start,
				page_end = EXCLUDED.page_end,
				heading = EXCLUDED.heading,
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding,
				updated_at = now()`,
			r.ID,
			r.Source,
			r.Filename,
			r.PageStart,
			r.PageEnd,
			nullableString(r.Heading),
			r.Text,
			pgvector.NewVector(r.Embedding),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ExistingIDs returns the set of chunk ids already stored.
func (x *PGVector) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := x.pool.Query(ctx, `SELECT id FROM advisory_chunks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// Query returns the k chunks nearest to embedding by cosine distance,
// nearest first.
func (x *PGVector) Query(ctx context.Context, embedding []float32, k int) ([]Hit, error) {
	if k <= 0 {
		k = 5
	}

	vec := pgvector.NewVector(embedding)
	rows, err := x.pool.Query(ctx,
		`SELECT id, source, page_start, page_end, heading, content, embedding <=> $1 AS distance
		 FROM advisory_chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := make([]Hit, 0, k)
	for rows.Next() {
		var h Hit
		var heading *string
		if err := rows.Scan(&h.ID, &h.Source, &h.PageStart, &h.PageEnd, &heading, &h.Text, &h.Distance); err != nil {
			return nil, err
		}
		if heading != nil {
			h.Heading = *heading
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Count returns the number of stored chunks.
func (x *PGVector) Count(ctx context.Context) (int, error) {
	var n int
	err := x.pool.QueryRow(ctx, `SELECT count(*) FROM advisory_chunks`).Scan(&n)
	return n, err
}

// Documents returns the distinct source names currently indexed with their
// chunk counts.
func (x *PGVector) Documents(ctx context.Context) (map[string]int, error) {
	rows, err := x.pool.Query(ctx,
		`SELECT source, count(*) FROM advisory_chunks GROUP BY source ORDER BY source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, err
		}
		out[source] = n
	}
	return out, rows.Err()
}

// Reset deletes every stored chunk. Used by the reset command before a full
// re-ingestion.
func (x *PGVector) Reset(ctx context.Context) error {
	_, err := x.pool.Exec(ctx, `TRUNCATE advisory_chunks`)
	return err
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
