package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// One table, one operator. The unique constraint on hash_id is the single
// arbitration point for concurrent duplicate uploads.
const schema = `
CREATE TABLE IF NOT EXISTS media (
    hash_id       text PRIMARY KEY,
    extension     text NOT NULL,
    has_thumbnail boolean NOT NULL DEFAULT false,
    width         integer NOT NULL,
    height        integer NOT NULL,
    filesize      bigint NOT NULL,
    comment       text,
    is_private    boolean NOT NULL DEFAULT false,
    uploaded      timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS media_uploaded_idx ON media (uploaded DESC);
`

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
