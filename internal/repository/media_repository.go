package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kebisafe/kebisafe/internal/models"
)

const listMaxLimit = 50

type MediaRepository struct {
	pool *pgxpool.Pool
}

func NewMediaRepository(pool *pgxpool.Pool) *MediaRepository {
	return &MediaRepository{pool: pool}
}

// Insert stores a new media row. It reports false without error when a row
// with the same hash_id already exists; the unique constraint is the
// arbitration point for concurrent duplicate uploads.
func (r *MediaRepository) Insert(ctx context.Context, media models.Media) (bool, error) {
	const query = `
		INSERT INTO media (
			hash_id, extension, has_thumbnail, width, height, filesize, comment, is_private, uploaded
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (hash_id) DO NOTHING
	`

	cmd, err := r.pool.Exec(ctx, query,
		media.HashID,
		media.Extension,
		media.HasThumbnail,
		media.Width,
		media.Height,
		media.Filesize,
		media.Comment,
		media.IsPrivate,
		media.Uploaded,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *MediaRepository) Get(ctx context.Context, hashID string) (models.Media, error) {
	const query = `
		SELECT hash_id, extension, has_thumbnail, width, height, filesize, comment, is_private, uploaded
		FROM media WHERE hash_id = $1
	`

	row := r.pool.QueryRow(ctx, query, hashID)
	media, err := scanMedia(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Media{}, models.ErrMediaNotFound
		}
		return models.Media{}, err
	}
	return media, nil
}

// List returns media ordered by upload time descending. Private rows are
// excluded in the query itself unless the filter says otherwise, so a
// pagination cursor can never leak their existence.
func (r *MediaRepository) List(ctx context.Context, filter models.ListFilter) ([]models.Media, error) {
	const query = `
		SELECT hash_id, extension, has_thumbnail, width, height, filesize, comment, is_private, uploaded
		FROM media
		WHERE (is_private = false OR $1)
		  AND ($2::timestamptz IS NULL OR uploaded < $2)
		ORDER BY uploaded DESC
		LIMIT $3
	`

	limit := filter.Limit
	if limit <= 0 || limit > listMaxLimit {
		limit = listMaxLimit
	}

	rows, err := r.pool.Query(ctx, query, filter.IncludePrivate, filter.Before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Media
	for rows.Next() {
		media, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, media)
	}
	return list, rows.Err()
}

// Update patches the two mutable columns. Immutable columns are not part of
// the statement at all.
func (r *MediaRepository) Update(ctx context.Context, hashID string, patch models.MediaPatch) error {
	const query = `
		UPDATE media
		SET comment    = COALESCE($2, comment),
		    is_private = COALESCE($3, is_private)
		WHERE hash_id = $1
	`

	cmd, err := r.pool.Exec(ctx, query, hashID, patch.Comment, patch.IsPrivate)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrMediaNotFound
	}
	return nil
}

func (r *MediaRepository) Delete(ctx context.Context, hashID string) error {
	const query = `DELETE FROM media WHERE hash_id = $1`

	cmd, err := r.pool.Exec(ctx, query, hashID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrMediaNotFound
	}
	return nil
}

func (r *MediaRepository) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM media`

	var count int64
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanMedia(row pgx.Row) (models.Media, error) {
	var media models.Media
	err := row.Scan(
		&media.HashID,
		&media.Extension,
		&media.HasThumbnail,
		&media.Width,
		&media.Height,
		&media.Filesize,
		&media.Comment,
		&media.IsPrivate,
		&media.Uploaded,
	)
	return media, err
}
