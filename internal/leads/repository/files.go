package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type File struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	FileName    string
	FileKey     string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}

type CreateFileParams struct {
	LeadID      uuid.UUID
	FileName    string
	FileKey     string
	ContentType string
	SizeBytes   int64
}

const fileColumns = `id, lead_id, file_name, file_key, content_type, size_bytes, created_at`

func scanFile(row pgx.Row) (File, error) {
	var f File
	err := row.Scan(&f.ID, &f.LeadID, &f.FileName, &f.FileKey, &f.ContentType, &f.SizeBytes, &f.CreatedAt)
	return f, err
}

func (r *Repository) CreateFile(ctx context.Context, params CreateFileParams) (File, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO files (lead_id, file_name, file_key, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+fileColumns,
		params.LeadID, params.FileName, params.FileKey, params.ContentType, params.SizeBytes,
	)
	return scanFile(row)
}

func (r *Repository) GetFileByID(ctx context.Context, id uuid.UUID) (File, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, id)
	f, err := scanFile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return File{}, ErrNotFound
	}
	return f, err
}

func (r *Repository) ListFilesByLead(ctx context.Context, leadID uuid.UUID) ([]File, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+fileColumns+` FROM files WHERE lead_id = $1 ORDER BY created_at ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make([]File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *Repository) DeleteFile(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
