package media

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/verdantlabs/gardensync/internal/agent/models"
	"github.com/verdantlabs/gardensync/internal/common"
	"github.com/verdantlabs/gardensync/internal/dbx"
)

// PostgresRepository implements Repository over a dbx.DBTX opened with the
// pgx stdlib driver, for hub deployments sharing one queue database.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Put(ctx context.Context, jobID string, upload models.MediaUpload) (string, error) {
	id := ulid.Make().String()

	query := `INSERT INTO media (id, job_id, filename, content_type, data, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		id, jobID, upload.Filename, upload.ContentType, upload.Data, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("%w: failed to insert media blob: %w", common.ErrIO, err)
	}
	return id, nil
}

func (r *PostgresRepository) GetForJob(ctx context.Context, jobID string) ([]*models.MediaBlob, error) {
	query := `SELECT id, job_id, filename, content_type, data, created_at
			FROM media WHERE job_id=$1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to select media blobs: %w", err)
	}
	defer rows.Close()

	var result []*models.MediaBlob
	for rows.Next() {
		blob := &models.MediaBlob{}
		if err := rows.Scan(&blob.ID, &blob.JobID, &blob.Filename, &blob.ContentType, &blob.Data, &blob.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, blob)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) DeleteForJob(ctx context.Context, jobID string) error {
	query := `DELETE FROM media WHERE job_id=$1`
	if _, err := r.db.ExecContext(ctx, query, jobID); err != nil {
		return fmt.Errorf("%w: failed to delete media blobs: %w", common.ErrIO, err)
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
