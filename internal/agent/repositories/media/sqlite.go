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

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
// Media ids are ULIDs so blob listings sort by creation time.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Put(ctx context.Context, jobID string, upload models.MediaUpload) (string, error) {
	id := ulid.Make().String()

	query := `INSERT INTO media (id, job_id, filename, content_type, data, created_at)
			values (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		id, jobID, upload.Filename, upload.ContentType, upload.Data, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("%w: failed to insert media blob: %w", common.ErrIO, err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetForJob(ctx context.Context, jobID string) ([]*models.MediaBlob, error) {
	query := `select id, job_id, filename, content_type, data, created_at
			from media where job_id=? order by id asc`
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

func (r *SQLiteRepository) DeleteForJob(ctx context.Context, jobID string) error {
	query := `delete from media where job_id=?`
	if _, err := r.db.ExecContext(ctx, query, jobID); err != nil {
		return fmt.Errorf("%w: failed to delete media blobs: %w", common.ErrIO, err)
	}
	return nil
}

var _ Repository = (*SQLiteRepository)(nil)
