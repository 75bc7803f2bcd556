package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/verdantlabs/gardensync/internal/agent/models"
	"github.com/verdantlabs/gardensync/internal/common"
	"github.com/verdantlabs/gardensync/internal/dbx"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or
// *sql.Tx) opened with the pgx stdlib driver. It backs hub/kiosk
// deployments where several devices share one queue database.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const pgPriorityOrder = `CASE priority
		WHEN 'urgent' THEN 3
		WHEN 'high' THEN 2
		WHEN 'normal' THEN 1
		ELSE 0 END`

func (r *PostgresRepository) Create(ctx context.Context, job *models.Job) error {
	payload, err := models.EncodePayload(job.Payload)
	if err != nil {
		return fmt.Errorf("%w: encoding payload: %w", common.ErrIO, err)
	}

	query := `INSERT INTO jobs (` + jobColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = r.db.ExecContext(ctx, query,
		job.ID, job.Kind, payload, job.Status, job.Priority, job.Account,
		job.SubmissionAttempts, nullTime(job.LastAttemptAt), nullTime(job.RetryAfter),
		job.ContentHash, job.TxHash, job.LastError, job.ConflictDetected, job.UserSkipped, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to insert job: %w", common.ErrIO, err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id=$1`
	row := r.db.QueryRowContext(ctx, query, id)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (r *PostgresRepository) ListByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status=$1 ORDER BY created_at ASC`
	return r.list(ctx, query, status)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at ASC`
	return r.list(ctx, query)
}

func (r *PostgresRepository) ListEligible(ctx context.Context, now time.Time) ([]*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs
			WHERE status='queued' AND (retry_after IS NULL OR retry_after <= $1)
			ORDER BY ` + pgPriorityOrder + ` DESC, created_at ASC`
	return r.list(ctx, query, now)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Job, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select jobs: %w", err)
	}
	defer rows.Close()

	var result []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) MarkProcessing(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `UPDATE jobs SET status='processing', last_attempt_at=$1
			WHERE id=$2 AND status='queued' AND (retry_after IS NULL OR retry_after <= $1)`
	res, err := r.db.ExecContext(ctx, query, now, id)
	if err != nil {
		return false, fmt.Errorf("%w: failed to mark processing: %w", common.ErrIO, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra == 1, nil
}

func (r *PostgresRepository) RequeueInFlight(ctx context.Context) (int64, error) {
	query := `UPDATE jobs SET status='queued' WHERE status='processing'`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to requeue in-flight jobs: %w", common.ErrIO, err)
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) Update(ctx context.Context, job *models.Job) error {
	query := `UPDATE jobs SET status=$1, submission_attempts=$2, last_attempt_at=$3,
			retry_after=$4, tx_hash=$5, last_error=$6, conflict_detected=$7, user_skipped=$8
			WHERE id=$9`
	res, err := r.db.ExecContext(ctx, query,
		job.Status, job.SubmissionAttempts, nullTime(job.LastAttemptAt),
		nullTime(job.RetryAfter), job.TxHash, job.LastError, job.ConflictDetected,
		job.UserSkipped, job.ID)
	if err != nil {
		return fmt.Errorf("%w: failed to update job: %w", common.ErrIO, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetConflict(ctx context.Context, id string, conflict bool) error {
	query := `UPDATE jobs SET conflict_detected=$1 WHERE id=$2`
	res, err := r.db.ExecContext(ctx, query, conflict, id)
	if err != nil {
		return fmt.Errorf("%w: failed to set conflict flag: %w", common.ErrIO, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM jobs WHERE id=$1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete job: %w", common.ErrIO, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) CountByStatus(ctx context.Context) (map[models.JobStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM jobs GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()

	result := make(map[models.JobStatus]int)
	for rows.Next() {
		var status models.JobStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		result[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) OldestQueuedCreatedAt(ctx context.Context) (*time.Time, error) {
	query := `SELECT MIN(created_at) FROM jobs WHERE status='queued'`
	var ts sql.NullTime
	if err := r.db.QueryRowContext(ctx, query).Scan(&ts); err != nil {
		return nil, fmt.Errorf("failed to get oldest queued: %w", err)
	}
	if !ts.Valid {
		return nil, nil
	}
	return &ts.Time, nil
}

func (r *PostgresRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM jobs WHERE status='completed' AND created_at < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to delete completed jobs: %w", common.ErrIO, err)
	}
	return res.RowsAffected()
}

var (
	_ Repository = (*SQLiteRepository)(nil)
	_ Repository = (*PostgresRepository)(nil)
)
