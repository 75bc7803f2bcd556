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

// priorityOrder ranks priorities inside queries so urgent drains first.
const priorityOrder = `CASE priority
		WHEN 'urgent' THEN 3
		WHEN 'high' THEN 2
		WHEN 'normal' THEN 1
		ELSE 0 END`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const jobColumns = `id, kind, payload, status, priority, account,
		submission_attempts, last_attempt_at, retry_after,
		content_hash, tx_hash, last_error, conflict_detected, user_skipped, created_at`

func (r *SQLiteRepository) Create(ctx context.Context, job *models.Job) error {
	payload, err := models.EncodePayload(job.Payload)
	if err != nil {
		return fmt.Errorf("%w: encoding payload: %w", common.ErrIO, err)
	}

	query := `INSERT INTO jobs (` + jobColumns + `)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		job.ID, job.Kind, payload, job.Status, job.Priority, job.Account,
		job.SubmissionAttempts, nullTime(job.LastAttemptAt), nullTime(job.RetryAfter),
		job.ContentHash, job.TxHash, job.LastError, job.ConflictDetected, job.UserSkipped, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to insert job: %w", common.ErrIO, err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	query := `select ` + jobColumns + ` from jobs where id=?`
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

func (r *SQLiteRepository) ListByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	query := `select ` + jobColumns + ` from jobs where status=? order by created_at asc`
	return r.list(ctx, query, status)
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]*models.Job, error) {
	query := `select ` + jobColumns + ` from jobs order by created_at asc`
	return r.list(ctx, query)
}

func (r *SQLiteRepository) ListEligible(ctx context.Context, now time.Time) ([]*models.Job, error) {
	query := `select ` + jobColumns + ` from jobs
			where status='queued' and (retry_after is null or retry_after <= ?)
			order by ` + priorityOrder + ` desc, created_at asc`
	return r.list(ctx, query, now)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*models.Job, error) {
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

func (r *SQLiteRepository) MarkProcessing(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `update jobs set status='processing', last_attempt_at=?
			where id=? and status='queued' and (retry_after is null or retry_after <= ?)`
	res, err := r.db.ExecContext(ctx, query, now, id, now)
	if err != nil {
		return false, fmt.Errorf("%w: failed to mark processing: %w", common.ErrIO, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra == 1, nil
}

func (r *SQLiteRepository) RequeueInFlight(ctx context.Context) (int64, error) {
	query := `update jobs set status='queued' where status='processing'`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to requeue in-flight jobs: %w", common.ErrIO, err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) Update(ctx context.Context, job *models.Job) error {
	query := `update jobs set status=?, submission_attempts=?, last_attempt_at=?,
			retry_after=?, tx_hash=?, last_error=?, conflict_detected=?, user_skipped=?
			where id=?`
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

func (r *SQLiteRepository) SetConflict(ctx context.Context, id string, conflict bool) error {
	query := `update jobs set conflict_detected=? where id=?`
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

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	query := `delete from jobs where id=?`
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

func (r *SQLiteRepository) CountByStatus(ctx context.Context) (map[models.JobStatus]int, error) {
	query := `select status, count(*) from jobs group by status`
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

func (r *SQLiteRepository) OldestQueuedCreatedAt(ctx context.Context) (*time.Time, error) {
	query := `select min(created_at) from jobs where status='queued'`
	var ts sql.NullTime
	if err := r.db.QueryRowContext(ctx, query).Scan(&ts); err != nil {
		return nil, fmt.Errorf("failed to get oldest queued: %w", err)
	}
	if !ts.Valid {
		return nil, nil
	}
	return &ts.Time, nil
}

func (r *SQLiteRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `delete from jobs where status='completed' and created_at < ?`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to delete completed jobs: %w", common.ErrIO, err)
	}
	return res.RowsAffected()
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (*models.Job, error) {
	var (
		job       models.Job
		payload   []byte
		lastAt    sql.NullTime
		retryAt   sql.NullTime
		createdAt time.Time
	)
	err := s.Scan(&job.ID, &job.Kind, &payload, &job.Status, &job.Priority, &job.Account,
		&job.SubmissionAttempts, &lastAt, &retryAt,
		&job.ContentHash, &job.TxHash, &job.LastError, &job.ConflictDetected, &job.UserSkipped, &createdAt)
	if err != nil {
		return nil, err
	}

	job.CreatedAt = createdAt
	if lastAt.Valid {
		job.LastAttemptAt = &lastAt.Time
	}
	if retryAt.Valid {
		job.RetryAfter = &retryAt.Time
	}

	job.Payload, err = models.DecodePayload(job.Kind, payload)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
