// Package storage opens the agent's database and builds the repository set
// over it: SQLite on devices, Postgres for hub/kiosk deployments where many
// gardeners share one queue.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/verdantlabs/gardensync/internal/agent/migrations"
	"github.com/verdantlabs/gardensync/internal/agent/repositories/jobs"
	"github.com/verdantlabs/gardensync/internal/agent/repositories/media"
	"github.com/verdantlabs/gardensync/internal/dbx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Repositories struct {
	Jobs  jobs.Repository
	Media media.Repository
	DB    *sql.DB

	jobsFor  func(dbx.DBTX) jobs.Repository
	mediaFor func(dbx.DBTX) media.Repository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (or creates) the SQLite database at dsn, applies
// pending migrations and returns the repositories. Jobs stranded in
// processing by a crash are put back in the queue before the repositories
// are handed out. The caller owns the returned DB handle and must close it
// on shutdown.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// single writer; one connection avoids SQLITE_BUSY and keeps
	// in-memory databases coherent across the pool
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	jobsFor := func(h dbx.DBTX) jobs.Repository { return jobs.NewSQLiteRepository(h) }
	mediaFor := func(h dbx.DBTX) media.Repository { return media.NewSQLiteRepository(h) }

	r := &Repositories{
		Jobs:     jobsFor(db),
		Media:    mediaFor(db),
		DB:       db,
		jobsFor:  jobsFor,
		mediaFor: mediaFor,
	}

	// the agent is this store's only writer, so any processing row at
	// open time is a claim the previous run never released
	if _, err := r.Jobs.RequeueInFlight(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return r, nil
}

// InitPostgresDatabase connects to a hub-side Postgres over the pgx driver.
// Hub schemas are managed by the hub's own migration pipeline, so nothing
// is migrated here.
func InitPostgresDatabase(dsn string) (*Repositories, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	jobsFor := func(h dbx.DBTX) jobs.Repository { return jobs.NewPostgresRepository(h) }
	mediaFor := func(h dbx.DBTX) media.Repository { return media.NewPostgresRepository(h) }

	return &Repositories{
		Jobs:     jobsFor(db),
		Media:    mediaFor(db),
		DB:       db,
		jobsFor:  jobsFor,
		mediaFor: mediaFor,
	}, nil
}

// Atomic runs fn against transaction-scoped repositories: either every
// write inside fn commits or none do.
func (r *Repositories) Atomic(ctx context.Context, fn func(jobs.Repository, media.Repository) error) error {
	return dbx.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(r.jobsFor(tx), r.mediaFor(tx))
	})
}
