package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/gardensync/internal/agent/models"
	"github.com/verdantlabs/gardensync/internal/agent/repositories/jobs"
	"github.com/verdantlabs/gardensync/internal/agent/repositories/media"
	"github.com/verdantlabs/gardensync/internal/common"

	_ "modernc.org/sqlite"
)

func TestInitDatabase_MigratesAndServesRepos(t *testing.T) {
	ctx := context.Background()

	repos, err := InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.DB.Close() })

	job := &models.Job{
		ID:          "j1",
		Kind:        models.JobKindWork,
		Payload:     &models.WorkDraft{GardenID: "g1", ActionID: "a1"},
		Status:      models.JobStatusQueued,
		Priority:    models.PriorityNormal,
		ContentHash: "h1",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repos.Jobs.Create(ctx, job))

	_, err = repos.Media.Put(ctx, "j1", models.MediaUpload{Filename: "x.jpg", Data: []byte("x")})
	require.NoError(t, err)

	got, err := repos.Jobs.GetByID(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, got.Status)

	// migrations are idempotent on an already-migrated database
	require.NoError(t, RunMigrations(ctx, repos.DB))
}

func TestInitDatabase_RequeuesJobsStrandedByCrash(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "agent.db")

	repos, err := InitDatabase(ctx, dsn)
	require.NoError(t, err)

	now := time.Now().UTC()
	job := &models.Job{
		ID:          "j1",
		Kind:        models.JobKindWork,
		Payload:     &models.WorkDraft{GardenID: "g1", ActionID: "a1"},
		Status:      models.JobStatusQueued,
		Priority:    models.PriorityNormal,
		ContentHash: "h1",
		CreatedAt:   now,
	}
	require.NoError(t, repos.Jobs.Create(ctx, job))
	claimed, err := repos.Jobs.MarkProcessing(ctx, "j1", now)
	require.NoError(t, err)
	require.True(t, claimed)

	// simulate a crash mid-processing: the claim is never released
	require.NoError(t, repos.DB.Close())

	repos, err = InitDatabase(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.DB.Close() })

	got, err := repos.Jobs.GetByID(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, got.Status)

	eligible, err := repos.Jobs.ListEligible(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, "j1", eligible[0].ID)
}

func TestAtomic_RollsBackOnError(t *testing.T) {
	ctx := context.Background()

	repos, err := InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.DB.Close() })

	job := &models.Job{
		ID:          "j1",
		Kind:        models.JobKindWork,
		Payload:     &models.WorkDraft{GardenID: "g1", ActionID: "a1"},
		Status:      models.JobStatusQueued,
		Priority:    models.PriorityNormal,
		ContentHash: "h1",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repos.Jobs.Create(ctx, job))
	_, err = repos.Media.Put(ctx, "j1", models.MediaUpload{Filename: "x.jpg", Data: []byte("x")})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = repos.Atomic(ctx, func(j jobs.Repository, m media.Repository) error {
		require.NoError(t, m.DeleteForJob(ctx, "j1"))
		require.NoError(t, j.Delete(ctx, "j1"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	// nothing committed
	_, err = repos.Jobs.GetByID(ctx, "j1")
	require.NoError(t, err)
	blobs, err := repos.Media.GetForJob(ctx, "j1")
	require.NoError(t, err)
	assert.Len(t, blobs, 1)

	// and with a nil error both deletes commit together
	require.NoError(t, repos.Atomic(ctx, func(j jobs.Repository, m media.Repository) error {
		if err := m.DeleteForJob(ctx, "j1"); err != nil {
			return err
		}
		return j.Delete(ctx, "j1")
	}))
	_, err = repos.Jobs.GetByID(ctx, "j1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
