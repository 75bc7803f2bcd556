package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/verdantlabs/gardensync/internal/agent/models"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func remoteWork(id string, age time.Duration) models.WorkRecord {
	return models.WorkRecord{
		ID:          id,
		GardenID:    "garden-1",
		ActionID:    "water",
		Gardener:    "gardener-1",
		ContentHash: "hash-" + id,
		CreatedAt:   base.Add(-age),
	}
}

func localWorkJob(id string, age time.Duration) *models.Job {
	return &models.Job{
		ID:   id,
		Kind: models.JobKindWork,
		Payload: &models.WorkDraft{
			GardenID: "garden-1",
			ActionID: "prune",
			Feedback: "offline entry",
		},
		Status:      models.JobStatusQueued,
		ContentHash: "hash-" + id,
		CreatedAt:   base.Add(-age),
	}
}

func TestComputeMergedWorks_StatusFromApprovals(t *testing.T) {
	works := []models.WorkRecord{remoteWork("w1", time.Hour), remoteWork("w2", 2*time.Hour), remoteWork("w3", 3*time.Hour)}
	approvals := []models.ApprovalRecord{
		{ID: "a1", WorkID: "w2", Approved: true, CreatedAt: base},
		{ID: "a2", WorkID: "w3", Approved: false, CreatedAt: base},
	}

	got := ComputeMergedWorks(works, approvals, nil, nil)

	assert.Len(t, got, 3)
	assert.Equal(t, "w1", got[0].ID)
	assert.Equal(t, models.WorkStatusPending, got[0].Status)
	assert.Equal(t, models.WorkStatusApproved, got[1].Status)
	assert.Equal(t, models.WorkStatusRejected, got[2].Status)
	for _, r := range got {
		assert.False(t, r.IsOffline)
		assert.False(t, r.StatusFromLocal)
	}
}

func TestComputeMergedWorks_LatestApprovalWins(t *testing.T) {
	works := []models.WorkRecord{remoteWork("w1", time.Hour)}
	approvals := []models.ApprovalRecord{
		{ID: "a1", WorkID: "w1", Approved: false, CreatedAt: base.Add(-30 * time.Minute)},
		{ID: "a2", WorkID: "w1", Approved: true, CreatedAt: base},
	}

	got := ComputeMergedWorks(works, approvals, nil, nil)
	assert.Equal(t, models.WorkStatusApproved, got[0].Status)
}

func TestComputeMergedWorks_OfflineJobsSynthesized(t *testing.T) {
	works := []models.WorkRecord{remoteWork("w1", 2*time.Hour)}
	local := []*models.Job{localWorkJob("j1", time.Hour)}

	got := ComputeMergedWorks(works, nil, local, nil)

	assert.Len(t, got, 2)
	// local job is newer, so it sorts first
	assert.Equal(t, "j1", got[0].ID)
	assert.True(t, got[0].IsOffline)
	assert.Equal(t, models.WorkStatusPending, got[0].Status)
	assert.Equal(t, "j1", got[0].JobID)
	assert.Equal(t, "prune", got[0].ActionID)
	assert.False(t, got[1].IsOffline)
}

func TestComputeMergedWorks_SyncedJobNotDuplicated(t *testing.T) {
	// after the indexer catches up, the remote record and the local job
	// share a content hash; only the remote record may appear
	remote := remoteWork("w1", time.Hour)
	job := localWorkJob("j1", time.Hour)
	job.ContentHash = remote.ContentHash

	got := ComputeMergedWorks([]models.WorkRecord{remote}, nil, []*models.Job{job}, nil)

	assert.Len(t, got, 1)
	assert.Equal(t, "w1", got[0].ID)

	ids := make(map[string]bool)
	for _, r := range got {
		assert.False(t, ids[r.ID], "duplicate id %s", r.ID)
		ids[r.ID] = true
	}
}

func TestComputeMergedWorks_CompletedJobShownWhileIndexerLags(t *testing.T) {
	// the attestation is on the ledger but the indexer has not served it
	// yet; the record must not vanish for the duration of the lag
	job := localWorkJob("j1", time.Hour)
	job.Status = models.JobStatusCompleted

	got := ComputeMergedWorks(nil, nil, []*models.Job{job}, nil)

	assert.Len(t, got, 1)
	assert.Equal(t, "j1", got[0].ID)
	assert.True(t, got[0].IsSyncing)
	assert.False(t, got[0].IsOffline)
	assert.Equal(t, models.WorkStatusPending, got[0].Status)
}

func TestComputeMergedWorks_CompletedJobExcludedOnceIndexed(t *testing.T) {
	remote := remoteWork("w1", time.Hour)
	job := localWorkJob("j1", time.Hour)
	job.Status = models.JobStatusCompleted
	job.ContentHash = remote.ContentHash

	got := ComputeMergedWorks([]models.WorkRecord{remote}, nil, []*models.Job{job}, nil)

	assert.Len(t, got, 1)
	assert.Equal(t, "w1", got[0].ID)
	assert.False(t, got[0].IsSyncing)
}

func TestComputeMergedWorks_LocalMediaOnSynthesizedRecords(t *testing.T) {
	local := []*models.Job{localWorkJob("j1", time.Hour)}
	media := map[string][]string{
		"j1": {"local://01ARZ/proof.jpg", "local://01AS0/after.jpg"},
	}

	got := ComputeMergedWorks(nil, nil, local, media)

	assert.Len(t, got, 1)
	assert.Equal(t, media["j1"], got[0].MediaURIs)
}

func TestComputeMergedWorks_LocalApprovalOverridesPending(t *testing.T) {
	works := []models.WorkRecord{remoteWork("w1", time.Hour)}
	local := []*models.Job{{
		ID:        "j1",
		Kind:      models.JobKindApproval,
		Payload:   &models.ApprovalDraft{WorkID: "w1", Approved: true},
		Status:    models.JobStatusQueued,
		CreatedAt: base,
	}}

	got := ComputeMergedWorks(works, nil, local, nil)

	assert.Len(t, got, 1)
	assert.Equal(t, models.WorkStatusApproved, got[0].Status)
	assert.True(t, got[0].StatusFromLocal, "optimistic status must be flagged as local")
	assert.Equal(t, "j1", got[0].JobID)
}

func TestComputeMergedWorks_RemoteApprovalBeatsLocal(t *testing.T) {
	works := []models.WorkRecord{remoteWork("w1", time.Hour)}
	approvals := []models.ApprovalRecord{{ID: "a1", WorkID: "w1", Approved: false, CreatedAt: base}}
	local := []*models.Job{{
		ID:        "j1",
		Kind:      models.JobKindApproval,
		Payload:   &models.ApprovalDraft{WorkID: "w1", Approved: true},
		Status:    models.JobStatusQueued,
		CreatedAt: base,
	}}

	got := ComputeMergedWorks(works, approvals, local, nil)

	assert.Equal(t, models.WorkStatusRejected, got[0].Status)
	assert.False(t, got[0].StatusFromLocal)
}

func TestComputeMergedWorks_LocalApprovalForUnknownWorkIgnored(t *testing.T) {
	local := []*models.Job{{
		ID:        "j1",
		Kind:      models.JobKindApproval,
		Payload:   &models.ApprovalDraft{WorkID: "not-indexed", Approved: true},
		Status:    models.JobStatusQueued,
		CreatedAt: base,
	}}

	got := ComputeMergedWorks(nil, nil, local, nil)
	assert.Empty(t, got)
}

func TestComputeMergedWorks_Deterministic(t *testing.T) {
	works := []models.WorkRecord{remoteWork("w2", 2*time.Hour), remoteWork("w1", time.Hour)}
	local := []*models.Job{localWorkJob("j1", 90*time.Minute)}

	first := ComputeMergedWorks(works, nil, local, nil)
	second := ComputeMergedWorks(works, nil, local, nil)
	assert.Equal(t, first, second)

	// newest first
	assert.Equal(t, []string{"w1", "j1", "w2"}, []string{first[0].ID, first[1].ID, first[2].ID})
}
