// Package merge computes the reconciled view of work submissions: the
// authoritative remote records from the indexer, unified with locally
// queued jobs the ledger has not seen yet. The computation is pure; it
// never mutates its inputs and may run concurrently with queue processing.
package merge

import (
	"sort"

	"github.com/verdantlabs/gardensync/internal/agent/models"
)

// ComputeMergedWorks unifies remote works, remote approvals and local jobs
// into one deterministic list, newest first, with unique ids. Remote
// records are authoritative; local jobs only add records the indexer does
// not know yet, or optimistically override a pending status with a locally
// queued approval. localMedia maps a job id to its locally cached media
// URIs, shown on synthesized records until the remote gateway copies exist.
func ComputeMergedWorks(remoteWorks []models.WorkRecord, remoteApprovals []models.ApprovalRecord, localJobs []*models.Job, localMedia map[string][]string) []models.MergedWorkRecord {
	// at most one approval per work is authoritative; latest wins
	approvalByWork := make(map[string]models.ApprovalRecord, len(remoteApprovals))
	for _, a := range remoteApprovals {
		prev, ok := approvalByWork[a.WorkID]
		if !ok || a.CreatedAt.After(prev.CreatedAt) {
			approvalByWork[a.WorkID] = a
		}
	}

	merged := make([]models.MergedWorkRecord, 0, len(remoteWorks)+len(localJobs))
	seen := make(map[string]int, len(remoteWorks))
	remoteHashes := make(map[string]struct{}, len(remoteWorks))

	for _, w := range remoteWorks {
		if _, dup := seen[w.ID]; dup {
			continue
		}
		status := models.WorkStatusPending
		if a, ok := approvalByWork[w.ID]; ok {
			if a.Approved {
				status = models.WorkStatusApproved
			} else {
				status = models.WorkStatusRejected
			}
		}
		seen[w.ID] = len(merged)
		if w.ContentHash != "" {
			remoteHashes[w.ContentHash] = struct{}{}
		}
		merged = append(merged, models.MergedWorkRecord{
			ID:        w.ID,
			GardenID:  w.GardenID,
			ActionID:  w.ActionID,
			Gardener:  w.Gardener,
			Feedback:  w.Feedback,
			MediaURIs: w.MediaURIs,
			Status:    status,
			CreatedAt: w.CreatedAt,
		})
	}

	for _, job := range localJobs {
		switch payload := job.Payload.(type) {
		case *models.WorkDraft:
			if _, synced := remoteHashes[job.ContentHash]; synced {
				continue
			}
			// a completed job the indexer has not caught up with must
			// still appear: the submission exists on the ledger and
			// vanishing from the view during indexing lag reads as loss
			merged = append(merged, models.MergedWorkRecord{
				ID:        job.ID,
				GardenID:  payload.GardenID,
				ActionID:  payload.ActionID,
				Feedback:  payload.Feedback,
				MediaURIs: localMedia[job.ID],
				Status:    models.WorkStatusPending,
				IsOffline: job.Status != models.JobStatusCompleted,
				IsSyncing: job.Status == models.JobStatusCompleted,
				JobID:     job.ID,
				CreatedAt: job.CreatedAt,
			})

		case *models.ApprovalDraft:
			idx, known := seen[payload.WorkID]
			if !known {
				continue
			}
			if _, decided := approvalByWork[payload.WorkID]; decided {
				continue
			}
			if payload.Approved {
				merged[idx].Status = models.WorkStatusApproved
			} else {
				merged[idx].Status = models.WorkStatusRejected
			}
			merged[idx].StatusFromLocal = true
			merged[idx].JobID = job.ID
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].CreatedAt.After(merged[j].CreatedAt)
		}
		return merged[i].ID < merged[j].ID
	})
	return merged
}
