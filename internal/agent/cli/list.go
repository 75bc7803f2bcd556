package cli

import (
	"context"
	"fmt"

	"github.com/verdantlabs/gardensync/internal/agent/merge"
	"github.com/verdantlabs/gardensync/internal/agent/models"
)

// List prints the merged view of work records: everything the indexer
// knows, unified with local jobs still waiting to sync. Remote reads may
// fail while offline; in that case the view degrades to local jobs only.
func (a *App) List(ctx context.Context) error {
	var (
		remoteWorks     []models.WorkRecord
		remoteApprovals []models.ApprovalRecord
	)

	if a.watcher.Online() {
		works, err := a.ledger.GetWorks(ctx, "")
		if err != nil {
			a.log.Warn(ctx, "indexer read failed, showing local records only", "error", err)
		} else {
			remoteWorks = works
			if approvals, err := a.ledger.GetApprovals(ctx, ""); err != nil {
				a.log.Warn(ctx, "approvals read failed", "error", err)
			} else {
				remoteApprovals = approvals
			}

			if err := a.manager.Reconcile(ctx, remoteWorks); err != nil {
				a.log.Warn(ctx, "reconciliation failed", "error", err)
			}
		}
	}

	localJobs, err := a.manager.ListJobs(ctx)
	if err != nil {
		return err
	}

	merged := merge.ComputeMergedWorks(remoteWorks, remoteApprovals, localJobs, a.localMediaURIs(ctx, localJobs))
	if len(merged) == 0 {
		fmt.Println("No work records")
		return nil
	}

	for _, r := range merged {
		marker := ""
		if r.IsOffline {
			marker = " [offline]"
		} else if r.IsSyncing || r.StatusFromLocal {
			marker = " [syncing]"
		}
		media := ""
		if len(r.MediaURIs) > 0 {
			media = fmt.Sprintf(" media=%d", len(r.MediaURIs))
		}
		fmt.Printf("%s  %-8s %s/%s %s%s%s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.Status, r.GardenID, r.ActionID, r.ID, marker, media)
	}
	return nil
}

// localMediaURIs collects cached attachment URIs per job, substituting for
// the remote gateway URLs a synthesized record does not have yet.
func (a *App) localMediaURIs(ctx context.Context, jobs []*models.Job) map[string][]string {
	uris := make(map[string][]string)
	for _, j := range jobs {
		if j.Kind != models.JobKindWork || j.Status == models.JobStatusCompleted {
			continue
		}
		blobs, err := a.repos.Media.GetForJob(ctx, j.ID)
		if err != nil {
			a.log.Warn(ctx, "failed to read local media", "job_id", j.ID, "error", err)
			continue
		}
		for _, b := range blobs {
			uris[j.ID] = append(uris[j.ID], "local://"+b.ID+"/"+b.Filename)
		}
	}
	return uris
}

// Pending prints the local job queue with per-job state.
func (a *App) Pending(ctx context.Context) error {
	jobs, err := a.manager.ListJobs(ctx)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("Queue is empty")
		return nil
	}

	for _, j := range jobs {
		extra := ""
		if j.RetryAfter != nil {
			extra = fmt.Sprintf(" retry at %s", j.RetryAfter.Format("15:04:05"))
		}
		if j.ConflictDetected {
			extra += " [conflict]"
		}
		if j.LastError != "" {
			extra += fmt.Sprintf(" (%s)", j.LastError)
		}
		fmt.Printf("%s  %-10s %-8s %-8s attempts=%d%s\n",
			j.ID, j.Status, j.Kind, j.Priority, j.SubmissionAttempts, extra)
	}
	return nil
}
