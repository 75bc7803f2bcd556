package cli

import (
	"context"
	"fmt"
)

func (a *App) Retry(ctx context.Context, jobID string) error {
	if err := a.manager.RetryJob(ctx, jobID); err != nil {
		return err
	}
	fmt.Printf("Job %s re-queued\n", jobID)
	return nil
}

func (a *App) Skip(ctx context.Context, jobID string) error {
	if err := a.manager.SkipJob(ctx, jobID); err != nil {
		return err
	}
	fmt.Printf("Job %s skipped and removed\n", jobID)
	return nil
}

func (a *App) Discard(ctx context.Context, jobID string) error {
	if err := a.manager.DiscardJob(ctx, jobID); err != nil {
		return err
	}
	fmt.Printf("Job %s discarded\n", jobID)
	return nil
}
