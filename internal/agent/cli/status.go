package cli

import (
	"context"
	"fmt"
	"time"
)

func (a *App) Status(ctx context.Context) error {
	stats, err := a.manager.GetStats(ctx)
	if err != nil {
		return err
	}

	state := "offline"
	if a.watcher.Online() {
		state = "online"
	}

	fmt.Printf("Connectivity: %s\n", state)
	fmt.Printf("Queue: %d queued, %d processing, %d completed, %d failed\n",
		stats.Queued, stats.Processing, stats.Completed, stats.Failed)
	if stats.OldestQueuedAge > 0 {
		fmt.Printf("Oldest queued job: %s ago\n", stats.OldestQueuedAge.Round(time.Second))
	}
	return nil
}
