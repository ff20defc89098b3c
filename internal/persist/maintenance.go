package persist

import (
	"context"
	"errors"
	"log"
	"time"
)

// DefaultKeepBackups is how many backups maintenance leaves behind.
const DefaultKeepBackups = 3

// MaintenanceResult contains the statistics of a maintenance run.
type MaintenanceResult struct {
	Backup        string
	PrunedBackups int
	Duration      time.Duration
}

// Maintenance snapshots the current state and prunes old backups. Backends
// without backup support have nothing to do.
func Maintenance(ctx context.Context, b Backend, keep int) (MaintenanceResult, error) {
	start := time.Now()
	bk, ok := b.(Backuper)
	if !ok {
		return MaintenanceResult{Duration: time.Since(start)}, nil
	}
	var res MaintenanceResult
	name, err := bk.Backup(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return res, err
	}
	res.Backup = name
	pruned, err := bk.PruneBackups(keep)
	res.PrunedBackups = pruned
	res.Duration = time.Since(start)
	return res, err
}

// StartMaintenanceWorker runs Maintenance immediately and then every
// interval until ctx is done. The returned channel closes when the worker
// has stopped.
func StartMaintenanceWorker(ctx context.Context, b Backend, interval time.Duration, keep int) <-chan struct{} {
	log.Printf("[MAINTENANCE] Starting background maintenance worker")
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	runAllTasks := func() {
		result, err := Maintenance(ctx, b, keep)
		if err != nil {
			log.Printf("[MAINTENANCE] Maintenance failed: %v", err)
			return
		}
		log.Printf("[MAINTENANCE] Maintenance complete in %v. Backup: %q. Pruned: %d backups.",
			result.Duration.Round(time.Millisecond), result.Backup, result.PrunedBackups)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		runAllTasks()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Printf("[MAINTENANCE] Background maintenance worker stopping")
				return
			case <-ticker.C:
				runAllTasks()
			}
		}
	}()
	return done
}
