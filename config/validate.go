package config

import "fmt"

// Validate checks that the configuration is self-consistent before a worker
// bootstraps. A configuration error here is always fatal.
func (c *Config) Validate() error {
	if c.SyncPeriod <= 0 {
		return fmt.Errorf("sync_period must be > 0, got %v", c.SyncPeriod)
	}
	if !c.Standalone && c.WorkerManagerURL == "" {
		return fmt.Errorf("worker_manager_url is required unless standalone=true")
	}
	if c.WorkerManager.WorkItemsPerWorker < 0 {
		return fmt.Errorf("worker_manager.work_items_per_worker must be >= 0, got %d", c.WorkerManager.WorkItemsPerWorker)
	}
	if c.Tracer.Rate < 0 || c.Tracer.Rate > 1 {
		return fmt.Errorf("tracer.rate must be within [0,1], got %f", c.Tracer.Rate)
	}
	return nil
}
