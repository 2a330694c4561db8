package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/khulnasoft/DataLineup/config"
	"github.com/khulnasoft/DataLineup/cursor"
	"github.com/khulnasoft/DataLineup/db"
	"github.com/khulnasoft/DataLineup/errors"
	"github.com/khulnasoft/DataLineup/logger"
	"github.com/khulnasoft/DataLineup/manager"
	"github.com/khulnasoft/DataLineup/registry"
	"github.com/khulnasoft/DataLineup/resources"
	"github.com/khulnasoft/DataLineup/storeadmin"
	"github.com/khulnasoft/DataLineup/topology"
	"github.com/khulnasoft/DataLineup/work"
)

var workerConfigPath string

// WorkerCmd starts the sync loop: lock queues, run their pipelines, and
// keep reconciling against whatever the manager (or the local topology
// file, in standalone mode) hands back.
var WorkerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the worker sync loop",
	Long:  `Start a worker: lock assigned queues from a manager (or a local topology file in standalone mode), run their executor pipelines, and keep reconciling on a fixed period until interrupted.`,
	RunE:  runWorker,
}

func init() {
	WorkerCmd.Flags().StringVar(&workerConfigPath, "config", "", "path to a TOML config file (defaults to environment variables only)")
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := loadWorkerConfig()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if cfg.WorkerID == "" {
		return errors.New("worker_id is required")
	}

	reg := registry.NewDefault()
	res := resources.NewManager()
	cursors := cursor.NewStore()

	var client manager.Client
	var stopWatcher func()

	if cfg.Standalone {
		client, stopWatcher, err = buildStandaloneClient(cfg)
		if err != nil {
			return errors.Wrap(err, "build standalone client")
		}
	} else {
		if cfg.WorkerManagerURL == "" {
			return errors.New("worker_manager_url is required when standalone is false")
		}
		client = manager.NewHTTPClient(cfg.WorkerManagerURL, 30*time.Second)
	}
	if stopWatcher != nil {
		defer stopWatcher()
	}

	syncer := work.New(client, cfg.WorkerID, reg, res, cursors, logger.Logger)
	if cfg.SyncPeriod > 0 {
		syncer.SyncPeriod = cfg.SyncPeriod
	}
	syncer.BuildExecutor = buildInlineExecutor

	target := cfg.WorkerManagerURL
	if cfg.Standalone {
		target = cfg.TopologyPath
	}
	printStartupBanner(cfg.WorkerID, cfg.Standalone, target, syncer.SyncPeriod.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Logger.Infow("shutdown signal received, draining")
		cancel()
	}()

	if err := syncer.Start(ctx); err != nil && err != context.Canceled {
		return errors.Wrap(err, "sync loop")
	}
	return nil
}

func loadWorkerConfig() (*config.Config, error) {
	if workerConfigPath != "" {
		return config.LoadFromFile(workerConfigPath)
	}
	return config.Load()
}

// buildStandaloneClient opens the local SQLite store, compiles the
// declarative topology file against it, and wires a fsnotify watcher so
// edits to that file take effect without a restart.
func buildStandaloneClient(cfg *config.Config) (manager.Client, func(), error) {
	if cfg.TopologyPath == "" {
		return nil, nil, errors.New("topology_path is required when standalone is true")
	}
	dbPath := cfg.WorkerManager.DatabaseURL
	if dbPath == "" {
		dbPath = "datalineup.db"
	}

	sqlDB, err := db.OpenWithMigrations(dbPath, logger.Logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open standalone database")
	}

	topo, err := loadTopologyFile(cfg.TopologyPath)
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	store := storeadmin.NewStore(sqlDB)
	client, err := storeadmin.NewClient(context.Background(), store, topo)
	if err != nil {
		sqlDB.Close()
		return nil, nil, errors.Wrap(err, "compile topology")
	}

	watcher, err := config.NewTopologyWatcher(cfg.TopologyPath, logger.Logger)
	if err != nil {
		sqlDB.Close()
		return nil, nil, errors.Wrap(err, "watch topology file")
	}
	watcher.OnReload(func(path string) error {
		reloaded, err := loadTopologyFile(path)
		if err != nil {
			return err
		}
		return client.Reload(context.Background(), reloaded)
	})
	watcher.Start()

	stop := func() {
		watcher.Stop()
		sqlDB.Close()
	}
	return client, stop, nil
}

func loadTopologyFile(path string) (*topology.Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read topology file %s", path)
	}
	topo, err := topology.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse topology file %s", path)
	}
	return topo, nil
}
