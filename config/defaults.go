package config

import "github.com/spf13/viper"

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("selector", ".*")
	v.SetDefault("standalone", true)
	v.SetDefault("sync_period", "60s")

	v.SetDefault("worker_manager.flask_host", "127.0.0.1")
	v.SetDefault("worker_manager.flask_port", 8420)
	v.SetDefault("worker_manager.database_url", "datalineup.db")
	v.SetDefault("worker_manager.static_definitions_dirs", []string{})
	v.SetDefault("worker_manager.work_items_per_worker", 10)

	v.SetDefault("tracer.rate", 0.0)

	v.SetDefault("topology_path", "topology.yaml")
}
