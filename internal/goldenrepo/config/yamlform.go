// Copyright 2026 The Golden Repo Authors.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// configFile is Config's on-disk shape. yaml.v3 has no special-casing for
// time.Duration — decoding a bare scalar into one yields raw nanoseconds,
// so a file saying "refresh_interval_seconds: 3600" would silently produce
// a 3600ns RefreshInterval. configFile instead spells every duration out
// as plain seconds, matching what an operator actually writes in the YAML
// file and what the original's timeout=N constants meant.
type configFile struct {
	Root string `yaml:"root"`

	RefreshIntervalSeconds float64 `yaml:"refresh_interval_seconds"`

	CoWCloneTimeoutSeconds         float64 `yaml:"cow_clone_timeout"`
	GitUpdateIndexTimeoutSeconds   float64 `yaml:"git_update_index_timeout"`
	GitRestoreTimeoutSeconds       float64 `yaml:"git_restore_timeout"`
	CidxFixConfigTimeoutSeconds    float64 `yaml:"cidx_fix_config_timeout"`
	CidxIndexTimeoutSeconds        float64 `yaml:"cidx_index_timeout"`
	CidxSCIPGenerateTimeoutSeconds float64 `yaml:"cidx_scip_generate_timeout"`
	GitOperationTimeoutSeconds     float64 `yaml:"git_operation_timeout"`

	MultiSearchMaxWorkers        int     `yaml:"multi_search_max_workers"`
	MultiSearchTimeoutSecondsRaw float64 `yaml:"multi_search_timeout_seconds"`

	CleanupMaxFailures             int     `yaml:"cleanup_max_failures"`
	CleanupBaseBackoffDelaySeconds float64 `yaml:"cleanup_base_backoff_delay"`
	CleanupMaxBackoffDelaySeconds  float64 `yaml:"cleanup_max_backoff_delay"`
	CleanupFDUsageThreshold        float64 `yaml:"cleanup_fd_usage_threshold"`
	CleanupCheckIntervalSeconds    float64 `yaml:"cleanup_check_interval"`

	WriteModeMarkerTTLSeconds float64 `yaml:"write_mode_marker_ttl"`

	IndexerBinary  string `yaml:"indexer_binary"`
	EnableTemporal bool   `yaml:"enable_temporal"`
	EnableSCIP     bool   `yaml:"enable_scip"`
}

func seconds(d time.Duration) float64 {
	return d.Seconds()
}

func fromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (c Config) toFile() configFile {
	return configFile{
		Root: c.Root,

		RefreshIntervalSeconds: seconds(c.RefreshInterval),

		CoWCloneTimeoutSeconds:         seconds(c.CoWCloneTimeout),
		GitUpdateIndexTimeoutSeconds:   seconds(c.GitUpdateIndexTimeout),
		GitRestoreTimeoutSeconds:       seconds(c.GitRestoreTimeout),
		CidxFixConfigTimeoutSeconds:    seconds(c.CidxFixConfigTimeout),
		CidxIndexTimeoutSeconds:        seconds(c.CidxIndexTimeout),
		CidxSCIPGenerateTimeoutSeconds: seconds(c.CidxSCIPGenerateTimeout),
		GitOperationTimeoutSeconds:     seconds(c.GitOperationTimeout),

		MultiSearchMaxWorkers:        c.MultiSearchMaxWorkers,
		MultiSearchTimeoutSecondsRaw: seconds(c.MultiSearchTimeoutSeconds),

		CleanupMaxFailures:             c.CleanupMaxFailures,
		CleanupBaseBackoffDelaySeconds: seconds(c.CleanupBaseBackoffDelay),
		CleanupMaxBackoffDelaySeconds:  seconds(c.CleanupMaxBackoffDelay),
		CleanupFDUsageThreshold:        c.CleanupFDUsageThreshold,
		CleanupCheckIntervalSeconds:    seconds(c.CleanupCheckInterval),

		WriteModeMarkerTTLSeconds: seconds(c.WriteModeMarkerTTL),

		IndexerBinary:  c.IndexerBinary,
		EnableTemporal: c.EnableTemporal,
		EnableSCIP:     c.EnableSCIP,
	}
}

func (cf configFile) toConfig() Config {
	return Config{
		Root: cf.Root,

		RefreshInterval: fromSeconds(cf.RefreshIntervalSeconds),

		CoWCloneTimeout:         fromSeconds(cf.CoWCloneTimeoutSeconds),
		GitUpdateIndexTimeout:   fromSeconds(cf.GitUpdateIndexTimeoutSeconds),
		GitRestoreTimeout:       fromSeconds(cf.GitRestoreTimeoutSeconds),
		CidxFixConfigTimeout:    fromSeconds(cf.CidxFixConfigTimeoutSeconds),
		CidxIndexTimeout:        fromSeconds(cf.CidxIndexTimeoutSeconds),
		CidxSCIPGenerateTimeout: fromSeconds(cf.CidxSCIPGenerateTimeoutSeconds),
		GitOperationTimeout:     fromSeconds(cf.GitOperationTimeoutSeconds),

		MultiSearchMaxWorkers:     cf.MultiSearchMaxWorkers,
		MultiSearchTimeoutSeconds: fromSeconds(cf.MultiSearchTimeoutSecondsRaw),

		CleanupMaxFailures:      cf.CleanupMaxFailures,
		CleanupBaseBackoffDelay: fromSeconds(cf.CleanupBaseBackoffDelaySeconds),
		CleanupMaxBackoffDelay:  fromSeconds(cf.CleanupMaxBackoffDelaySeconds),
		CleanupFDUsageThreshold: cf.CleanupFDUsageThreshold,
		CleanupCheckInterval:    fromSeconds(cf.CleanupCheckIntervalSeconds),

		WriteModeMarkerTTL: fromSeconds(cf.WriteModeMarkerTTLSeconds),

		IndexerBinary:  cf.IndexerBinary,
		EnableTemporal: cf.EnableTemporal,
		EnableSCIP:     cf.EnableSCIP,
	}
}

// MarshalYAML renders c as plain-seconds durations rather than
// time.Duration's default (which yaml.v3 would emit as nanoseconds).
func (c Config) MarshalYAML() (interface{}, error) {
	return c.toFile(), nil
}

// UnmarshalYAML decodes onto the Config's existing field values: any key
// a document omits keeps whatever *c already held (normally a Default()
// baseline), so a config file only needs to name the keys it overrides.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	cf := c.toFile()
	if err := value.Decode(&cf); err != nil {
		return err
	}
	*c = cf.toConfig()
	return nil
}
