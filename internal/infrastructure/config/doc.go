// Package config provides configuration loading for Fleet Core.
//
// Configuration is loaded in three layers, each overriding the last:
//
//  1. Hardcoded defaults (defaultConfig)
//  2. YAML file (configs/config.yaml by default)
//  3. FLEETCORE_* environment variables
//
// The loaded Config is validated before use; an invalid configuration is
// a startup error, never a silent fallback. The validation enforces the
// relationship the poller depends on: the per-request timeout is strictly
// shorter than the poll interval.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	interval := cfg.PollInterval()
package config
