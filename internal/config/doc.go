// Package config provides configuration management for modfetch.
//
// Settings are layered with koanf, later layers overriding earlier ones:
//
//  1. DefaultSettings()
//  2. A config file (.toml, .yaml, .yml or .json), if present
//  3. MODFETCH_* environment variables (MODFETCH_CONCURRENCY=4)
//
// LoadDotEnv can be called first to populate the environment from a .env
// file. Command line flags are applied by the caller on top of the result.
//
// # Loading
//
//	if err := config.LoadDotEnv(""); err != nil {
//	    log.Fatal(err)
//	}
//	settings, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := settings.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Saving
//
//	settings.Concurrency = 4
//	err := settings.Save(config.DefaultPath()) // always TOML
//
// Durations accept Go duration strings ("30s", "1m").
package config
