// Package config loads the steady configuration file.
//
// # Overview
//
// Every tunable of the resilience coordinator lives here: the debounce window
// of the duplicate guard, the request timeout, the health probe cadence and
// slow threshold, the offline queue retry policy, and the stuck-state janitor
// age tiers. The file is optional; a missing file yields the defaults below.
//
// # Configuration Discovery
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/steady/config.toml
//  3. If the file doesn't exist, use defaults
//  4. Fields absent from the file keep their defaults
//
// # TOML Format
//
// Durations are whole milliseconds:
//
//	base_url = "127.0.0.1:8040"
//	health_path = "/health/"
//	duplicate_window_ms = 2000
//	request_timeout_ms = 10000
//	slow_threshold_ms = 3000
//	max_retries = 3
//	retry_delay_ms = 1000
//	health_check_interval_ms = 30000
//	guard_retention_ms = 300000
//	queue_max_age_ms = 600000
//	debug = false
//	log_file = "~/.local/share/steady/steady.log"
//
//	[janitor]
//	periodic_ms = 15000
//	fetch_ms = 10000
//	visible_ms = 5000
//	app_switch_ms = 3000
//	hidden_ms = 5000
//	app_switch_delay_ms = 1000
//
// # Validation
//
// Values are checked with go-playground/validator after parsing. A timeout or
// probe interval of zero, fewer than one retry, or a guard retention shorter
// than the duplicate window are rejected with a "validate config" error.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, TOML parse errors, and validation failures.
package config
