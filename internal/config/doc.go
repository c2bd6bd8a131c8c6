// Package config loads simdeck's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/simdeck/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing/empty/zero, use defaults
//
// Negative numbers are rejected; every offending field is reported at once.
//
// # TOML Format
//
//	engine_url = "ws://127.0.0.1:7878/engine"
//	simulation = "gray-scott"
//	log_dir = "~/.local/share/simdeck/logs"
//	profiles_path = ""            # empty: built-in profiles
//	device_pixel_ratio = 1.0
//	cell_width = 8.0              # CSS px per terminal cell
//	cell_height = 16.0
//	resync_interval_ms = 5000     # 0 disables periodic resync
//	journal = false               # zstd command journal under <log_dir>/journal
//
//	[autohide]
//	delay_ms = 3000
//	cursor_delay_ms = 2000
//
//	[pointer]
//	zoom_sensitivity = 0.001
//	wheel_step = 100.0            # wheel delta per terminal wheel notch
//
// Tilde expansion is performed for the config path, log_dir and
// profiles_path.
package config
