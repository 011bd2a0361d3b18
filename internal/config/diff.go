package config

// ConfigDiff describes what changed between two configs. Log level and game
// tuning can be applied to a running process; provider and storage changes
// need a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	GameChanged bool
	NewGame     GameConfig

	// RestartRequired is set when storage, words, or server listener
	// settings changed — those are wired at startup.
	RestartRequired bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Game != new.Game {
		d.GameChanged = true
		d.NewGame = new.Game
	}

	if old.Storage != new.Storage ||
		old.Words != new.Words ||
		old.Server.MetricsAddr != new.Server.MetricsAddr {
		d.RestartRequired = true
	}

	return d
}
