package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"

	"resumatcher/internal/errors"
)

// watchMu serializes reload callbacks; fsnotify can deliver bursts of
// write events for a single editor save.
var watchMu sync.Mutex

// WatchConfig re-reads the config file on change and hands the validated
// result to onChange. Invalid edits are logged and the previous
// configuration stays active. Must be called after LoadConfig.
func WatchConfig(logger *errors.Logger, onChange func(*Config)) {
	if activeViper == nil || activeViper.ConfigFileUsed() == "" {
		if logger != nil {
			logger.Debug("No config file in use, hot reload disabled")
		}
		return
	}

	activeViper.OnConfigChange(func(e fsnotify.Event) {
		watchMu.Lock()
		defer watchMu.Unlock()

		if logger != nil {
			logger.Info("Config file changed, reloading",
				"file", e.Name,
				"op", e.Op.String())
		}

		if err := activeViper.ReadInConfig(); err != nil {
			if logger != nil {
				logger.LogError(err, "Failed to re-read changed config file", "file", e.Name)
			}
			return
		}

		cfg, err := unmarshalAndValidate(activeViper)
		if err != nil {
			if logger != nil {
				logger.LogError(err, "Rejected invalid config change, keeping previous configuration",
					"file", e.Name)
			}
			return
		}

		if logger != nil {
			logger.Info("Configuration reloaded",
				"file", e.Name,
				"improve_max_attempts", cfg.Improve.MaxAttempts,
				"improve_lock_mode", cfg.Improve.LockMode)
		}

		onChange(cfg)
	})
	activeViper.WatchConfig()
}
