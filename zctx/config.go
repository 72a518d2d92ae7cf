package zctx

import (
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config holds the process-wide settings of a Context (§4.5's
// "process-wide" knobs, as opposed to per-socket Options). IOThreads sets
// how many I/O reactors run. MaxSockets and Linger are stored (Linger is
// also updated by Context.WatchConfigFile), but neither socket creation
// nor Terminate reads them. Loaded from YAML and, optionally, re-read on
// every write to the file it came from.
type Config struct {
	IOThreads  int           `yaml:"io_threads"`
	MaxSockets int           `yaml:"max_sockets"`
	Linger     time.Duration `yaml:"linger"`
}

// DefaultConfig mirrors libzmq's own built-in defaults (1 I/O thread, 1023
// sockets); Linger is left zero.
var DefaultConfig = Config{
	IOThreads:  1,
	MaxSockets: 1023,
}

// LoadConfig reads and parses a YAML config file, filling in any zero field
// from DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.IOThreads <= 0 {
		cfg.IOThreads = DefaultConfig.IOThreads
	}
	if cfg.MaxSockets <= 0 {
		cfg.MaxSockets = DefaultConfig.MaxSockets
	}
	return cfg, nil
}

// WatchConfig re-reads path on every write and calls onChange with the
// freshly parsed Config, the way linkerd2's credswatcher re-reads a cert
// directory on fsnotify.Create — here on fsnotify.Write against one file
// instead of a directory symlink swap. Runs until stop is closed.
func WatchConfig(path string, log *zerolog.Logger, stop <-chan struct{}, onChange func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case ev := <-watcher.Events:
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := LoadConfig(path)
				if err != nil {
					if log != nil {
						log.Warn().Err(err).Str("path", path).Msg("config reload failed")
					}
					continue
				}
				onChange(cfg)
			case err := <-watcher.Errors:
				if log != nil {
					log.Warn().Err(err).Str("path", path).Msg("config watcher error")
				}
			case <-stop:
				return
			}
		}
	}()
	return nil
}
