package daemon

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/banksean/snowland/internal/ipc"
)

// FileConfig holds daemon tunables that are awkward to express as CLI
// flags - things an operator sets once for a machine and forgets about,
// rather than passing on every invocation (§4.1's socket directory,
// §4.3's persistence path and frame pacing). Grounded on
// cmd/sand/main.go's kong.Configuration loader, generalized to a plain
// YAML document read with gopkg.in/yaml.v3 instead of kong's
// flag-binding config layer, since these three values aren't really
// "flags" so much as host-level defaults.
type FileConfig struct {
	SocketDir       string        `yaml:"socket_dir"`
	PersistencePath string        `yaml:"persistence_path"`
	FramePacing     time.Duration `yaml:"frame_pacing"`
}

// LoadFileConfig reads and parses a FileConfig from path. An empty path
// or a missing file is not an error - LoadFileConfig returns a zero
// FileConfig, and every field's zero value means "use the built-in
// default".
func LoadFileConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("daemon: read config file %s: %w", path, err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("daemon: parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Apply pins the socket directory override this FileConfig names, if
// any. It's a package-level effect (ipc.SocketDir is resolved globally,
// the same way $XDG_RUNTIME_DIR is), so it must run once before the
// daemon's IPC server binds.
func (c FileConfig) Apply() {
	if c.SocketDir != "" {
		ipc.SetSocketDirOverride(c.SocketDir)
	}
}
