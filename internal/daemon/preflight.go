package daemon

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"fieldcap/internal/config"
	"fieldcap/internal/services"
)

// Preflight verifies the daemon can actually run: directories exist and are
// writable before the queue database or lock file is touched.
func Preflight(cfg *config.Config) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return services.Wrap(services.ErrConfiguration, "daemon", "preflight", "create directories", err)
	}

	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "daemon", "preflight", fmt.Sprintf("stat %s", dir), err)
		}
		if !info.IsDir() {
			return services.Wrap(services.ErrConfiguration, "daemon", "preflight", fmt.Sprintf("%s is not a directory", dir), nil)
		}
		if err := unix.Access(dir, unix.W_OK); err != nil {
			return services.Wrap(services.ErrConfiguration, "daemon", "preflight", fmt.Sprintf("%s is not writable", dir), err)
		}
	}
	return nil
}
