package log

import (
	"os"
	"path/filepath"
	"runtime"
)

// defaultDir is where logs go when neither -logpath nor VAANI_LOG_PATH is
// set.
func defaultDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Logs", "vaani"), nil
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "vaani", "logs"), nil
		}
	}
	// $XDG_CONFIG_HOME or ~/.config on Unix, %AppData% on Windows
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "vaani", "logs"), nil
}
