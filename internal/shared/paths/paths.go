package paths

import (
	"os"
	"path/filepath"
)

const dataDirName = "data"

// GetDataDir returns the data directory. GIVEAWAY_DATA_DIR overrides the
// default ./data next to the working directory.
func GetDataDir() string {
	if dir := os.Getenv("GIVEAWAY_DATA_DIR"); dir != "" {
		return dir
	}
	return dataDirName
}

// GetDBPath returns the sqlite database path inside the data directory.
func GetDBPath() string {
	return filepath.Join(GetDataDir(), "giveaway.db")
}

// GetRunLockPath returns the single-instance drawing marker path.
func GetRunLockPath() string {
	return filepath.Join(GetDataDir(), "drawing.lock")
}

// EnsureDataDirs creates the data directory if it does not exist.
func EnsureDataDirs() error {
	return os.MkdirAll(GetDataDir(), 0o755)
}
