// Package logpath locates the MTG Arena client log.
package logpath

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// EnvLog overrides the platform search when set.
const EnvLog = "ARENATAPES_LOG"

// steamAppID is the Steam application id of MTG Arena, used to find the
// Proton prefix on Linux.
const steamAppID = "2141910"

// ErrNotFound is returned when no candidate log exists.
var ErrNotFound = errors.New("could not find MTG Arena Player.log; pass --log")

// ResolveLogPath returns the log to watch. The override wins, then
// ARENATAPES_LOG, then the first platform default that exists on disk.
func ResolveLogPath(override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv(EnvLog)); envPath != "" {
		return envPath, nil
	}

	home, _ := os.UserHomeDir()
	for _, candidate := range Candidates(runtime.GOOS, home) {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", ErrNotFound
}

// Candidates lists where the client writes Player.log on goos, most likely
// first. An empty home yields no candidates.
func Candidates(goos, home string) []string {
	if home == "" {
		return nil
	}

	vendor := filepath.Join("Wizards Of The Coast", "MTGA", "Player.log")

	switch goos {
	case "windows":
		return []string{
			filepath.Join(home, "AppData", "LocalLow", vendor),
		}
	case "darwin":
		return []string{
			filepath.Join(home, "Library", "Logs", vendor),
		}
	default:
		wineUser := filepath.Join("drive_c", "users", "steamuser", "AppData", "LocalLow", vendor)
		candidates := []string{
			filepath.Join(home, ".local", "share", "Steam", "steamapps", "compatdata", steamAppID, "pfx", wineUser),
			filepath.Join(home, ".steam", "steam", "steamapps", "compatdata", steamAppID, "pfx", wineUser),
		}
		if user := os.Getenv("USER"); user != "" {
			candidates = append(candidates,
				filepath.Join(home, ".wine", "drive_c", "users", user, "AppData", "LocalLow", vendor))
		}
		return candidates
	}
}
