package config

import (
	"os"
	"path/filepath"
	"runtime"
)

func goos() string {
	return runtime.GOOS
}

// dataDirCandidates lists where Zotero keeps its data directory on each OS,
// most likely first.
func dataDirCandidates(home, goos string) []string {
	if home == "" {
		return nil
	}
	candidates := []string{filepath.Join(home, "Zotero")}
	switch goos {
	case "windows":
		if profile := os.Getenv("USERPROFILE"); profile != "" && profile != home {
			candidates = append(candidates, filepath.Join(profile, "Zotero"))
		}
		// Older installs kept the data directory inside the profile directory.
		if appData := os.Getenv("APPDATA"); appData != "" {
			candidates = append(candidates, filepath.Join(appData, "Zotero", "Zotero"))
		}
	case "linux":
		candidates = append(candidates,
			filepath.Join(home, "snap", "zotero-snap", "common", "Zotero"),
			filepath.Join(home, ".var", "app", "org.zotero.Zotero", "data", "Zotero"),
		)
	}
	return candidates
}

// detectDataDir returns the first candidate holding zotero.sqlite, or the
// default location when none does so validation can name it.
func detectDataDir(home, goos string, exists func(string) bool) string {
	candidates := dataDirCandidates(home, goos)
	if len(candidates) == 0 {
		return ""
	}
	for _, dir := range candidates {
		if exists(filepath.Join(dir, DatabaseFile)) {
			return dir
		}
	}
	return candidates[0]
}
