package organizer

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"tuneshelf/internal/fileutil"
)

// DryRunReport describes what Move would do for a destination.
type DryRunReport struct {
	Destination             string `json:"destination"`
	FinalPath               string `json:"final_path"`
	RootExists              bool   `json:"root_exists"`
	RootWritable            bool   `json:"root_writable"`
	NearestExistingAncestor string `json:"nearest_existing_ancestor"`
	AncestorWritable        bool   `json:"ancestor_writable"`
	WouldCollide            bool   `json:"would_collide"`
}

// DryRun inspects the filesystem for a move into root/artist/album/title+ext.
// It never creates or modifies anything.
func DryRun(root, artist, album, title, ext string) DryRunReport {
	dest := Destination(root, artist, album, title, ext)
	report := DryRunReport{
		Destination:  dest,
		FinalPath:    dest,
		WouldCollide: fileutil.Exists(dest),
	}
	if info, err := os.Stat(root); err == nil && info.IsDir() {
		report.RootExists = true
		report.RootWritable = writable(root)
	}
	report.NearestExistingAncestor = nearestExistingDir(filepath.Dir(dest))
	if report.NearestExistingAncestor != "" {
		report.AncestorWritable = writable(report.NearestExistingAncestor)
	}
	if report.WouldCollide {
		if next, err := nextFree(dest); err == nil {
			report.FinalPath = next
		}
	}
	return report
}

func nearestExistingDir(path string) string {
	current := filepath.Clean(path)
	for {
		if info, err := os.Stat(current); err == nil && info.IsDir() {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

func writable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
