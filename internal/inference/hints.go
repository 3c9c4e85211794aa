package inference

import (
	"path/filepath"
	"strings"

	"tuneshelf/internal/services"
)

// HintSeparator splits an intake file stem into the video title and channel.
const HintSeparator = "###"

// Hints are the descriptive fragments carried in an intake file name.
type Hints struct {
	VideoTitle string
	Channel    string
}

// Empty reports whether no hint is available.
func (h Hints) Empty() bool {
	return h.VideoTitle == "" && h.Channel == ""
}

// ParseHints extracts hints from a file name shaped "<video title>###<channel>.<ext>".
// A name without the separator, or with an empty side, returns the best-effort
// hints together with a parse error; the item stays editable by hand.
func ParseHints(filename string) (Hints, error) {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	before, after, found := strings.Cut(stem, HintSeparator)
	if !found {
		hints := Hints{VideoTitle: strings.TrimSpace(stem)}
		return hints, services.Wrap(services.ErrParse, "inference", "parse hints",
			"file name has no "+HintSeparator+" separator", nil)
	}
	hints := Hints{
		VideoTitle: strings.TrimSpace(before),
		Channel:    strings.TrimSpace(after),
	}
	if hints.VideoTitle == "" || hints.Channel == "" {
		return hints, services.Wrap(services.ErrParse, "inference", "parse hints",
			"file name has an empty video title or channel", nil)
	}
	return hints, nil
}
