package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tuneshelf/internal/api"
	"tuneshelf/internal/queue"
)

var titleCaser = cases.Title(language.English)

func formatStatusLabel(status string) string {
	return titleCaser.String(strings.ReplaceAll(strings.TrimSpace(status), "_", " "))
}

func parseItemID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", arg)
	}
	return id, nil
}

func buildItemRows(items []*queue.Item, now time.Time) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			formatStatusLabel(string(item.Status)),
			truncate(item.DisplayTitle(), 40),
			truncate(firstNonEmpty(item.CurrentArtist, item.InferredArtist), 30),
			item.Genre,
			relativeTime(item.UpdatedAt, now),
		})
	}
	return rows
}

func relativeTime(t time.Time, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func printItemDetail(out io.Writer, item *queue.Item, artwork bool) {
	fmt.Fprintf(out, "Item %d (%s)\n", item.ID, formatStatusLabel(string(item.Status)))
	artworkLabel := "none"
	if artwork {
		artworkLabel = "cached"
	}
	fields := [][2]string{
		{"Original", item.OriginalPath},
		{"Staged", item.StagedPath},
		{"Video title", item.VideoTitle},
		{"Channel", item.Channel},
		{"Inferred", joinNonEmpty(item.InferredTitle, item.InferredArtist)},
		{"Title", item.CurrentTitle},
		{"Artist", item.CurrentArtist},
		{"Genre", item.Genre},
		{"Artwork", artworkLabel},
		{"Library", item.LibraryPath},
		{"Error", item.ErrorMessage},
		{"Created", formatTimestamp(item.CreatedAt)},
		{"Updated", formatTimestamp(item.UpdatedAt)},
	}
	for _, field := range fields {
		if strings.TrimSpace(field[1]) == "" {
			continue
		}
		fmt.Fprintf(out, "  %-12s %s\n", field[0]+":", field[1])
	}
}

func printDryRun(out io.Writer, report api.DryRunResponse) {
	fmt.Fprintf(out, "Destination: %s\n", report.FinalPath)
	if report.WouldCollide {
		fmt.Fprintf(out, "  %s exists; a numeric suffix will be added\n", report.Destination)
	}
	fmt.Fprintf(out, "Library root exists:   %s\n", yesNo(report.RootExists))
	fmt.Fprintf(out, "Library root writable: %s\n", yesNo(report.RootWritable))
	if !report.RootExists && report.NearestExistingAncestor != "" {
		fmt.Fprintf(out, "Nearest ancestor:      %s (writable: %s)\n",
			report.NearestExistingAncestor, yesNo(report.AncestorWritable))
	}
}

func printMatches(out io.Writer, matches []api.ArtistMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(out, "No similar artists in the library")
		return
	}
	rows := make([][]string, 0, len(matches))
	for _, match := range matches {
		rows = append(rows, []string{
			match.Name,
			strconv.FormatFloat(match.Score, 'f', 1, 64),
			strconv.Itoa(match.TrackCount),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Artist", "Score", "Tracks"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight}))
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

func joinNonEmpty(values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			parts = append(parts, strings.TrimSpace(v))
		}
	}
	return strings.Join(parts, " / ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
