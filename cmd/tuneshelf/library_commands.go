package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tuneshelf/internal/api"
	"tuneshelf/internal/library"
	"tuneshelf/internal/scanner"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Index and browse the music library",
	}

	libraryCmd.AddCommand(newLibraryScanCommand(ctx))
	libraryCmd.AddCommand(newLibraryStatusCommand(ctx))
	libraryCmd.AddCommand(newLibraryArtistsCommand(ctx))
	libraryCmd.AddCommand(newLibraryMatchCommand(ctx))
	libraryCmd.AddCommand(newLibraryStatsCommand(ctx))

	return libraryCmd
}

func newLibraryScanCommand(ctx *commandContext) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Index the library directory into the track table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			_, store, err := ctx.reviewService()
			if err != nil {
				return err
			}
			logger := ctx.commandLogger()
			pass := library.NewIndexer(cfg, store, logger).Pass(force)
			status, err := scanner.NewWorker(library.PassName, logger).Run(cmd.Context(), pass)
			if err != nil {
				return err
			}
			indexed, skipped, removed := pass.Counts()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Indexed %d, unchanged %d, removed %d\n", indexed, skipped, removed)
			printScanErrors(out, api.FromScanStatus(status))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Re-read tags of files whose size and mtime are unchanged")
	return cmd
}

func newLibraryStatusCommand(ctx *commandContext) *cobra.Command {
	var rescan, force bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running daemon's library index pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := newDaemonClient(cfg)
			if err != nil {
				return err
			}
			var status api.ScanStatus
			if rescan {
				err = client.post(cmd.Context(), "/api/library/rescan?force="+strconv.FormatBool(force), &status)
			} else {
				err = client.get(cmd.Context(), "/api/library/status", &status)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Library: %s\n", scanSummary(status))
			printScanErrors(out, status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&rescan, "rescan", false, "Ask the daemon to start a library pass first")
	cmd.Flags().BoolVar(&force, "force", false, "With --rescan, re-read every file")
	return cmd
}

func newLibraryArtistsCommand(ctx *commandContext) *cobra.Command {
	var search, sortBy string
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "artists",
		Short: "List library artists with track and album counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := ctx.reviewService()
			if err != nil {
				return err
			}
			counts, err := store.ArtistCounts(cmd.Context(), search)
			if err != nil {
				return err
			}
			artists := api.FromArtistCounts(counts)
			switch strings.ToLower(strings.TrimSpace(sortBy)) {
			case "", "name":
			case "tracks":
				sort.SliceStable(artists, func(i, j int) bool { return artists[i].TrackCount > artists[j].TrackCount })
			default:
				return fmt.Errorf("unknown sort %q (use name or tracks)", sortBy)
			}
			if jsonOutput {
				return writeJSON(cmd, api.ArtistListResponse{Artists: artists})
			}
			if len(artists) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No artists indexed")
				return nil
			}
			rows := make([][]string, 0, len(artists))
			for _, artist := range artists {
				rows = append(rows, []string{artist.Name, strconv.Itoa(artist.TrackCount), strconv.Itoa(artist.AlbumCount)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Artist", "Tracks", "Albums"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight}))
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Only artists containing this text")
	cmd.Flags().StringVar(&sortBy, "sort", "name", "Sort by name or tracks")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newLibraryMatchCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "match <artist>",
		Short: "Rank library artists by similarity to a name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := ctx.reviewService()
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			matches, err := svc.MatchArtists(cmd.Context(), query, limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, api.ArtistMatchResponse{Query: query, Matches: api.FromMatches(matches)})
			}
			printMatches(cmd.OutOrStdout(), api.FromMatches(matches))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum matches to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newLibraryStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the indexed library",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := ctx.reviewService()
			if err != nil {
				return err
			}
			stats, err := store.LibraryStats(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, api.FromLibraryStats(stats))
			}
			rows := [][]string{
				{"Tracks", humanize.Comma(int64(stats.Tracks))},
				{"Artists", humanize.Comma(int64(stats.Artists))},
				{"Albums", humanize.Comma(int64(stats.Albums))},
				{"Genres", humanize.Comma(int64(stats.Genres))},
				{"With artwork", humanize.Comma(int64(stats.WithArtwork))},
				{"Total size", humanize.IBytes(uint64(max(stats.TotalBytes, 0)))},
				{"Total duration", stats.Duration.Round(time.Second).String()},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Metric", "Value"}, rows,
				[]columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
