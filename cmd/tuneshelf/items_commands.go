package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tuneshelf/internal/api"
	"tuneshelf/internal/queue"
	"tuneshelf/internal/review"
)

func newItemsCommand(ctx *commandContext) *cobra.Command {
	itemsCmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item"},
		Short:   "Inspect, edit and confirm review items",
	}

	itemsCmd.AddCommand(newItemsListCommand(ctx))
	itemsCmd.AddCommand(newItemsShowCommand(ctx))
	itemsCmd.AddCommand(newItemsEditCommand(ctx))
	itemsCmd.AddCommand(newItemsConfirmCommand(ctx))
	itemsCmd.AddCommand(newItemsDeleteCommand(ctx))
	itemsCmd.AddCommand(newItemsDryRunCommand(ctx))

	return itemsCmd
}

func newItemsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List review items",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]queue.Status, 0, len(statusFlags))
			for _, value := range statusFlags {
				status, ok := queue.ParseStatus(value)
				if !ok {
					return fmt.Errorf("unknown status %q", value)
				}
				statuses = append(statuses, status)
			}
			svc, _, err := ctx.reviewService()
			if err != nil {
				return err
			}
			items, err := svc.List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, api.ItemListResponse{Items: api.FromItems(items)})
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No items")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Status", "Title", "Artist", "Genre", "Updated"},
				buildItemRows(items, time.Now()),
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newItemsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one item with its artist suggestions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			svc, _, err := ctx.reviewService()
			if err != nil {
				return err
			}
			item, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			matches, err := svc.ItemArtistSuggestions(cmd.Context(), id)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, map[string]any{
					"item":              api.FromItem(item),
					"artistSuggestions": api.FromMatches(matches),
				})
			}
			out := cmd.OutOrStdout()
			printItemDetail(out, item, item.ArtworkPath != "")
			if len(matches) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Similar library artists:")
				printMatches(out, api.FromMatches(matches))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newItemsEditCommand(ctx *commandContext) *cobra.Command {
	var title, artist, genre string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an item's title, artist or genre without confirming",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			var in review.UpdateInput
			flags := cmd.Flags()
			if flags.Changed("title") {
				in.Title = &title
			}
			if flags.Changed("artist") {
				in.Artist = &artist
			}
			if flags.Changed("genre") {
				in.Genre = &genre
			}
			if in.Title == nil && in.Artist == nil && in.Genre == nil {
				return fmt.Errorf("nothing to change; pass --title, --artist or --genre")
			}
			svc, _, err := ctx.reviewService()
			if err != nil {
				return err
			}
			item, err := svc.Update(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Item %d updated: %s\n", item.ID,
				joinNonEmpty(item.CurrentTitle, item.CurrentArtist, item.Genre))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&artist, "artist", "", "New artist")
	cmd.Flags().StringVar(&genre, "genre", "", "New genre")
	return cmd
}

func newItemsConfirmCommand(ctx *commandContext) *cobra.Command {
	var title, artist, genre string

	cmd := &cobra.Command{
		Use:   "confirm <id>",
		Short: "Write tags and move an item into the library",
		Long: "Confirm writes the title, artist and genre into the staged file, verifies them, " +
			"and moves the file into the library. Omitted flags fall back to the item's current values.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			svc, _, err := ctx.reviewService()
			if err != nil {
				return err
			}
			item, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			in := review.ConfirmInput{
				Title:  firstNonEmpty(title, item.CurrentTitle),
				Artist: firstNonEmpty(artist, item.CurrentArtist),
				Genre:  firstNonEmpty(genre, item.Genre),
			}
			confirmed, err := svc.Confirm(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Item %d confirmed: %s\n", confirmed.ID, confirmed.LibraryPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Title to write")
	cmd.Flags().StringVar(&artist, "artist", "", "Artist to write")
	cmd.Flags().StringVar(&genre, "genre", "", "Genre to write")
	return cmd
}

func newItemsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete items together with their original and staged files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseItemID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			svc, _, err := ctx.reviewService()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var failed []string
			for _, id := range ids {
				if err := svc.Delete(cmd.Context(), id); err != nil {
					fmt.Fprintf(out, "Item %d not deleted: %v\n", id, err)
					failed = append(failed, fmt.Sprint(id))
					continue
				}
				fmt.Fprintf(out, "Item %d deleted\n", id)
			}
			if len(failed) > 0 {
				return fmt.Errorf("failed to delete items: %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}
}

func newItemsDryRunCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "dry-run <id>",
		Short: "Show where confirming an item would place it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			svc, _, err := ctx.reviewService()
			if err != nil {
				return err
			}
			report, err := svc.DryRun(cmd.Context(), id)
			if err != nil {
				return err
			}
			resp := api.FromDryRun(report)
			if jsonOutput {
				return writeJSON(cmd, resp)
			}
			printDryRun(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
