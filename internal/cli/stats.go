package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/paper-digest/internal/collection"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show library statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context())
	if err != nil {
		exitErr("stats", err)
	}
	r, err := collection.Load(cmd.Context(), s, logger)
	if err != nil {
		exitErr("load collections", err)
	}

	if textOutput() {
		fmt.Printf("database:      %s (%d bytes)\n", stats.DBPath, stats.DBSizeBytes)
		fmt.Printf("items:         %d (%d uncategorized)\n", stats.Items, stats.Uncategorized)
		fmt.Printf("collections:   %d (%d top-level)\n", stats.Collections, len(r.Roots()))
		fmt.Printf("attachments:   %d (%d PDF)\n", stats.Attachments, stats.PDFAttachments)
		fmt.Printf("notes:         %d\n", stats.Notes)
		for _, t := range stats.ItemTypes {
			fmt.Printf("  %-20s %d\n", t.Type, t.Count)
		}
		return
	}
	printJSON(map[string]any{
		"library":             stats,
		"top_level":           len(r.Roots()),
		"collection_warnings": r.Warnings(),
	})
}
