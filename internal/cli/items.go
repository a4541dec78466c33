package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/paper-digest/internal/batch"
	"github.com/rcliao/paper-digest/internal/collection"
	"github.com/rcliao/paper-digest/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List library items",
		Run:   runItems,
	}

	cmd.Flags().StringSliceP("collection", "c", nil, "Only items in these collections (key or name)")
	cmd.Flags().StringSlice("types", nil, "Only these item types (comma-separated)")
	cmd.Flags().StringSlice("exclude", nil, "Skip titles containing these keywords (comma-separated)")
	cmd.Flags().IntP("limit", "l", 20, "Max results (0 = all)")
	cmd.Flags().Bool("keys-only", false, "Only output item keys")

	RootCmd.AddCommand(cmd)
}

func runItems(cmd *cobra.Command, args []string) {
	selection, _ := cmd.Flags().GetStringSlice("collection")
	types, _ := cmd.Flags().GetStringSlice("types")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	limit, _ := cmd.Flags().GetInt("limit")
	keysOnly, _ := cmd.Flags().GetBool("keys-only")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	r, err := collection.Load(ctx, s, logger)
	if err != nil {
		exitErr("load collections", err)
	}
	keys, err := selectCollections(r, selection)
	if err != nil {
		exitErr("select collections", err)
	}

	var records []model.Record
	if len(keys) > 0 {
		records, err = r.ItemsIn(ctx, keys)
	} else {
		records, err = s.Items(ctx)
	}
	if err != nil {
		exitErr("items", err)
	}
	records = batch.Filter(records, batch.FilterOptions{IncludeTypes: types, ExcludeKeywords: exclude, Limit: limit})

	if keysOnly {
		for _, rec := range records {
			fmt.Println(rec.Key)
		}
		return
	}
	printRecordList(ctx, r, records)
}
