package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/paper-digest/internal/collection"
	"github.com/rcliao/paper-digest/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "item <key>",
		Short: "Show one item with its collections and attachment files",
		Args:  cobra.ExactArgs(1),
		Run:   runItem,
	}

	RootCmd.AddCommand(cmd)
}

type attachmentView struct {
	model.Attachment
	File string `json:"file,omitempty"`
}

func runItem(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	dbFile, err := getDBPath()
	if err != nil {
		exitErr("locate database", err)
	}
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	rec, err := s.Item(ctx, args[0])
	if err != nil {
		exitErr("item", err)
	}
	r, err := collection.Load(ctx, s, logger)
	if err != nil {
		exitErr("load collections", err)
	}
	paths, err := r.PathsOf(ctx, rec.Key)
	if err != nil {
		exitErr("collection paths", err)
	}

	dataDir := getDataDir(dbFile)
	atts := make([]attachmentView, 0, len(rec.Attachments))
	for _, a := range rec.Attachments {
		atts = append(atts, attachmentView{Attachment: a, File: model.ResolveAttachmentPath(a, dataDir)})
	}

	printJSON(map[string]any{
		"item":        rec,
		"authors":     model.FormatAuthors(rec.Creators),
		"collections": paths,
		"attachments": atts,
	})
}
