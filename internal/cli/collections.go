package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/paper-digest/internal/collection"
	"github.com/rcliao/paper-digest/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "collections [search term]",
		Short: "Show the collection tree",
		Long: "Show the collection tree with each collection's direct item count (items in\n" +
			"sub-collections are not included). With a search term, list matching collections with their paths.",
		Run: runCollections,
	}

	RootCmd.AddCommand(cmd)
}

type collectionMatch struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	ItemCount int    `json:"direct_item_count"`
}

func runCollections(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	r, err := collection.Load(cmd.Context(), s, logger)
	if err != nil {
		exitErr("load collections", err)
	}

	if len(args) > 0 {
		term := strings.Join(args, " ")
		matches := []collectionMatch{}
		for _, c := range r.Search(term) {
			matches = append(matches, collectionMatch{Key: c.Key, Name: c.Name, Path: r.PathOf(c.Key), ItemCount: c.ItemCount})
		}
		if textOutput() {
			for _, m := range matches {
				fmt.Printf("%s  %s (%d direct)\n", m.Key, m.Path, m.ItemCount)
			}
			return
		}
		printJSON(matches)
		return
	}

	if textOutput() {
		for _, root := range r.Roots() {
			printTree(root)
		}
		for _, w := range r.Warnings() {
			fmt.Printf("! %s\n", w)
		}
		return
	}
	printJSON(map[string]any{
		"collections": r.Roots(),
		"warnings":    r.Warnings(),
	})
}

func printTree(c *model.Collection) {
	fmt.Printf("%s%s (%d direct) [%s]\n", strings.Repeat("  ", c.Depth), c.Name, c.ItemCount, c.Key)
	for _, ch := range c.Children {
		printTree(ch)
	}
}
