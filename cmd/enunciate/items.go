package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrWong99/enunciate/internal/catalog"
	"github.com/MrWong99/enunciate/pkg/types"
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Browse the practice catalog",
	RunE:  runItems,
}

func init() {
	f := itemsCmd.Flags()
	f.String("category", "", "only items in this category")
	f.String("difficulty", "", "only items of this difficulty")
	f.String("kind", "", "only words or phrases")
	f.String("search", "", "case-insensitive substring of text, definition, category or phonetic")
	f.Bool("categories", false, "list categories instead of items")
}

func runItems(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := catalog.Open(cmd.Context(), cfg.Catalog.Path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	f := cmd.Flags()
	if cats, _ := f.GetBool("categories"); cats {
		names, err := store.Categories(cmd.Context())
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(out, n)
		}
		return nil
	}

	var opts catalog.ListOptions
	opts.Category, _ = f.GetString("category")
	diff, _ := f.GetString("difficulty")
	kind, _ := f.GetString("kind")
	opts.Query, _ = f.GetString("search")
	opts.Difficulty = types.Difficulty(diff)
	opts.Kind = types.ItemKind(kind)
	if diff != "" && !opts.Difficulty.IsValid() {
		return fmt.Errorf("unknown difficulty %q", diff)
	}
	if kind != "" && !opts.Kind.IsValid() {
		return fmt.Errorf("unknown kind %q", kind)
	}

	items, err := store.List(cmd.Context(), opts)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTEXT\tKIND\tDIFFICULTY\tCATEGORY\tPHONETIC")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", it.ID, it.Text, it.Kind, it.Difficulty, it.Category, it.Phonetic)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d item(s)\n", len(items))
	return nil
}
