package main

import (
	"fmt"

	"github.com/lychee-technology/indexsync/internal"
	"github.com/spf13/cobra"
)

type classifyOptions struct {
	oldIndexable bool
	newIndexable bool
	oldMapping   string
	newMapping   string
}

func newClassifyCmd() *cobra.Command {
	opts := classifyOptions{}
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Print the aspects an attribute configuration change affects",
		Example: `  indexsync-tools classify --old-indexable --new-indexable \
    --old-mapping PRICE,STOCK --new-mapping STOCK,VISIBILITY`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			aspects := internal.ClassifyRawAspects(opts.oldIndexable, opts.newIndexable, opts.oldMapping, opts.newMapping)
			if aspects.IsEmpty() {
				fmt.Fprintln(cmd.OutOrStdout(), "NONE")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), aspects.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.oldIndexable, "old-indexable", false, "attribute was indexable before the save")
	cmd.Flags().BoolVar(&opts.newIndexable, "new-indexable", false, "attribute is indexable after the save")
	cmd.Flags().StringVar(&opts.oldMapping, "old-mapping", "", "aspect mapping before the save (names or codes, comma separated)")
	cmd.Flags().StringVar(&opts.newMapping, "new-mapping", "", "aspect mapping after the save")
	return cmd
}
