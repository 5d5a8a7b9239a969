package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oleg578/csvstream/internal/dialect"
)

func newDialectsCmd(a *app) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "dialects",
		Short: "List the available dialects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range a.registry.Names() {
				d, err := a.registry.Get(name)
				if err != nil {
					return err
				}
				if !verbose {
					fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.Description)
					continue
				}
				d, err = dialect.Override(d, a.env)
				if err != nil {
					return err
				}
				cfg, err := d.Config()
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\tdelimiter=%s\tquote=%s\tescape=%s\tcomment=%s\trecord=%s\ttrim=%t\n",
					d.Name,
					dialect.FormatChar(cfg.Delimiter),
					dialect.FormatChar(cfg.Quote),
					cfg.Escape,
					dialect.FormatChar(cfg.Comment),
					dialect.FormatChar(cfg.RecordDelimiter),
					cfg.TrimWhitespace)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show the resolved format of each dialect")
	return cmd
}
