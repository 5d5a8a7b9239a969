package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNoHeaders = errors.New("input has no header record")

func newHeadersCmd(a *app) *cobra.Command {
	in := &formatFlags{}
	cmd := &cobra.Command{
		Use:   "headers [input]",
		Short: "Print the header names of a file with their column indices",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := argAt(args, 0)
			r, err := a.openInput(cmd, path, in)
			if err != nil {
				return err
			}
			defer closeQuietly(r)

			ok, err := r.ReadHeaders()
			if err != nil {
				return a.readFailed(path, r, err)
			}
			if !ok {
				return errNoHeaders
			}
			out := cmd.OutOrStdout()
			for i, name := range r.Headers() {
				if r.Index(name) != i {
					a.logger.Warn("duplicate header", "name", name, "column", i, "wins", r.Index(name))
				}
				fmt.Fprintf(out, "%d\t%s\n", i, name)
			}
			return nil
		},
	}
	in.register(cmd.Flags(), "dialect", "d", "", "input")
	return cmd
}
