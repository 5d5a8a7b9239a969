package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type statsOptions struct {
	in      formatFlags
	headers bool
}

type recordStats struct {
	records        int64
	fields         int64
	maxFields      int
	maxFieldLength int
	qualified      int64
	qualifiedEmpty int64
}

func newStatsCmd(a *app) *cobra.Command {
	o := &statsOptions{}
	cmd := &cobra.Command{
		Use:   "stats [input]",
		Short: "Count records and fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := argAt(args, 0)
			s, err := a.stats(cmd, o, path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "records\t%d\n", s.records)
			fmt.Fprintf(out, "fields\t%d\n", s.fields)
			fmt.Fprintf(out, "max_fields\t%d\n", s.maxFields)
			fmt.Fprintf(out, "max_field_length\t%d\n", s.maxFieldLength)
			fmt.Fprintf(out, "qualified\t%d\n", s.qualified)
			fmt.Fprintf(out, "qualified_empty\t%d\n", s.qualifiedEmpty)
			return nil
		},
	}
	o.in.register(cmd.Flags(), "dialect", "d", "", "input")
	cmd.Flags().BoolVar(&o.headers, "headers", false, "exclude the header record from the counts")
	return cmd
}

func (a *app) stats(cmd *cobra.Command, o *statsOptions, path string) (recordStats, error) {
	var s recordStats
	r, err := a.openInput(cmd, path, &o.in)
	if err != nil {
		return s, err
	}
	defer closeQuietly(r)

	if o.headers {
		if _, err := r.ReadHeaders(); err != nil {
			return s, a.readFailed(path, r, err)
		}
	}
	for {
		ok, err := r.ReadRecord()
		if err != nil {
			return s, a.readFailed(path, r, err)
		}
		if !ok {
			break
		}
		n := r.FieldCount()
		s.records++
		s.fields += int64(n)
		s.maxFields = max(s.maxFields, n)
		for i := range n {
			length := r.FieldLength(i)
			s.maxFieldLength = max(s.maxFieldLength, length)
			if r.IsQualified(i) {
				s.qualified++
				if length == 0 {
					s.qualifiedEmpty++
				}
			}
		}
	}
	a.logger.Debug("scanned", "path", path, "records", s.records, "fields", s.fields)
	return s, nil
}
