package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/oleg578/csvstream/internal/digest"
)

func newDigestCmd(a *app) *cobra.Command {
	in := &formatFlags{}
	cmd := &cobra.Command{
		Use:   "digest [input...]",
		Short: "Print a BLAKE3 fingerprint of the records of each input",
		Long: "digest hashes the parsed field values of every record, so files holding the same " +
			"records in different dialects or compressions have the same digest.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{stdio}
			}
			for _, path := range args {
				sum, err := a.digest(cmd, in, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", sum, path)
			}
			return nil
		},
	}
	in.register(cmd.Flags(), "dialect", "d", "", "input")
	return cmd
}

func (a *app) digest(cmd *cobra.Command, in *formatFlags, path string) (digest.Sum, error) {
	r, err := a.openInput(cmd, path, in)
	if err != nil {
		return digest.Sum{}, err
	}
	defer closeQuietly(r)

	d := digest.New()
	for {
		record, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return digest.Sum{}, a.readFailed(path, r, err)
		}
		d.Add(record)
	}
	a.logger.Debug("digested", "path", path, "records", d.Records(), "fields", d.Fields())
	return d.Sum(), nil
}
