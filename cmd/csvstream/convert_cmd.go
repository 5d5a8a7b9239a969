package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type convertOptions struct {
	in             formatFlags
	out            formatFlags
	skip           int
	headers        bool
	preserveSpaces bool
}

func newConvertCmd(a *app) *cobra.Command {
	o := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert [input] [output]",
		Short: "Re-encode a file from one dialect to another",
		Long: "convert reads every record of input with the --from dialect and writes it with the " +
			"--to dialect. Quoted empty fields stay quoted. Compression is taken from the file " +
			"extension unless set explicitly.",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.convert(cmd, o, argAt(args, 0), argAt(args, 1))
		},
	}

	flags := cmd.Flags()
	o.in.register(flags, "from", "f", "", "input")
	o.out.register(flags, "to", "t", "out-", "output")
	flags.IntVar(&o.skip, "skip", 0, "number of data records to skip")
	flags.BoolVar(&o.headers, "headers", false, "carry the first record over as a header record")
	flags.BoolVar(&o.preserveSpaces, "preserve-spaces", false, "keep leading and trailing white space")
	return cmd
}

func (a *app) convert(cmd *cobra.Command, o *convertOptions, inPath, outPath string) error {
	if o.skip < 0 {
		return fmt.Errorf("--skip must not be negative")
	}
	r, err := a.openInput(cmd, inPath, &o.in)
	if err != nil {
		return err
	}
	defer closeQuietly(r)

	w, err := a.openOutput(cmd, outPath, &o.out)
	if err != nil {
		return err
	}
	defer closeQuietly(w)

	if o.headers {
		ok, err := r.ReadHeaders()
		if err != nil {
			return a.readFailed(inPath, r, err)
		}
		if ok {
			if err := w.WriteRecord(r.Headers(), o.preserveSpaces); err != nil {
				return err
			}
		}
	}

	skipped := 0
	for skipped < o.skip {
		ok, err := r.SkipRecord()
		if err != nil {
			return a.readFailed(inPath, r, err)
		}
		if !ok {
			break
		}
		skipped++
	}

	var records int64
	for {
		ok, err := r.ReadRecord()
		if err != nil {
			return a.readFailed(inPath, r, err)
		}
		if !ok {
			break
		}
		for i := 0; i < r.FieldCount(); i++ {
			write := w.WriteField
			if r.IsQualified(i) && r.FieldLength(i) == 0 {
				write = w.WriteQualifiedField
			}
			if err := write(r.Field(i), o.preserveSpaces); err != nil {
				return err
			}
		}
		if err := w.EndRecord(); err != nil {
			return err
		}
		records++
	}

	if err := w.Close(); err != nil {
		return err
	}
	a.logger.Debug("converted", "from", o.in.dialect, "to", o.out.dialect,
		"records", records, "skipped", skipped, "headers", r.HeaderCount())
	return nil
}
