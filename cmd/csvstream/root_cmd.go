package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oleg578/csvstream"
	"github.com/oleg578/csvstream/internal/dialect"
	"github.com/oleg578/csvstream/internal/stream"
)

const version = "v0.3.0"

const stdio = "-"

// app carries the state shared by every subcommand once the persistent flags are parsed.
type app struct {
	logLevel    string
	dialectFile string
	envFile     string

	logger   *slog.Logger
	registry *dialect.Registry
	env      map[string]string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "csvstream",
		Short: "csvstream converts and inspects delimited text files.",
		Long: "csvstream reads and writes CSV-family files one record at a time. Formats are " +
			"described by named dialects, which can be loaded from YAML or JSONC files and " +
			"overridden with CSVSTREAM_* environment variables.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&a.dialectFile, "dialect-file", "", "YAML or JSONC file with extra dialects")
	flags.StringVar(&a.envFile, "env-file", "", "dotenv file with CSVSTREAM_* overrides")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newDialectsCmd(a))
	rootCmd.AddCommand(newConvertCmd(a))
	rootCmd.AddCommand(newStatsCmd(a))
	rootCmd.AddCommand(newHeadersCmd(a))
	rootCmd.AddCommand(newDigestCmd(a))
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of csvstream",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "csvstream %s\n", version)
		},
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))

	a.registry = dialect.NewRegistry()
	if a.dialectFile != "" {
		if err := a.registry.LoadFile(a.dialectFile); err != nil {
			return err
		}
		a.logger.Debug("loaded dialect file", "path", a.dialectFile, "dialects", len(a.registry.Names()))
	}

	env, err := dialect.Environ(a.envFile)
	if err != nil {
		return err
	}
	a.env = env
	return nil
}

// formatFlags selects the dialect and stream options of one side of a command.
type formatFlags struct {
	dialect     string
	delimiter   charFlag
	compression string
}

func (f *formatFlags) register(flags *pflag.FlagSet, dialectFlag, shorthand, prefix, side string) {
	flags.StringVarP(&f.dialect, dialectFlag, shorthand, dialect.DefaultName, side+" dialect")
	flags.Var(&f.delimiter, prefix+"delimiter", side+" delimiter, overriding the dialect")
	flags.StringVar(&f.compression, prefix+"compression", stream.CompressionAuto.String(),
		side+" compression (none, gzip, zstd, lz4, auto)")
}

// config resolves the dialect named in f, applies the environment overrides and the flag
// overrides, and validates the result.
func (a *app) config(f *formatFlags) (csvstream.Config, error) {
	d, err := a.registry.Get(f.dialect)
	if err != nil {
		return csvstream.Config{}, err
	}
	d, err = dialect.Override(d, a.env)
	if err != nil {
		return csvstream.Config{}, err
	}
	cfg, err := d.Config()
	if err != nil {
		return csvstream.Config{}, err
	}
	if f.delimiter.set {
		cfg.Delimiter = f.delimiter.value
		if err := cfg.Validate(); err != nil {
			return csvstream.Config{}, err
		}
	}
	return cfg, nil
}

// openInput returns a Reader over path. Uncompressed files are opened lazily by the Reader.
func (a *app) openInput(cmd *cobra.Command, path string, f *formatFlags) (*csvstream.Reader, error) {
	cfg, err := a.config(f)
	if err != nil {
		return nil, err
	}
	comp, err := stream.ParseCompression(f.compression)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("opening input", "path", path, "dialect", f.dialect, "compression", stream.Resolve(path, comp))

	if path == "" || path == stdio {
		if comp == stream.CompressionAuto {
			comp = stream.CompressionNone
		}
		src, err := stream.NewReader(cmd.InOrStdin(), comp)
		if err != nil {
			return nil, err
		}
		return csvstream.NewReader(src, cfg)
	}

	comp = stream.Resolve(path, comp)
	if comp == stream.CompressionNone {
		return csvstream.OpenReader(path, cfg)
	}
	src, err := stream.Open(path, comp)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", csvstream.ErrNotFound, path)
		}
		return nil, err
	}
	r, err := csvstream.NewReader(src, cfg)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return r, nil
}

// openOutput returns a Writer over path. Uncompressed files are created on the first write.
func (a *app) openOutput(cmd *cobra.Command, path string, f *formatFlags) (*csvstream.Writer, error) {
	cfg, err := a.config(f)
	if err != nil {
		return nil, err
	}
	comp, err := stream.ParseCompression(f.compression)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("opening output", "path", path, "dialect", f.dialect, "compression", stream.Resolve(path, comp))

	if path == "" || path == stdio {
		if comp == stream.CompressionAuto {
			comp = stream.CompressionNone
		}
		dst, err := stream.NewWriter(cmd.OutOrStdout(), comp)
		if err != nil {
			return nil, err
		}
		return csvstream.NewWriter(dst, cfg)
	}

	comp = stream.Resolve(path, comp)
	if comp == stream.CompressionNone {
		return csvstream.CreateWriter(path, cfg)
	}
	dst, err := stream.Create(path, comp)
	if err != nil {
		return nil, err
	}
	w, err := csvstream.NewWriter(dst, cfg)
	if err != nil {
		_ = dst.Close()
		return nil, err
	}
	return w, nil
}

// readFailed logs a terminal read error and annotates it with the input and record.
func (a *app) readFailed(path string, r *csvstream.Reader, err error) error {
	if path == "" {
		path = stdio
	}
	attrs := []any{"path", path, "record", r.CurrentRecord() + 1, "error", err}
	var limit *csvstream.LimitError
	if errors.As(err, &limit) {
		a.logger.Error("safety limit exceeded", append(attrs, "limit", limit.Limit.String(), "max", limit.Max)...)
	} else {
		a.logger.Error("read failed", attrs...)
	}
	return fmt.Errorf("%s: %w", path, err)
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return stdio
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
