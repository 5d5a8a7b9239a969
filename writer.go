package csvstream

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Writer serializes fields into delimited text using the same Config knobs as Reader.
type Writer struct {
	dst    *bufio.Writer
	sink   io.Writer
	create func() (io.WriteCloser, error)
	cfg    Config

	firstField bool
	closed     bool
	err        error
}

// NewWriter creates a Writer over w. The Writer takes ownership of w: if w implements io.Closer it
// is closed by Close and after a write failure.
func NewWriter(w io.Writer, cfg Config) (*Writer, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: writer destination cannot be nil", ErrInvalidArgument)
	}
	wr, err := newWriter(cfg)
	if err != nil {
		return nil, err
	}
	wr.bind(w)
	return wr, nil
}

// CreateWriter creates a Writer that truncates or creates the file at path on the first write.
func CreateWriter(path string, cfg Config) (*Writer, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrInvalidArgument)
	}
	wr, err := newWriter(cfg)
	if err != nil {
		return nil, err
	}
	wr.create = func() (io.WriteCloser, error) {
		return os.Create(path)
	}
	return wr, nil
}

func newWriter(cfg Config) (*Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Writer{cfg: cfg.withDefaults(), firstField: true}, nil
}

func (w *Writer) bind(dst io.Writer) {
	w.sink = dst
	if w.dst == nil {
		w.dst = bufio.NewWriterSize(dst, defaultBufferSize)
	} else {
		w.dst.Reset(dst)
	}
}

// Reset rebinds the Writer to dst, keeping its Config. A closed Writer becomes usable again.
func (w *Writer) Reset(dst io.Writer) error {
	if w == nil {
		return fmt.Errorf("%w: writer is nil", ErrInvalidArgument)
	}
	if dst == nil {
		return fmt.Errorf("%w: writer destination cannot be nil", ErrInvalidArgument)
	}
	w.cfg = w.cfg.withDefaults()
	w.create = nil
	w.bind(dst)
	w.firstField = true
	w.closed = false
	w.err = nil
	return nil
}

// WriteField writes one field, preceded by the delimiter unless it is the first of the record.
// Unless preserveSpaces is set, leading and trailing spaces and tabs are trimmed first; when it
// is set, a field that starts or ends with white space is quoted.
func (w *Writer) WriteField(value string, preserveSpaces bool) error {
	return w.writeField(value, preserveSpaces, false)
}

// WriteQualifiedField writes one field like WriteField but always encloses it in quotes, so an
// empty value reads back as qualified. It behaves like WriteField when quoting is disabled.
func (w *Writer) WriteQualifiedField(value string, preserveSpaces bool) error {
	return w.writeField(value, preserveSpaces, true)
}

func (w *Writer) writeField(value string, preserveSpaces, qualify bool) error {
	if err := w.ready(); err != nil {
		return err
	}
	if !w.firstField {
		if err := w.dst.WriteByte(w.cfg.Delimiter); err != nil {
			return w.fail(err)
		}
	}
	if !preserveSpaces {
		value = strings.Trim(value, " \t")
	}

	var err error
	switch {
	case (qualify && w.cfg.UseTextQualifier) || w.needsQuote(value, preserveSpaces):
		err = w.writeQuoted(value)
	case w.cfg.Escape == EscapeBackslash:
		err = w.writeEscaped(value)
	default:
		_, err = w.dst.WriteString(value)
	}
	if err != nil {
		return w.fail(err)
	}
	w.firstField = false
	return nil
}

// EndRecord terminates the current record.
func (w *Writer) EndRecord() error {
	if err := w.ready(); err != nil {
		return err
	}
	if err := w.writeTerminator(); err != nil {
		return w.fail(err)
	}
	w.firstField = true
	return nil
}

// WriteComment writes text as a comment line.
func (w *Writer) WriteComment(text string) error {
	if err := w.ready(); err != nil {
		return err
	}
	if w.cfg.Comment == 0 {
		return fmt.Errorf("%w: no comment character configured", ErrInvalidArgument)
	}
	if err := w.dst.WriteByte(w.cfg.Comment); err != nil {
		return w.fail(err)
	}
	if _, err := w.dst.WriteString(text); err != nil {
		return w.fail(err)
	}
	if err := w.writeTerminator(); err != nil {
		return w.fail(err)
	}
	w.firstField = true
	return nil
}

// WriteRecord writes values as one record. An empty record writes nothing.
func (w *Writer) WriteRecord(values []string, preserveSpaces bool) error {
	if err := w.ready(); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	for _, v := range values {
		if err := w.WriteField(v, preserveSpaces); err != nil {
			return err
		}
	}
	return w.EndRecord()
}

// Write writes record with trimming, like WriteRecord(record, false).
func (w *Writer) Write(record []string) error {
	return w.WriteRecord(record, false)
}

// WriteAll writes multiple records, stopping at the first error, and flushes.
func (w *Writer) WriteAll(records [][]string) error {
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Flush flushes buffered output to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.ready(); err != nil {
		return err
	}
	if err := w.dst.Flush(); err != nil {
		return w.fail(err)
	}
	return nil
}

// Error reports the first write failure, if any.
func (w *Writer) Error() error {
	if w == nil {
		return fmt.Errorf("%w: writer is nil", ErrInvalidArgument)
	}
	return w.err
}

// Close flushes pending output and closes the destination. It is safe to call more than once.
func (w *Writer) Close() error {
	if w == nil || w.closed {
		return nil
	}
	var err error
	if w.dst != nil && w.err == nil {
		if ferr := w.dst.Flush(); ferr != nil {
			err = ioError(ferr)
			w.err = err
		}
	}
	if cerr := w.release(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (w *Writer) release() error {
	w.closed = true
	sink := w.sink
	w.sink = nil
	w.create = nil
	if c, ok := sink.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return ioError(err)
		}
	}
	return nil
}

// ready checks the Writer is usable and opens a path-backed destination on first use.
func (w *Writer) ready() error {
	if w == nil || w.closed {
		return ErrClosed
	}
	if w.dst != nil {
		return nil
	}
	if w.create == nil {
		return ErrClosed
	}
	f, err := w.create()
	if err != nil {
		w.err = ioError(err)
		_ = w.release()
		return w.err
	}
	w.bind(f)
	return nil
}

func (w *Writer) fail(err error) error {
	w.err = ioError(err)
	_ = w.release()
	return w.err
}

func (w *Writer) writeTerminator() error {
	switch {
	case w.cfg.HasRecordDelimiter():
		return w.dst.WriteByte(w.cfg.RecordDelimiter)
	case w.cfg.UseCRLF:
		_, err := w.dst.WriteString("\r\n")
		return err
	default:
		return w.dst.WriteByte('\n')
	}
}

// needsQuote applies the quoting rules to an already trimmed field.
func (w *Writer) needsQuote(field string, preserveSpaces bool) bool {
	if w.cfg.ForceQualifier {
		return true
	}
	if !w.cfg.UseTextQualifier {
		return false
	}
	if w.firstField && (field == "" || (w.cfg.Comment != 0 && field[0] == w.cfg.Comment)) {
		return true
	}
	for i := 0; i < len(field); i++ {
		c := field[i]
		if c == w.cfg.Quote || c == w.cfg.Delimiter || w.cfg.isTerminator(c) {
			return true
		}
	}
	return preserveSpaces && field != "" && (isSpace(field[0]) || isSpace(field[len(field)-1]))
}

func (w *Writer) writeQuoted(field string) error {
	quote := w.cfg.Quote
	if err := w.dst.WriteByte(quote); err != nil {
		return err
	}

	backslash := w.cfg.Escape == EscapeBackslash
	start := 0
	for i := 0; i < len(field); i++ {
		c := field[i]
		if c != quote && !(backslash && c == '\\') {
			continue
		}
		if _, err := w.dst.WriteString(field[start:i]); err != nil {
			return err
		}
		if backslash {
			if err := w.dst.WriteByte('\\'); err != nil {
				return err
			}
		} else if err := w.dst.WriteByte(quote); err != nil {
			return err
		}
		start = i
	}
	if _, err := w.dst.WriteString(field[start:]); err != nil {
		return err
	}
	return w.dst.WriteByte(quote)
}

// writeEscaped writes an unquoted field under backslash escaping: backslashes, delimiters,
// terminators and a leading comment character of the first field are prefixed with a backslash.
func (w *Writer) writeEscaped(field string) error {
	start := 0
	for i := 0; i < len(field); i++ {
		c := field[i]
		escape := c == '\\' || c == w.cfg.Delimiter || w.cfg.isTerminator(c) ||
			(i == 0 && w.firstField && w.cfg.Comment != 0 && c == w.cfg.Comment)
		if !escape {
			continue
		}
		if _, err := w.dst.WriteString(field[start:i]); err != nil {
			return err
		}
		if err := w.dst.WriteByte('\\'); err != nil {
			return err
		}
		start = i
	}
	_, err := w.dst.WriteString(field[start:])
	return err
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}
