package csvstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// maxEmptyReads bounds consecutive (0, nil) reads from the source before giving up.
const maxEmptyReads = 100

type state uint8

const (
	stateBetweenFields state = iota // at the start of a field, before any content
	stateUnquoted
	stateQuoted
	statePendingQuote // doubled escaping: a quote inside a quoted field, either literal or closing
	stateAfterQuote   // quoted field closed; input up to the next boundary is discarded
	stateComment
)

// class is the role a byte plays under the reader's Config, in decision order.
type class uint8

const (
	classOther class = iota
	classQuote
	classDelimiter
	classTerminator
	classComment
	classSpace
	classBackslash
)

// Reader tokenizes delimited text into records of fields.
//
// Fields of the current record live in a shared buffer; Field, Values and friends are valid until
// the next call to ReadRecord, ReadHeaders, SkipRecord or SkipLine.
type Reader struct {
	cfg   Config
	limit int

	src    io.Reader
	open   func() (io.ReadCloser, error)
	closed bool

	buf    []byte
	bufPos int
	bufLen int
	bufErr error
	eof    bool

	data       []byte
	fields     []field
	fieldStart int
	count      int
	values     []string

	state     state
	esc       escapeSeq
	started   bool
	qualified bool
	done      bool
	last      byte
	prev      byte

	stopUnquoted [256]bool
	stopQuoted   [256]bool

	readingHeaders bool
	skipping       bool
	headers        []string
	headerIndex    map[string]int
	record         int64
}

// NewReader creates a Reader over src using cfg. The Reader takes ownership of src: if src
// implements io.Closer it is closed by Close and on any terminal error.
func NewReader(src io.Reader, cfg Config) (*Reader, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: reader source cannot be nil", ErrInvalidArgument)
	}
	r, err := newReader(cfg)
	if err != nil {
		return nil, err
	}
	r.src = src
	return r, nil
}

// OpenReader creates a Reader over the file at path. The file must exist; it is opened on the
// first read and closed by Close or on any terminal error.
func OpenReader(path string, cfg Config) (*Reader, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrInvalidArgument)
	}
	r, err := newReader(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, ioError(err)
	}
	r.open = func() (io.ReadCloser, error) {
		return os.Open(path)
	}
	return r, nil
}

func newReader(cfg Config) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	r := &Reader{
		cfg:    cfg,
		limit:  cfg.SafetyLimit,
		buf:    make([]byte, defaultBufferSize),
		data:   make([]byte, 0, initialDataSize),
		fields: make([]field, 0, initialFieldCount),
	}

	r.stopUnquoted[cfg.Delimiter] = true
	if cfg.HasRecordDelimiter() {
		r.stopUnquoted[cfg.RecordDelimiter] = true
	} else {
		r.stopUnquoted['\r'] = true
		r.stopUnquoted['\n'] = true
	}
	r.stopQuoted[cfg.Quote] = true
	if cfg.Escape == EscapeBackslash {
		r.stopUnquoted['\\'] = true
		r.stopQuoted['\\'] = true
	}
	return r, nil
}

// Config returns the configuration the Reader was created with, defaults applied.
func (r *Reader) Config() Config {
	return r.cfg
}

// ReadRecord advances to the next record. It returns false with a nil error once the input is
// exhausted without producing a record. I/O failures and safety-limit breaches close the Reader.
func (r *Reader) ReadRecord() (bool, error) {
	if r == nil || r.closed {
		return false, ErrClosed
	}
	if err := r.ensureSource(); err != nil {
		return false, err
	}
	r.clearFields()
	if r.eof {
		return false, nil
	}

	for !r.done {
		if r.bufPos >= r.bufLen {
			more, err := r.fill()
			if err != nil {
				return false, err
			}
			if !more {
				break
			}
		}
		c := r.buf[r.bufPos]
		r.bufPos++
		r.prev, r.last = r.last, c
		if err := r.step(c); err != nil {
			return false, err
		}
	}
	if !r.done {
		if err := r.finish(); err != nil {
			return false, err
		}
	}
	return r.done, nil
}

// ReadHeaders reads one record and keeps it as the header set. The header record does not count
// towards CurrentRecord and its fields are not exposed through Field.
func (r *Reader) ReadHeaders() (bool, error) {
	if r == nil || r.closed {
		return false, ErrClosed
	}
	r.readingHeaders = true
	ok, err := r.ReadRecord()
	r.readingHeaders = false
	r.clearFields()
	return ok, err
}

// SkipRecord consumes one record without copying its fields.
func (r *Reader) SkipRecord() (bool, error) {
	if r == nil || r.closed {
		return false, ErrClosed
	}
	r.skipping = true
	ok, err := r.ReadRecord()
	r.skipping = false
	return ok, err
}

// SkipLine consumes input up to and including the next CR or LF, ignoring quoting. It reports
// whether any input was consumed.
func (r *Reader) SkipLine() (bool, error) {
	if r == nil || r.closed {
		return false, ErrClosed
	}
	if err := r.ensureSource(); err != nil {
		return false, err
	}
	r.clearFields()
	if r.eof {
		return false, nil
	}

	consumed := false
	for {
		if r.bufPos >= r.bufLen {
			more, err := r.fill()
			if err != nil {
				return false, err
			}
			if !more {
				return consumed, nil
			}
		}
		data := r.buf[r.bufPos:r.bufLen]
		consumed = true
		if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
			r.bufPos += i + 1
			r.prev, r.last = r.last, data[i]
			return true, nil
		}
		r.bufPos = r.bufLen
		r.last = data[len(data)-1]
	}
}

// Read returns the fields of the next record, or io.EOF when the input is exhausted.
func (r *Reader) Read() ([]string, error) {
	ok, err := r.ReadRecord()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, io.EOF
	}
	return r.Values(), nil
}

// Rewind is not supported; the source is consumed as a stream.
func (r *Reader) Rewind() error {
	if r == nil || r.closed {
		return ErrClosed
	}
	return ErrUnsupported
}

// Close releases the buffers and closes the source. It is safe to call more than once.
func (r *Reader) Close() error {
	if r == nil || r.closed {
		return nil
	}
	r.closed = true
	src := r.src
	r.src = nil
	r.open = nil
	r.buf, r.data, r.fields, r.values = nil, nil, nil, nil
	r.headers, r.headerIndex = nil, nil
	r.bufPos, r.bufLen = 0, 0

	if c, ok := src.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return ioError(err)
		}
	}
	return nil
}

// FieldCount returns the number of fields in the current record.
func (r *Reader) FieldCount() int {
	return len(r.fields)
}

// Field returns the field at index i, or "" when i is out of range.
func (r *Reader) Field(i int) string {
	if i < 0 || i >= len(r.fields) {
		return ""
	}
	f := r.fields[i]
	if f.length == 0 {
		return ""
	}
	return string(r.data[f.start : f.start+f.length])
}

// IsQualified reports whether the field at index i was enclosed in quotes.
func (r *Reader) IsQualified(i int) bool {
	if i < 0 || i >= len(r.fields) {
		return false
	}
	return r.fields[i].qualified
}

// FieldLength returns the length in bytes of the field at index i, or 0 when out of range.
func (r *Reader) FieldLength(i int) int {
	if i < 0 || i >= len(r.fields) {
		return 0
	}
	return r.fields[i].length
}

// FieldByName returns the field in the column named name, or "" when there is no such header.
func (r *Reader) FieldByName(name string) string {
	return r.Field(r.Index(name))
}

// Values materialises the current record. The returned slice is shared by later calls until the
// next record is read.
func (r *Reader) Values() []string {
	if r.values != nil || len(r.fields) == 0 {
		return r.values
	}
	record := string(r.data)
	values := make([]string, len(r.fields))
	for i, f := range r.fields {
		values[i] = record[f.start : f.start+f.length]
	}
	r.values = values
	return values
}

// CurrentRecord returns the zero-based index of the last data record read, or -1 before the first.
func (r *Reader) CurrentRecord() int64 {
	return r.record - 1
}

// Headers returns the header names captured by ReadHeaders or set with SetHeaders.
func (r *Reader) Headers() []string {
	return r.headers
}

// HeaderCount returns the number of headers.
func (r *Reader) HeaderCount() int {
	return len(r.headers)
}

// Header returns the header at index i, or "" when i is out of range.
func (r *Reader) Header(i int) string {
	if i < 0 || i >= len(r.headers) {
		return ""
	}
	return r.headers[i]
}

// Index returns the column index of the header name, or -1. When names repeat the last one wins.
func (r *Reader) Index(name string) int {
	if i, ok := r.headerIndex[name]; ok {
		return i
	}
	return -1
}

// SetHeaders replaces the header set.
func (r *Reader) SetHeaders(names []string) {
	if r.closed {
		return
	}
	r.headers = names
	r.headerIndex = make(map[string]int, len(names))
	for i, name := range names {
		r.headerIndex[name] = i
	}
}

func (r *Reader) ensureSource() error {
	if r.src != nil {
		return nil
	}
	if r.open == nil {
		return ErrClosed
	}
	f, err := r.open()
	if err != nil {
		_ = r.Close()
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return ioError(err)
	}
	r.src = f
	return nil
}

// fill refills the raw buffer. It reports false once the source is exhausted.
func (r *Reader) fill() (bool, error) {
	if r.eof {
		return false, nil
	}
	for empty := 0; ; empty++ {
		if r.bufErr != nil {
			err := r.bufErr
			r.bufErr = nil
			if err == io.EOF {
				r.eof = true
				return false, nil
			}
			return false, r.fail(ioError(err))
		}
		if empty == maxEmptyReads {
			return false, r.fail(ioError(io.ErrNoProgress))
		}

		n, err := r.src.Read(r.buf)
		r.bufErr = err
		if n > 0 {
			r.bufPos = 0
			r.bufLen = n
			return true, nil
		}
	}
}

func (r *Reader) fail(err error) error {
	_ = r.Close()
	return err
}

func (r *Reader) clearFields() {
	r.data = r.data[:0]
	r.fields = r.fields[:0]
	r.fieldStart = 0
	r.count = 0
	r.values = nil
	r.state = stateBetweenFields
	r.esc = escapeSeq{}
	r.started = false
	r.qualified = false
	r.done = false
}

func (r *Reader) classify(c byte) class {
	switch {
	case r.cfg.UseTextQualifier && c == r.cfg.Quote:
		return classQuote
	case c == r.cfg.Delimiter:
		return classDelimiter
	case r.cfg.isTerminator(c):
		return classTerminator
	case r.cfg.UseComments && c == r.cfg.Comment:
		return classComment
	case c == ' ' || c == '\t':
		return classSpace
	case r.cfg.Escape == EscapeBackslash && c == '\\':
		return classBackslash
	}
	return classOther
}

// step advances the state machine by one input byte.
func (r *Reader) step(c byte) error {
	switch r.state {
	case stateBetweenFields:
		return r.stepFieldStart(c)
	case stateUnquoted:
		return r.stepUnquoted(c)
	case stateQuoted:
		return r.stepQuoted(c)
	case statePendingQuote:
		return r.stepPendingQuote(c)
	case stateAfterQuote:
		return r.stepBoundary(c)
	case stateComment:
		if r.cfg.isTerminator(c) {
			r.state = stateBetweenFields
		}
	}
	return nil
}

func (r *Reader) stepFieldStart(c byte) error {
	switch r.classify(c) {
	case classQuote:
		r.started = true
		r.qualified = true
		r.state = stateQuoted
		return nil
	case classDelimiter:
		return r.endField()
	case classTerminator:
		if r.started || r.count > 0 || r.keepEmpty(c) {
			return r.endRecord()
		}
		return nil
	case classComment:
		if r.count == 0 {
			r.started = false
			r.state = stateComment
			return nil
		}
	case classSpace:
		if r.cfg.TrimWhitespace {
			r.started = true
			return nil
		}
	}
	r.started = true
	r.state = stateUnquoted
	return r.stepUnquoted(c)
}

// keepEmpty reports whether a bare terminator produces an empty record. The LF of a CRLF pair
// never does.
func (r *Reader) keepEmpty(c byte) bool {
	if r.cfg.SkipEmptyRecords {
		return false
	}
	return r.cfg.HasRecordDelimiter() || c == '\r' || r.prev != '\r'
}

func (r *Reader) stepUnquoted(c byte) error {
	if r.esc.stage != escapeNone {
		if consumed, err := r.feedEscape(c); consumed || err != nil {
			return err
		}
	}
	switch r.classify(c) {
	case classDelimiter:
		return r.endField()
	case classTerminator:
		return r.endRecord()
	case classBackslash:
		r.esc.begin()
		return nil
	}
	if err := r.addByte(c); err != nil {
		return err
	}
	return r.appendRun(&r.stopUnquoted)
}

func (r *Reader) stepQuoted(c byte) error {
	if r.esc.stage != escapeNone {
		if consumed, err := r.feedEscape(c); consumed || err != nil {
			return err
		}
	}
	switch r.classify(c) {
	case classQuote:
		if r.cfg.Escape == EscapeDoubled {
			r.state = statePendingQuote
		} else {
			r.state = stateAfterQuote
		}
		return nil
	case classBackslash:
		r.esc.begin()
		return nil
	}
	if err := r.addByte(c); err != nil {
		return err
	}
	return r.appendRun(&r.stopQuoted)
}

func (r *Reader) stepPendingQuote(c byte) error {
	if r.classify(c) == classQuote {
		r.state = stateQuoted
		return r.addByte(c)
	}
	return r.stepBoundary(c)
}

// stepBoundary handles input after a closing quote: only a delimiter or terminator matters.
func (r *Reader) stepBoundary(c byte) error {
	r.state = stateAfterQuote
	switch r.classify(c) {
	case classDelimiter:
		return r.endField()
	case classTerminator:
		return r.endRecord()
	}
	return nil
}

// finish closes the record at end of input.
func (r *Reader) finish() error {
	if r.esc.stage != escapeNone {
		if err := r.flushEscape(); err != nil {
			return err
		}
	}
	if r.state == stateComment {
		r.state = stateBetweenFields
		return nil
	}
	if r.started || (r.count > 0 && r.last == r.cfg.Delimiter) {
		return r.endRecord()
	}
	return nil
}

// appendRun copies the bytes following the current one that cannot change state, straight from
// the raw buffer.
func (r *Reader) appendRun(stop *[256]bool) error {
	data := r.buf[r.bufPos:r.bufLen]
	n := 0
	for n < len(data) && !stop[data[n]] {
		n++
	}
	if n == 0 {
		return nil
	}
	r.bufPos += n
	r.last = data[n-1]
	return r.addBytes(data[:n])
}

func (r *Reader) addByte(c byte) error {
	if r.skipping {
		return nil
	}
	if r.cfg.SafetySwitch && len(r.data)-r.fieldStart >= r.limit {
		return r.fail(r.limitError(LimitFieldLength))
	}
	r.data = grow(r.data)
	r.data = append(r.data, c)
	return nil
}

func (r *Reader) addBytes(p []byte) error {
	if r.skipping || len(p) == 0 {
		return nil
	}
	if r.cfg.SafetySwitch && len(r.data)-r.fieldStart+len(p) > r.limit {
		return r.fail(r.limitError(LimitFieldLength))
	}
	r.data = reserve(r.data, len(p))
	r.data = append(r.data, p...)
	return nil
}

func (r *Reader) limitError(limit Limit) error {
	return &LimitError{Limit: limit, Record: r.record, Field: r.count, Max: r.limit}
}

func (r *Reader) endField() error {
	r.state = stateBetweenFields
	r.started = false
	qualified := r.qualified
	r.qualified = false
	if r.skipping {
		r.count++
		return nil
	}
	if r.cfg.SafetySwitch && len(r.fields) >= r.limit {
		return r.fail(r.limitError(LimitFieldCount))
	}

	start, end := r.fieldStart, len(r.data)
	if r.cfg.TrimWhitespace && !qualified {
		for end > start && (r.data[end-1] == ' ' || r.data[end-1] == '\t') {
			end--
		}
		r.data = r.data[:end]
	}
	r.fields = grow(r.fields)
	r.fields = append(r.fields, field{start: start, length: end - start, qualified: qualified})
	r.fieldStart = end
	r.count++
	return nil
}

// endRecord closes the pending field and the record.
func (r *Reader) endRecord() error {
	if err := r.endField(); err != nil {
		return err
	}
	r.done = true
	switch {
	case r.skipping:
	case r.readingHeaders:
		r.SetHeaders(r.Values())
	default:
		r.record++
	}
	return nil
}
