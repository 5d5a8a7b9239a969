package csvstream

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hengadev/errsx"
)

// DefaultSafetyLimit is the default cap on field length and on fields per record.
const DefaultSafetyLimit = 100000

// EscapeMode selects how a literal quote character is represented inside a quoted field.
type EscapeMode int

const (
	// EscapeDoubled represents a literal quote by doubling it ("").
	EscapeDoubled EscapeMode = iota
	// EscapeBackslash prefixes a literal quote with a backslash (\") and enables the backslash
	// escape sequences \a \b \e \f \n \r \t \v, \xHH, \uHHHH, \oOOO, \dDDD and \OOO.
	EscapeBackslash
)

// String returns "doubled" or "backslash".
func (m EscapeMode) String() string {
	switch m {
	case EscapeDoubled:
		return "doubled"
	case EscapeBackslash:
		return "backslash"
	default:
		return fmt.Sprintf("EscapeMode(%d)", int(m))
	}
}

// ParseEscapeMode parses the output of EscapeMode.String.
func ParseEscapeMode(name string) (EscapeMode, error) {
	switch strings.ToLower(name) {
	case "doubled", "double":
		return EscapeDoubled, nil
	case "backslash":
		return EscapeBackslash, nil
	default:
		return 0, &OptionsError{Field: "Escape", Message: fmt.Sprintf("unknown escape mode %q", name)}
	}
}

// Config holds the format knobs shared by Reader and Writer.
//
// Control characters are single ASCII bytes. Start from DefaultConfig: the zero value disables
// trimming, quoting and the safety switch.
type Config struct {
	// Delimiter separates fields. Zero means ','.
	Delimiter byte
	// Quote encloses fields that contain delimiters or terminators. Zero means '"'.
	Quote byte
	// Escape selects the escape discipline.
	Escape EscapeMode
	// Comment marks a comment line when it is the first character of a record.
	Comment byte
	// RecordDelimiter, when non-zero, is the only record terminator. When zero, CR, LF and
	// CRLF all terminate a record.
	RecordDelimiter byte

	// TrimWhitespace drops leading and trailing spaces and tabs from unquoted fields on read.
	// It does not affect writing: Writer always trims unless preserveSpaces is passed.
	TrimWhitespace bool
	// UseTextQualifier enables quoting. When false the quote character is ordinary text.
	UseTextQualifier bool
	// UseComments enables comment-line skipping on read.
	UseComments bool
	// SafetySwitch bounds field length and fields per record by SafetyLimit.
	SafetySwitch bool
	// SafetyLimit is the bound applied when SafetySwitch is set. Zero means DefaultSafetyLimit.
	SafetyLimit int
	// SkipEmptyRecords suppresses records made of a bare terminator.
	SkipEmptyRecords bool

	// ForceQualifier quotes every written field.
	ForceQualifier bool
	// UseCRLF terminates written records with \r\n instead of \n. Ignored when
	// RecordDelimiter is set.
	UseCRLF bool
}

// DefaultConfig returns the historical defaults: comma delimiter, double-quote qualifier,
// doubled escaping, '#' comments (disabled), CR/LF terminators, trimming on, quoting on,
// empty-record skipping on, and a safety limit of 100,000.
func DefaultConfig() Config {
	return Config{
		Delimiter:        ',',
		Quote:            '"',
		Escape:           EscapeDoubled,
		Comment:          '#',
		TrimWhitespace:   true,
		UseTextQualifier: true,
		SafetySwitch:     true,
		SafetyLimit:      DefaultSafetyLimit,
		SkipEmptyRecords: true,
	}
}

// HasRecordDelimiter reports whether a custom record terminator is configured.
func (c Config) HasRecordDelimiter() bool {
	return c.RecordDelimiter != 0
}

func (c Config) withDefaults() Config {
	if c.Delimiter == 0 {
		c.Delimiter = ','
	}
	if c.Quote == 0 {
		c.Quote = '"'
	}
	if c.SafetyLimit == 0 {
		c.SafetyLimit = DefaultSafetyLimit
	}
	return c
}

// Validate reports every problem with the configuration in a single error wrapping
// ErrInvalidArgument. Zero Delimiter, Quote and SafetyLimit are validated as their defaults.
func (c Config) Validate() error {
	c = c.withDefaults()
	errs := make(errsx.Map)

	chars := []struct {
		name  string
		value byte
		used  bool
	}{
		{"Delimiter", c.Delimiter, true},
		{"Quote", c.Quote, c.UseTextQualifier},
		{"Comment", c.Comment, c.Comment != 0},
		{"RecordDelimiter", c.RecordDelimiter, c.HasRecordDelimiter()},
	}
	for i, ch := range chars {
		if !ch.used {
			continue
		}
		if ch.value >= utf8.RuneSelf {
			errs.Set(ch.name, &OptionsError{Field: ch.name, Message: fmt.Sprintf("0x%02x is not an ASCII character", ch.value)})
			continue
		}
		if !c.HasRecordDelimiter() && ch.name != "RecordDelimiter" && (ch.value == '\r' || ch.value == '\n') {
			errs.Set(ch.name, &OptionsError{Field: ch.name, Message: "must not be a line terminator"})
		}
		if c.Escape == EscapeBackslash && ch.value == '\\' {
			errs.Set(ch.name, &OptionsError{Field: ch.name, Message: "must not be a backslash with backslash escaping"})
		}
		for _, other := range chars[:i] {
			if other.used && other.value == ch.value {
				errs.Set(ch.name, &OptionsError{Field: ch.name, Message: "same character as " + other.name})
			}
		}
	}
	if c.Escape != EscapeDoubled && c.Escape != EscapeBackslash {
		errs.Set("Escape", &OptionsError{Field: "Escape", Message: c.Escape.String()})
	}
	if c.SafetyLimit < 0 {
		errs.Set("SafetyLimit", &OptionsError{Field: "SafetyLimit", Message: "must not be negative"})
	}

	if errs.IsEmpty() {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidArgument, errs.AsError())
}

// isTerminator reports whether b ends a record under c.
func (c *Config) isTerminator(b byte) bool {
	if c.RecordDelimiter != 0 {
		return b == c.RecordDelimiter
	}
	return b == '\r' || b == '\n'
}
