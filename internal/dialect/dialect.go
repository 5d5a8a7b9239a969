// Package dialect names reusable csvstream format profiles and loads them from YAML or JSONC
// files, with CSVSTREAM_* environment overrides.
package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hengadev/errsx"

	"github.com/oleg578/csvstream"
)

// Dialect is the serialisable form of a csvstream.Config. Empty characters and nil switches keep
// the csvstream.DefaultConfig value.
type Dialect struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	Delimiter       string `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	Quote           string `yaml:"quote,omitempty" json:"quote,omitempty"`
	Escape          string `yaml:"escape,omitempty" json:"escape,omitempty"`
	Comment         string `yaml:"comment,omitempty" json:"comment,omitempty"`
	RecordDelimiter string `yaml:"record_delimiter,omitempty" json:"record_delimiter,omitempty"`

	Trim           *bool `yaml:"trim,omitempty" json:"trim,omitempty"`
	Qualifier      *bool `yaml:"qualifier,omitempty" json:"qualifier,omitempty"`
	Comments       *bool `yaml:"comments,omitempty" json:"comments,omitempty"`
	SafetySwitch   *bool `yaml:"safety_switch,omitempty" json:"safety_switch,omitempty"`
	SafetyLimit    int   `yaml:"safety_limit,omitempty" json:"safety_limit,omitempty"`
	SkipEmpty      *bool `yaml:"skip_empty,omitempty" json:"skip_empty,omitempty"`
	ForceQualifier *bool `yaml:"force_qualifier,omitempty" json:"force_qualifier,omitempty"`
	CRLF           *bool `yaml:"crlf,omitempty" json:"crlf,omitempty"`
}

// Config converts d into a validated csvstream.Config.
func (d Dialect) Config() (csvstream.Config, error) {
	cfg := csvstream.DefaultConfig()
	errs := make(errsx.Map)

	chars := []struct {
		name  string
		value string
		dst   *byte
	}{
		{"delimiter", d.Delimiter, &cfg.Delimiter},
		{"quote", d.Quote, &cfg.Quote},
		{"comment", d.Comment, &cfg.Comment},
		{"record_delimiter", d.RecordDelimiter, &cfg.RecordDelimiter},
	}
	for _, ch := range chars {
		if ch.value == "" {
			continue
		}
		b, err := ParseChar(ch.value)
		if err != nil {
			errs.Set(ch.name, err)
			continue
		}
		*ch.dst = b
	}
	if d.Escape != "" {
		mode, err := csvstream.ParseEscapeMode(d.Escape)
		if err != nil {
			errs.Set("escape", err)
		} else {
			cfg.Escape = mode
		}
	}

	setBool(&cfg.TrimWhitespace, d.Trim)
	setBool(&cfg.UseTextQualifier, d.Qualifier)
	setBool(&cfg.UseComments, d.Comments)
	setBool(&cfg.SafetySwitch, d.SafetySwitch)
	setBool(&cfg.SkipEmptyRecords, d.SkipEmpty)
	setBool(&cfg.ForceQualifier, d.ForceQualifier)
	setBool(&cfg.UseCRLF, d.CRLF)
	if d.SafetyLimit != 0 {
		cfg.SafetyLimit = d.SafetyLimit
	}

	if !errs.IsEmpty() {
		return csvstream.Config{}, fmt.Errorf("dialect %q: %w", d.Name, errs.AsError())
	}
	if err := cfg.Validate(); err != nil {
		return csvstream.Config{}, fmt.Errorf("dialect %q: %w", d.Name, err)
	}
	return cfg, nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Bool returns a pointer to v, for building dialects in code.
func Bool(v bool) *bool {
	return &v
}

var charNames = map[string]byte{
	"comma":      ',',
	"semicolon":  ';',
	"colon":      ':',
	"tab":        '\t',
	"pipe":       '|',
	"space":      ' ',
	"quote":      '"',
	"apostrophe": '\'',
	"hash":       '#',
	"cr":         '\r',
	"lf":         '\n',
	"none":       0,
}

// ParseChar parses a control character written as the character itself, a name ("tab",
// "pipe", "none", ...), an escape ("\t", "\n", "\r", "\\") or a hex byte ("0x1f").
func ParseChar(s string) (byte, error) {
	if b, ok := charNames[strings.ToLower(s)]; ok {
		return b, nil
	}
	switch s {
	case `\t`:
		return '\t', nil
	case `\n`:
		return '\n', nil
	case `\r`:
		return '\r', nil
	case `\\`:
		return '\\', nil
	}
	if len(s) == 1 {
		if s[0] >= 0x80 {
			return 0, fmt.Errorf("character %q is not ASCII", s)
		}
		return s[0], nil
	}
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		v, err := strconv.ParseUint(rest, 16, 8)
		if err != nil || v >= 0x80 {
			return 0, fmt.Errorf("invalid character code %q", s)
		}
		return byte(v), nil
	}
	return 0, fmt.Errorf("invalid character %q", s)
}

// FormatChar renders b the way ParseChar accepts it.
func FormatChar(b byte) string {
	switch b {
	case 0:
		return "none"
	case '\t':
		return "tab"
	case '\r':
		return "cr"
	case '\n':
		return "lf"
	case ' ':
		return "space"
	}
	if b < 0x20 || b == 0x7f {
		return fmt.Sprintf("0x%02x", b)
	}
	return string(rune(b))
}
