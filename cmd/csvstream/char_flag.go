package main

import (
	"github.com/spf13/pflag"

	"github.com/oleg578/csvstream/internal/dialect"
)

// charFlag is a single-character flag accepting the forms dialect.ParseChar understands.
type charFlag struct {
	value byte
	set   bool
}

var _ pflag.Value = (*charFlag)(nil)

func (f *charFlag) String() string {
	if !f.set {
		return ""
	}
	return dialect.FormatChar(f.value)
}

func (f *charFlag) Set(s string) error {
	b, err := dialect.ParseChar(s)
	if err != nil {
		return err
	}
	f.value = b
	f.set = true
	return nil
}

func (f *charFlag) Type() string {
	return "char"
}
