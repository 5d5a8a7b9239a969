package dialect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oleg578/csvstream"
)

func TestParseChar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    byte
		wantErr bool
	}{
		{in: ",", want: ','},
		{in: "tab", want: '\t'},
		{in: "TAB", want: '\t'},
		{in: `\t`, want: '\t'},
		{in: "pipe", want: '|'},
		{in: "none", want: 0},
		{in: "0x1f", want: 0x1f},
		{in: `\\`, want: '\\'},
		{in: "é", wantErr: true},
		{in: "0xff", wantErr: true},
		{in: "ab", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseChar(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatCharRoundTrip(t *testing.T) {
	t.Parallel()

	for _, b := range []byte{0, '\t', '\r', '\n', ' ', ',', ';', 0x1f, '#'} {
		got, err := ParseChar(FormatChar(b))
		require.NoError(t, err, "FormatChar(%q)", b)
		assert.Equal(t, b, got)
	}
}

func TestBuiltinsAreValid(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	assert.Equal(t, []string{"default", "excel", "pipe", "tsv", "unix"}, r.Names())
	for _, name := range r.Names() {
		d, err := r.Get(name)
		require.NoError(t, err)
		_, err = d.Config()
		assert.NoError(t, err, name)
	}

	d, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, d.Name)

	_, err = r.Get("nope")
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestDialectConfig(t *testing.T) {
	t.Parallel()

	d := Dialect{
		Name:            "custom",
		Delimiter:       ";",
		Escape:          "backslash",
		Comment:         "none",
		RecordDelimiter: "0x1e",
		Trim:            Bool(false),
		SafetyLimit:     50,
		CRLF:            Bool(true),
	}
	cfg, err := d.Config()
	require.NoError(t, err)

	want := csvstream.DefaultConfig()
	want.Delimiter = ';'
	want.Escape = csvstream.EscapeBackslash
	want.Comment = 0
	want.RecordDelimiter = 0x1e
	want.TrimWhitespace = false
	want.SafetyLimit = 50
	want.UseCRLF = true
	assert.Equal(t, want, cfg)
}

func TestDialectConfigErrors(t *testing.T) {
	t.Parallel()

	_, err := Dialect{Name: "bad", Delimiter: "ab", Escape: "weird"}.Config()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Contains(t, err.Error(), "weird")

	_, err = Dialect{Name: "conflict", Delimiter: "\"", Quote: "\""}.Config()
	assert.ErrorIs(t, err, csvstream.ErrInvalidArgument)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "dialects.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
dialects:
  - name: semi
    delimiter: ";"
    comments: true
  - name: excel
    crlf: false
`), 0o644))

	jsoncPath := filepath.Join(dir, "dialects.jsonc")
	require.NoError(t, os.WriteFile(jsoncPath, []byte(`{
  // unit separated values
  "dialects": [
    {"name": "usv", "delimiter": "0x1f", "record_delimiter": "0x1e", "qualifier": false,},
  ],
}`), 0o644))

	r := NewRegistry()
	require.NoError(t, r.LoadFile(yamlPath))
	require.NoError(t, r.LoadFile(jsoncPath))

	semi, err := r.Get("semi")
	require.NoError(t, err)
	cfg, err := semi.Config()
	require.NoError(t, err)
	assert.Equal(t, byte(';'), cfg.Delimiter)
	assert.True(t, cfg.UseComments)

	excel, err := r.Get("excel")
	require.NoError(t, err)
	cfg, err = excel.Config()
	require.NoError(t, err)
	assert.False(t, cfg.UseCRLF, "file dialect should replace the built-in")

	usv, err := r.Get("usv")
	require.NoError(t, err)
	cfg, err = usv.Config()
	require.NoError(t, err)
	assert.Equal(t, byte(0x1f), cfg.Delimiter)
	assert.Equal(t, byte(0x1e), cfg.RecordDelimiter)
	assert.False(t, cfg.UseTextQualifier)
}

func TestLoadFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := NewRegistry()

	assert.Error(t, r.LoadFile(filepath.Join(dir, "missing.yaml")))

	unnamed := filepath.Join(dir, "unnamed.yaml")
	require.NoError(t, os.WriteFile(unnamed, []byte("dialects:\n  - delimiter: \";\"\n"), 0o644))
	assert.Error(t, r.LoadFile(unnamed))

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"dialects": [`), 0o644))
	assert.Error(t, r.LoadFile(broken))
}

func TestOverride(t *testing.T) {
	t.Parallel()

	d, err := Override(Dialect{Name: DefaultName}, map[string]string{
		"CSVSTREAM_DELIMITER":    "tab",
		"CSVSTREAM_TRIM":         "false",
		"CSVSTREAM_SAFETY_LIMIT": "10",
		"OTHER":                  "ignored",
	})
	require.NoError(t, err)
	cfg, err := d.Config()
	require.NoError(t, err)
	assert.Equal(t, byte('\t'), cfg.Delimiter)
	assert.False(t, cfg.TrimWhitespace)
	assert.Equal(t, 10, cfg.SafetyLimit)

	_, err = Override(Dialect{}, map[string]string{
		"CSVSTREAM_CRLF":   "maybe",
		"CSVSTREAM_COLOUR": "red",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSVSTREAM_CRLF")
	assert.Contains(t, err.Error(), "CSVSTREAM_COLOUR")
}

func TestEnviron(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CSVSTREAM_DELIMITER=;\nCSVSTREAM_CRLF=true\nUNRELATED=1\n"), 0o644))

	t.Setenv("CSVSTREAM_CRLF", "false")

	env, err := Environ(path)
	require.NoError(t, err)
	assert.Equal(t, ";", env["CSVSTREAM_DELIMITER"])
	assert.Equal(t, "false", env["CSVSTREAM_CRLF"], "process environment wins")
	assert.NotContains(t, env, "UNRELATED")

	_, err = Environ(filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}
