package stream

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "id,name\n1,\"a,b\"\n2,plain\n"

func TestParseCompression(t *testing.T) {
	t.Parallel()

	for _, c := range []Compression{CompressionNone, CompressionGzip, CompressionZstd, CompressionLZ4, CompressionAuto} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	got, err := ParseCompression("GZ")
	require.NoError(t, err)
	assert.Equal(t, CompressionGzip, got)

	_, err = ParseCompression("brotli")
	assert.Error(t, err)
}

func TestFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CompressionGzip, FromPath("data.csv.gz"))
	assert.Equal(t, CompressionZstd, FromPath("data.csv.ZST"))
	assert.Equal(t, CompressionLZ4, FromPath("/tmp/x.lz4"))
	assert.Equal(t, CompressionNone, FromPath("data.csv"))
	assert.Equal(t, CompressionNone, FromPath("-"))
}

func TestReaderWriterRoundTrip(t *testing.T) {
	t.Parallel()

	for _, c := range []Compression{CompressionNone, CompressionGzip, CompressionZstd, CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			w, err := NewWriter(&buf, c)
			require.NoError(t, err)
			_, err = io.WriteString(w, sample)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			if c != CompressionNone {
				assert.NotEqual(t, sample, buf.String())
			}

			r, err := NewReader(&buf, c)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, sample, string(got))
		})
	}
}

func TestOpenCreateAuto(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"plain.csv", "data.csv.gz", "data.csv.zst", "data.csv.lz4"} {
		path := filepath.Join(dir, name)

		w, err := Create(path, CompressionAuto)
		require.NoError(t, err)
		_, err = io.WriteString(w, sample)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		if FromPath(path) == CompressionNone {
			assert.Equal(t, sample, string(raw))
		} else {
			assert.NotEqual(t, sample, string(raw), name)
		}

		r, err := Open(path, CompressionAuto)
		require.NoError(t, err)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		assert.Equal(t, sample, string(got), name)
	}
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := Open(filepath.Join(dir, "missing.csv"), CompressionNone)
	assert.ErrorIs(t, err, os.ErrNotExist)

	notGzip := filepath.Join(dir, "fake.gz")
	require.NoError(t, os.WriteFile(notGzip, []byte(sample), 0o644))
	_, err = Open(notGzip, CompressionAuto)
	assert.Error(t, err)

	_, err = NewReader(bytes.NewReader(nil), Compression(42))
	assert.Error(t, err)
	_, err = NewWriter(io.Discard, Compression(42))
	assert.Error(t, err)
}
