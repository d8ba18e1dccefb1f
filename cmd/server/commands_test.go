package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExporter struct {
	err error
}

func (s stubExporter) ExportProducts(_ context.Context, w io.Writer) error {
	if _, err := io.WriteString(w, "id,name\n1,Gateway\n"); err != nil {
		return err
	}
	return s.err
}

type failingCloser struct {
	bytes.Buffer
	closeErr error
}

func (f *failingCloser) Close() error { return f.closeErr }

func withOutput(t *testing.T, w io.WriteCloser) {
	t.Helper()
	orig := createOutput
	createOutput = func(string) (io.WriteCloser, error) { return w, nil }
	t.Cleanup(func() { createOutput = orig })
}

func TestExportProducts_Stdout(t *testing.T) {
	for _, output := range []string{"", "-"} {
		var out bytes.Buffer
		require.NoError(t, exportProducts(context.Background(), stubExporter{}, output, &out))
		assert.Equal(t, "id,name\n1,Gateway\n", out.String())
	}
}

func TestExportProducts_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	var stdout bytes.Buffer

	require.NoError(t, exportProducts(context.Background(), stubExporter{}, path, &stdout))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,Gateway\n", string(data))
	assert.Empty(t, stdout.String())
}

func TestExportProducts_CloseErrorIsReturned(t *testing.T) {
	diskFull := errors.New("no space left on device")
	withOutput(t, &failingCloser{closeErr: diskFull})

	err := exportProducts(context.Background(), stubExporter{}, "products.csv", io.Discard)
	require.ErrorIs(t, err, diskFull)
	assert.Contains(t, err.Error(), "products.csv")
}

func TestExportProducts_ExportErrorWinsOverCloseError(t *testing.T) {
	exportErr := errors.New("store unavailable")
	withOutput(t, &failingCloser{closeErr: errors.New("close failed")})

	err := exportProducts(context.Background(), stubExporter{err: exportErr}, "products.csv", io.Discard)
	assert.ErrorIs(t, err, exportErr)
}
