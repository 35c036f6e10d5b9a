package ocr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	stdout []byte
	stderr []byte
	err    error

	gotName string
	gotArgs []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.gotName = name
	f.gotArgs = args
	return f.stdout, f.stderr, f.err
}

func testExtractor(r Runner) *Extractor {
	e := NewExtractor(Config{TesseractLang: "por", CacheDir: "./tmp"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return e.WithRunner(r)
}

func TestExtractImageRunsTesseract(t *testing.T) {
	r := &fakeRunner{stdout: []byte("  CONTRATO   DE  TRABALHO\n\n\n\nentre as partes  \n")}
	res, err := testExtractor(r).ExtractImage(context.Background(), "/tmp/foto.jpg")
	require.NoError(t, err)

	assert.Equal(t, "tesseract", r.gotName)
	assert.Equal(t, []string{"/tmp/foto.jpg", "stdout", "-l", "por"}, r.gotArgs)
	assert.Equal(t, "CONTRATO DE TRABALHO\n\nentre as partes", res.Text)
	assert.Equal(t, "por", res.Language)
}

func TestExtractImagePassesPSMAndOEM(t *testing.T) {
	r := &fakeRunner{stdout: []byte("x")}
	e := NewExtractor(Config{PSM: 6, OEM: 1}, slog.New(slog.NewTextHandler(io.Discard, nil))).WithRunner(r)
	_, err := e.ExtractImage(context.Background(), "a.png")
	require.NoError(t, err)
	joined := strings.Join(r.gotArgs, " ")
	assert.Contains(t, joined, "--psm 6")
	assert.Contains(t, joined, "--oem 1")
}

func TestExtractImageSurfacesStderrOnFailure(t *testing.T) {
	r := &fakeRunner{stderr: []byte("Error opening data file por.traineddata"), err: errors.New("exit status 1")}
	res, err := testExtractor(r).ExtractImage(context.Background(), "a.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "traineddata")
}

func TestExtractImageBytesCleansUpTempFile(t *testing.T) {
	dir := t.TempDir()
	r := &fakeRunner{stdout: []byte("texto")}
	e := NewExtractor(Config{CacheDir: dir}, slog.New(slog.NewTextHandler(io.Discard, nil))).WithRunner(r)

	res, err := e.ExtractImageBytes(context.Background(), []byte{0xFF, 0xD8}, "jpg")
	require.NoError(t, err)
	assert.Equal(t, "texto", res.Text)
	assert.True(t, strings.HasSuffix(r.gotArgs[0], ".jpg"))

	// temp file removed after extraction
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNormalize(t *testing.T) {
	in := "a   b\r\nc\n\n\n\nd |||| e"
	assert.Equal(t, "a b\nc\n\nd e", Normalize(strings.ReplaceAll(in, "||||", "")))
}
