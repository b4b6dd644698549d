package upload

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPreviewer(t *testing.T) *Previewer {
	t.Helper()
	p, err := NewPreviewer(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestPreviewer_RenderImagePassThrough(t *testing.T) {
	p := newTestPreviewer(t)

	path, err := p.Render("pl-1", "image/png", pngBytes)
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, written)

	got, ok := p.Path("pl-1")
	require.True(t, ok)
	assert.Equal(t, path, got)

	// An image is a single page
	pages, ok := p.Pages("pl-1")
	require.True(t, ok)
	assert.Equal(t, 1, pages)
}

func TestPreviewer_RejectsUnsupportedType(t *testing.T) {
	p := newTestPreviewer(t)

	_, err := p.Render("pl-1", "text/plain", []byte("plain text"))
	assert.Error(t, err)

	_, ok := p.Path("pl-1")
	assert.False(t, ok)
	_, ok = p.Pages("pl-1")
	assert.False(t, ok)
}

func TestPreviewer_UnknownUpload(t *testing.T) {
	p := newTestPreviewer(t)

	_, ok := p.Path("missing")
	assert.False(t, ok)
	_, ok = p.Pages("missing")
	assert.False(t, ok)
}
