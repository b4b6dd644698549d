package upload

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// Previewer renders the first page of an uploaded PDF to a PNG so the
// summary view can show the document next to the extracted fields. Image
// uploads are passed through untouched.
type Previewer struct {
	outputDir string
	logger    *zap.Logger

	mu    sync.Mutex
	paths map[string]string
	pages map[string]int
}

// NewPreviewer creates a previewer writing into outputDir
func NewPreviewer(outputDir string, logger *zap.Logger) (*Previewer, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create preview directory: %w", err)
	}
	return &Previewer{
		outputDir: outputDir,
		logger:    logger,
		paths:     make(map[string]string),
		pages:     make(map[string]int),
	}, nil
}

// Render produces the preview file for one upload and returns its path. For
// PDFs the first page is rasterized; PNG and JPEG bytes are written out
// unchanged.
func (p *Previewer) Render(pipelineID, declaredType string, data []byte) (string, error) {
	var path string
	var pages int
	var err error
	switch declaredType {
	case "image/png":
		path, err = p.writeRaw(pipelineID+".png", data)
		pages = 1
	case "image/jpeg":
		path, err = p.writeRaw(pipelineID+".jpg", data)
		pages = 1
	case "application/pdf":
		path, pages, err = p.renderPDF(pipelineID, data)
	default:
		return "", fmt.Errorf("no preview for type %q", declaredType)
	}
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.paths[pipelineID] = path
	p.pages[pipelineID] = pages
	p.mu.Unlock()
	return path, nil
}

// Path returns the rendered preview for an upload, false when none exists
func (p *Previewer) Path(pipelineID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	path, ok := p.paths[pipelineID]
	return path, ok
}

// Pages returns the page count recorded while rendering an upload's preview.
// Images always count as one page.
func (p *Previewer) Pages(pipelineID string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pages, ok := p.pages[pipelineID]
	return pages, ok
}

func (p *Previewer) renderPDF(pipelineID string, data []byte) (string, int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages == 0 {
		return "", 0, fmt.Errorf("pdf has no pages")
	}

	img, err := doc.Image(0)
	if err != nil {
		return "", 0, fmt.Errorf("failed to render pdf page: %w", err)
	}

	path := filepath.Join(p.outputDir, pipelineID+".png")
	out, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create preview file: %w", err)
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		return "", 0, fmt.Errorf("failed to encode preview: %w", err)
	}

	p.logger.Debug("Rendered PDF preview",
		zap.String("pipeline_id", pipelineID),
		zap.Int("pages", pages))
	return path, pages, nil
}

func (p *Previewer) writeRaw(name string, data []byte) (string, error) {
	path := filepath.Join(p.outputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write preview file: %w", err)
	}
	return path, nil
}
