// Package document renders uploaded PDF bills into images the vision
// analyzer can read.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// ErrNoPages is returned for a PDF without renderable pages
var ErrNoPages = errors.New("pdf has no pages")

// PDFRasterizer converts PDF pages to JPEG using mupdf
type PDFRasterizer struct {
	quality int
	logger  *zap.Logger
}

// NewPDFRasterizer creates a rasterizer encoding JPEGs at the given quality (1-100)
func NewPDFRasterizer(quality int, logger *zap.Logger) *PDFRasterizer {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &PDFRasterizer{quality: quality, logger: logger}
}

// FirstPageJPEG renders page one of a PDF
func (r *PDFRasterizer) FirstPageJPEG(pdf []byte) ([]byte, error) {
	pages, err := r.PagesJPEG(pdf, 1)
	if err != nil {
		return nil, err
	}
	return pages[0], nil
}

// PagesJPEG renders up to maxPages pages. Pages that fail to render are
// skipped; an error is returned only when none succeed.
func (r *PDFRasterizer) PagesJPEG(pdf []byte, maxPages int) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if maxPages > 0 && pageCount > maxPages {
		pageCount = maxPages
	}

	var images [][]byte
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		img, err := doc.Image(pageNum)
		if err != nil {
			r.logger.Warn("Failed to extract page as image",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}

		data, err := r.encode(img)
		if err != nil {
			r.logger.Warn("Failed to encode page to JPEG",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}

		images = append(images, data)
	}

	if len(images) == 0 {
		return nil, ErrNoPages
	}

	r.logger.Debug("Rendered PDF pages", zap.Int("pages", len(images)))
	return images, nil
}

func (r *PDFRasterizer) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
