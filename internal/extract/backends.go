// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pdiddy/research-assistant/internal/container"
)

// TextExtractor turns a PDF on disk into plain text. Implementations form
// the tiers of the pipeline; each one either returns usable text or an
// error that sends the paper to the next tier.
type TextExtractor interface {
	Extract(ctx context.Context, pdfPath string) (string, error)
}

// NativeExtractor extracts the embedded text layer with an external tool
// (pdftotext by default). Fast, but useless on scanned documents, which
// have no text layer.
type NativeExtractor struct {
	Tool string
}

// Extract runs the tool with the PDF path, writing plain text to stdout.
func (n *NativeExtractor) Extract(ctx context.Context, pdfPath string) (string, error) {
	tool := n.Tool
	if tool == "" {
		tool = "pdftotext"
	}
	if _, err := exec.LookPath(tool); err != nil {
		return "", fmt.Errorf("%s not found on PATH: %w", tool, err)
	}

	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, "-layout", pdfPath, "-")
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", tool, err, strings.TrimSpace(stderr.String()))
	}
	return out.String(), nil
}

// OCRExtractor pipes the PDF through a container image that performs
// optical character recognition, for scanned documents the native tier
// cannot read.
type OCRExtractor struct {
	runtime container.Runtime
	image   string
}

// NewOCRExtractor creates an OCR extractor backed by the given container
// runtime. It verifies the image exists locally before returning.
func NewOCRExtractor(rt container.Runtime, image string) (*OCRExtractor, error) {
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("OCR image not available in %s: %w", rt.Name(), err)
	}
	return &OCRExtractor{runtime: rt, image: image}, nil
}

// Extract reads the PDF and pipes it through the OCR container.
func (o *OCRExtractor) Extract(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := o.runtime.Run(ctx, o.image, f, &out); err != nil {
		return "", fmt.Errorf("OCR on %s: %w", pdfPath, err)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("OCR produced empty output for %s", pdfPath)
	}
	return out.String(), nil
}
