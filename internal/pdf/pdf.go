// Package pdf turns rendered contract HTML into PDF bytes.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"backoffice/internal/logger"
)

const minSize = 1024

var ErrInvalidPDF = errors.New("invalid pdf")

type Renderer interface {
	Name() string
	Render(ctx context.Context, html string) ([]byte, error)
}

// Validate checks the PDF header, the EOF trailer and a minimum size.
func Validate(b []byte) error {
	if len(b) < minSize {
		return fmt.Errorf("%w: too small (%d bytes)", ErrInvalidPDF, len(b))
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		return fmt.Errorf("%w: missing %%PDF- header", ErrInvalidPDF)
	}
	tail := b
	if len(tail) > 1024 {
		tail = tail[len(tail)-1024:]
	}
	if !bytes.Contains(tail, []byte("%%EOF")) {
		return fmt.Errorf("%w: missing %%%%EOF trailer", ErrInvalidPDF)
	}
	return nil
}

// Chain tries each renderer in order and returns the first valid PDF.
type Chain struct {
	renderers []Renderer
	log       *logger.Logger
}

func NewChain(log *logger.Logger, renderers ...Renderer) *Chain {
	if log == nil {
		log = logger.Nop()
	}
	return &Chain{renderers: renderers, log: log.With("component", "pdf")}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Render(ctx context.Context, html string) ([]byte, error) {
	if len(c.renderers) == 0 {
		return nil, errors.New("no pdf renderer configured")
	}
	var errs []error
	for _, r := range c.renderers {
		out, err := r.Render(ctx, html)
		if err == nil {
			err = Validate(out)
		}
		if err == nil {
			c.log.Debug("pdf rendered", "renderer", r.Name(), "bytes", len(out))
			return out, nil
		}
		c.log.Warn("pdf renderer failed", "renderer", r.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}
