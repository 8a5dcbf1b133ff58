package pdfinfo

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// Counter reads the page count from a PDF's page tree.
type Counter struct {
	maxBytes int64
}

// NewCounter returns a Counter that refuses to buffer more than maxBytes
// from non-seekable sources. maxBytes <= 0 disables the limit.
func NewCounter(maxBytes int64) *Counter {
	return &Counter{maxBytes: maxBytes}
}

type readSeekerAt interface {
	io.ReaderAt
	io.Seeker
}

func (c *Counter) CountPages(ctx context.Context, r io.Reader) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	src, size, err := c.source(r)
	if err != nil {
		return 0, err
	}
	return numPages(src, size)
}

// source avoids copying files, which already support random access.
func (c *Counter) source(r io.Reader) (io.ReaderAt, int64, error) {
	if rs, ok := r.(readSeekerAt); ok {
		size, err := rs.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("measure pdf: %w", err)
		}
		return rs, size, nil
	}

	if c.maxBytes > 0 {
		r = io.LimitReader(r, c.maxBytes+1)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("read pdf: %w", err)
	}
	if c.maxBytes > 0 && int64(len(raw)) > c.maxBytes {
		return nil, 0, fmt.Errorf("read pdf: larger than %d bytes", c.maxBytes)
	}
	return bytes.NewReader(raw), int64(len(raw)), nil
}

func numPages(src io.ReaderAt, size int64) (pages int, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = 0, fmt.Errorf("parse pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(src, size)
	if err != nil {
		return 0, fmt.Errorf("parse pdf: %w", err)
	}
	return reader.NumPage(), nil
}
