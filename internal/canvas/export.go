package canvas

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

type ExportOptions struct {
	// Format must be "png" or empty.
	Format     string
	Multiplier float64
}

// EncodePNG writes a PNG snapshot at multiplier times the viewport size.
func (c *Canvas) EncodePNG(w io.Writer, multiplier float64) error {
	dc, err := c.rasterize(multiplier)
	if err != nil {
		return err
	}
	defer dc.Close()
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// ToDataURL returns a base64 data: URI snapshot.
func (c *Canvas) ToDataURL(opts ExportOptions) (string, error) {
	if format := strings.ToLower(opts.Format); format != "" && format != "png" {
		return "", fmt.Errorf("unsupported export format: %s", opts.Format)
	}

	var buf bytes.Buffer
	if err := c.EncodePNG(&buf, opts.Multiplier); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
