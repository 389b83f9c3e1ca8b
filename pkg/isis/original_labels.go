package isis

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"ssicube/internal/pvl"
)

// OriginalLabels returns the lines of the instrument label kept by ISIS when
// the cube was imported (PDS or FITS header text). The opening line and the
// two closing lines of the blob frame the label and are not returned.
func (c *Cube) OriginalLabels() ([]string, error) {
	obj, ok := c.label.Object("OriginalLabel")
	if !ok {
		return nil, errors.Wrap(ErrKeyNotFound, "OriginalLabel object")
	}
	start, err := positiveInt(obj, "StartByte")
	if err != nil {
		return nil, err
	}
	size, err := positiveInt(obj, "Bytes")
	if err != nil {
		return nil, err
	}

	f, err := os.Open(c.path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", c.path)
	}
	defer f.Close()

	raw := make([]byte, size)
	if n, err := f.ReadAt(raw, int64(start)-1); n < size {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, errors.Wrap(ErrTruncated, "original label")
		}
		return nil, errors.Wrap(err, "read original label")
	}

	text := strings.TrimRight(string(raw), "\x00")
	text = strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\r", "\n")
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) < 4 {
		return []string{}, nil
	}
	return lines[1 : len(lines)-2], nil
}

// OriginalLabel parses the original label as PVL, for PDS-labelled imports
func (c *Cube) OriginalLabel() (*pvl.Block, error) {
	lines, err := c.OriginalLabels()
	if err != nil {
		return nil, err
	}
	text := strings.Join(lines, "\n") + "\n"
	if !strings.HasSuffix(strings.TrimSpace(strings.ToUpper(text)), "END") {
		text += "End\n"
	}
	root, _, err := pvl.Parse([]byte(text))
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedLabel, "original label: %v", err)
	}
	return root, nil
}
