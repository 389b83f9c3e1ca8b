package isis

import "github.com/pkg/errors"

// Errors returned by the cube reader. Every error returned by this package that
// falls in one of these classes matches it with errors.Is.
var (
	ErrFileNotFound        = errors.New("file not found")
	ErrNotISIS             = errors.New("not an ISIS cube")
	ErrMalformedLabel      = errors.New("malformed label")
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	ErrTruncated           = errors.New("truncated cube data")
	ErrKeyNotFound         = errors.New("label key not found")
	ErrTableNotFound       = errors.New("table not found")
	ErrInvalidOption       = errors.New("invalid reader option")
)
