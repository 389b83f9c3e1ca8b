package pvl

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Kind is the type of a label value
type Kind int

const (
	Symbol Kind = iota
	String
	Integer
	Real
	Sequence
	Set
)

func (k Kind) String() string {
	switch k {
	case Symbol:
		return "symbol"
	case String:
		return "string"
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Sequence:
		return "sequence"
	case Set:
		return "set"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ErrType is returned when a value is read as a kind it does not hold
var ErrType = errors.New("pvl: value type mismatch")

// Value is a keyword value. Scalars carry their text and, for numbers, the
// parsed number; sequences and sets carry their items.
type Value struct {
	Kind  Kind
	Text  string
	Int   int64
	Float float64
	Unit  string
	Items []Value
}

// NewSymbol returns a bare symbol value
func NewSymbol(s string) Value { return Value{Kind: Symbol, Text: s} }

// NewString returns a quoted string value
func NewString(s string) Value { return Value{Kind: String, Text: s} }

// NewInt returns an integer value
func NewInt(i int64) Value {
	return Value{Kind: Integer, Text: strconv.FormatInt(i, 10), Int: i, Float: float64(i)}
}

// NewReal returns a real value
func NewReal(f float64) Value {
	return Value{Kind: Real, Text: strconv.FormatFloat(f, 'g', -1, 64), Float: f}
}

// NewSequence returns a sequence holding items
func NewSequence(items ...Value) Value { return Value{Kind: Sequence, Items: items} }

// IsNumber reports whether v is an integer or a real
func (v Value) IsNumber() bool { return v.Kind == Integer || v.Kind == Real }

// IsList reports whether v is a sequence or a set
func (v Value) IsList() bool { return v.Kind == Sequence || v.Kind == Set }

// String renders the value the way it would appear in a label
func (v Value) String() string {
	var s string
	switch v.Kind {
	case String:
		s = strconv.Quote(v.Text)
	case Sequence, Set:
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			parts[i] = item.String()
		}
		lb, rb := "(", ")"
		if v.Kind == Set {
			lb, rb = "{", "}"
		}
		s = lb + strings.Join(parts, ", ") + rb
	default:
		s = v.Text
	}
	if v.Unit != "" {
		s += " <" + v.Unit + ">"
	}
	return s
}

// AsString returns the text of a scalar value
func (v Value) AsString() (string, error) {
	if v.IsList() {
		return "", errors.Wrapf(ErrType, "%s is not a scalar", v.Kind)
	}
	return v.Text, nil
}

// AsInt returns the value as an integer. Reals with an integral value are accepted.
func (v Value) AsInt() (int64, error) {
	switch v.Kind {
	case Integer:
		return v.Int, nil
	case Real:
		if v.Float == float64(int64(v.Float)) {
			return int64(v.Float), nil
		}
	}
	return 0, errors.Wrapf(ErrType, "%q is not an integer", v.String())
}

// AsFloat returns the value as a float
func (v Value) AsFloat() (float64, error) {
	if v.IsNumber() {
		return v.Float, nil
	}
	return 0, errors.Wrapf(ErrType, "%q is not a number", v.String())
}

// Strings returns the items of a list as strings, or a scalar as a single item
func (v Value) Strings() ([]string, error) {
	if !v.IsList() {
		return []string{v.Text}, nil
	}
	out := make([]string, 0, len(v.Items))
	for _, item := range v.Items {
		s, err := item.AsString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Floats returns the items of a list as floats, or a scalar as a single item
func (v Value) Floats() ([]float64, error) {
	if !v.IsList() {
		f, err := v.AsFloat()
		if err != nil {
			return nil, err
		}
		return []float64{f}, nil
	}
	out := make([]float64, 0, len(v.Items))
	for _, item := range v.Items {
		f, err := item.AsFloat()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Ints returns the items of a list as integers, or a scalar as a single item
func (v Value) Ints() ([]int64, error) {
	if !v.IsList() {
		i, err := v.AsInt()
		if err != nil {
			return nil, err
		}
		return []int64{i}, nil
	}
	out := make([]int64, 0, len(v.Items))
	for _, item := range v.Items {
		i, err := item.AsInt()
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

// AsTime parses a date/time value. Calendar (2006-01-02T15:04:05) and
// day-of-year (2006-002T15:04:05) forms are accepted, with optional
// fractional seconds and a trailing Z. Times are UTC.
func (v Value) AsTime() (time.Time, error) {
	if v.IsList() {
		return time.Time{}, errors.Wrapf(ErrType, "%s is not a time", v.Kind)
	}
	return ParseTime(v.Text)
}

// ParseTime parses an ISIS/PDS UTC time string
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")

	date, clock, hasClock := strings.Cut(s, "T")
	if !hasClock {
		clock = "00:00:00"
	}

	var day time.Time
	parts := strings.Split(date, "-")
	switch len(parts) {
	case 2:
		year, err := strconv.Atoi(parts[0])
		if err != nil {
			return time.Time{}, errors.Errorf("invalid year in %q", s)
		}
		doy, err := strconv.Atoi(parts[1])
		if err != nil || doy < 1 || doy > 366 {
			return time.Time{}, errors.Errorf("invalid day of year in %q", s)
		}
		day = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)
	case 3:
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "invalid date in %q", s)
		}
		day = d
	default:
		return time.Time{}, errors.Errorf("invalid date in %q", s)
	}

	c, err := time.Parse("15:04:05.999999999", clock)
	if err != nil {
		c, err = time.Parse("15:04", clock)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "invalid time in %q", s)
		}
	}

	return day.Add(time.Duration(c.Hour())*time.Hour +
		time.Duration(c.Minute())*time.Minute +
		time.Duration(c.Second())*time.Second +
		time.Duration(c.Nanosecond())), nil
}

// parseScalar classifies a bare word as an integer, a real or a symbol
func parseScalar(text string) Value {
	if i, ok := parseBased(text); ok {
		return Value{Kind: Integer, Text: text, Int: i, Float: float64(i)}
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Value{Kind: Integer, Text: text, Int: i, Float: float64(i)}
	}
	if looksNumeric(text) {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return Value{Kind: Real, Text: text, Float: f}
		}
	}
	return NewSymbol(text)
}

// looksNumeric filters out words strconv would accept but that are symbols in a label (Inf, NaN, hex floats)
func looksNumeric(text string) bool {
	for i := 0; i < len(text); i++ {
		c := text[i]
		if (c < '0' || c > '9') && c != '.' && c != '-' && c != '+' && c != 'e' && c != 'E' {
			return false
		}
	}
	return true
}

// parseBased parses radix integers such as 16#FF# or -2#101#
func parseBased(text string) (int64, bool) {
	if !strings.HasSuffix(text, "#") {
		return 0, false
	}
	radix, digits, ok := strings.Cut(strings.TrimSuffix(text, "#"), "#")
	if !ok {
		return 0, false
	}
	sign := int64(1)
	if strings.HasPrefix(radix, "-") {
		sign = -1
		radix = radix[1:]
	} else {
		radix = strings.TrimPrefix(radix, "+")
	}
	base, err := strconv.Atoi(radix)
	if err != nil || base < 2 || base > 16 {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		return 0, false
	}
	return sign * n, true
}
