package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If no error or only nil values were given, nil is returned. If a single
// non nil error is left, it is returned unchanged.
func Append(errs ...error) error {
	var flat []error
	for _, err := range errs {
		if isNilErr(err) {
			continue
		}
		if m, ok := err.(*multiErr); ok {
			flat = append(flat, m.errs...)
		} else {
			flat = append(flat, err)
		}
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	default:
		return &multiErr{errs: flat}
	}
}

// unpacker is implemented by errors that are grouping together more than a
// single error instance.
type unpacker interface {
	Unpack() []error
}

type multiErr struct {
	errs []error
}

// Unpack returns all clubbed errors.
func (m *multiErr) Unpack() []error {
	return m.errs
}

func (m *multiErr) Error() string {
	points := make([]string, len(m.errs))
	for i, err := range m.errs {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s\n",
		len(m.errs), strings.Join(points, "\n\t"))
}

var (
	_ error    = (*multiErr)(nil)
	_ unpacker = (*multiErr)(nil)
)
