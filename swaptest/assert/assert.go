// Package assert holds the test helpers used across swapkeep packages. Each
// helper stops the test on the first failed check.
package assert

import (
	"reflect"

	"github.com/iov-one/swapkeep/errors"
)

// Tester is satisfied by *testing.T and *testing.B.
type Tester interface {
	Helper()
	Logf(string, ...interface{})
	Fatalf(string, ...interface{})
}

// Nil accepts an untyped nil as well as a nil pointer, slice, map, channel
// or function stored in an interface.
func Nil(t Tester, got interface{}) {
	t.Helper()
	if !isNil(got) {
		// %+v prints the stack of wrapped errors.
		t.Fatalf("unexpected value: %+v", got)
	}
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// Equal compares with reflect.DeepEqual.
func Equal(t Tester, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("not equal\nwant %T %v\n got %T %v", want, want, got, got)
	}
}

func Panics(t Tester, fn func()) {
	t.Helper()
	if !panicked(fn) {
		t.Fatalf("call did not panic")
	}
}

func panicked(fn func()) (ok bool) {
	defer func() { ok = recover() != nil }()
	fn()
	return false
}

// IsErr passes when got is want, or when want.Is(got) holds, which includes
// errors wrapping want.
func IsErr(t Tester, want, got error) {
	t.Helper()
	if want == got {
		return
	}
	if m, ok := want.(interface{ Is(error) bool }); ok && m.Is(got) {
		return
	}
	t.Fatalf("want error %q, got %+v", want, got)
}

// FieldError checks the errors reported for a single field of err. A nil
// want requires that the field has no error. Otherwise the field must have
// exactly one error and it must match want.
func FieldError(t Tester, err error, field string, want *errors.Error) {
	t.Helper()
	found := errors.FieldErrors(err, field)
	switch {
	case want == nil && len(found) == 0:
		return
	case want == nil:
		logAll(t, field, found)
		t.Fatalf("field %q: want no error, got %d", field, len(found))
	case len(found) != 1:
		logAll(t, field, found)
		t.Fatalf("field %q: want one error, got %d", field, len(found))
	case !want.Is(found[0]):
		t.Fatalf("field %q: want %q, got %q", field, want, found[0])
	}
}

func logAll(t Tester, field string, errs []error) {
	t.Helper()
	for i, e := range errs {
		t.Logf("%s #%d: %q", field, i+1, e)
	}
}
