package errorList

import (
	"errors"
	"io/fs"
	"testing"
)

func TestErrorList(t *testing.T) {
	var errs ErrorList
	if err := errs.ErrOrNil(); err != nil {
		t.Fatalf("Got: %v for an empty list. Want: nil.", err)
	}

	errs = errs.Append(nil)
	errs = errs.Append(errors.New("first"))
	errs = errs.Append(ErrorList{fs.ErrNotExist, errors.New("third")})
	if got := len(errs); got != 3 {
		t.Fatalf("Got: %d errors. Want: 3.", got)
	}
	if got, want := errs.Error(), "first (and 2 more errors)"; got != want {
		t.Errorf("Got: %q. Want: %q.", got, want)
	}
	if !errors.Is(errs.ErrOrNil(), fs.ErrNotExist) {
		t.Errorf("Got: errors.Is(errs, fs.ErrNotExist) = false. Want: true.")
	}
	if errors.Is(errs, fs.ErrPermission) {
		t.Errorf("Got: errors.Is(errs, fs.ErrPermission) = true. Want: false.")
	}

	trimmed := errs.Trim(1)
	if len(trimmed) != 2 || trimmed[1] != ErrTooManyErrors {
		t.Errorf("Got: Trim(1) = %v. Want: one error followed by ErrTooManyErrors.", trimmed)
	}
	if errs[1] != fs.ErrNotExist {
		t.Errorf("Got: Trim() modified the original list: %v.", errs)
	}
	if got, want := errs[:1].Error(), "first"; got != want {
		t.Errorf("Got: %q. Want: %q.", got, want)
	}
}
