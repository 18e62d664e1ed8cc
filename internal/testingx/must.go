// Package testingx provides helpers for use with the testing package.
package testingx

import (
	"bytes"
	"testing"

	"github.com/neelance/sourcemap"
)

// Must provides a concise way to handle handle returned error in tests that
// "should never happen"©.
//
// This function can be used in test case setup that can be presumed to be
// correct, but technically may return an error. This function MUST NOT be used
// to check for test case conditions themselves because it provides a generic,
// nondescript test error message.
//
//	m := testingx.Must[*sourcemapx.Map](t)(sourcemapx.Parse(data))
func Must[T any](t *testing.T) func(v T, err error) T {
	return func(v T, err error) T {
		t.Helper()
		if err != nil {
			t.Fatalf("Got: unexpected error: %s. Want: no error.", err)
		}
		return v
	}
}

// EncodeMap produces source map file content for the given generated file
// using the github.com/neelance/sourcemap encoder.
func EncodeMap(t *testing.T, file string, mappings ...*sourcemap.Mapping) []byte {
	t.Helper()
	m := &sourcemap.Map{Version: 3, File: file}
	for _, mapping := range mappings {
		m.AddMapping(mapping)
	}
	buf := &bytes.Buffer{}
	if err := m.WriteTo(buf); err != nil {
		t.Fatalf("Got: m.WriteTo() returned error: %s. Want: no error.", err)
	}
	return buf.Bytes()
}
