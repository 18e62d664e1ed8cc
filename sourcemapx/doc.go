// Package sourcemapx decodes version 3 source maps and answers position
// queries against them, intended to work with github.com/neelance/sourcemap.
//
// The "mappings" field of a source map is a compact encoding of a table that
// associates positions in a generated file with positions in one of the
// original sources. DecodeMappings() expands it into a sorted []Mapping, and
// Map.Lookup() uses the expanded table to translate a generated position into
// an original one.
//
// Unlike the decoder in github.com/neelance/sourcemap, which is used to read
// the JSON envelope, malformed mappings are reported as a *DecodeError and the
// map is rejected as a whole: a partially decoded table would silently point
// at wrong locations.
package sourcemapx
