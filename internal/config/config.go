// Package config reads getsource settings from the GETSOURCE_FLAGS
// environment variable. Command line flags take precedence over it.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// EnvVar is the name of the environment variable with default settings.
const EnvVar = "GETSOURCE_FLAGS"

var (
	// ErrInvalidDest is a kind of error returned by Parse() when the dest
	// argument does not meet the requirements.
	ErrInvalidDest = errors.New("invalid config struct")
	// ErrInvalidFormat is a kind of error returned by Parse() when the raw
	// settings string is not valid.
	ErrInvalidFormat = errors.New("invalid settings format")
)

// Config holds settings shared by all getsource commands.
type Config struct {
	MaxDepth int    `flag:"max_depth"`
	Watch    bool   `flag:"watch"`
	HTTP     bool   `flag:"http"`
	LogLevel string `flag:"log_level"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		MaxDepth: 64,
		LogLevel: "warning",
	}
}

// FromEnv returns the default settings overridden by the GETSOURCE_FLAGS
// environment variable.
func FromEnv() (Config, error) {
	c := Default()
	if err := Parse(os.Getenv(EnvVar), &c); err != nil {
		return c, fmt.Errorf("failed to parse %s: %w", EnvVar, err)
	}
	return c, nil
}

// Parse parses the `raw` settings string and populates field values in `dest`.
//
// `raw` is a comma-separated list: `<name1>,<name2>=<value>,...`. Omitting the
// value is equivalent to "<name>=true". Spaces around names and values are
// trimmed, names can't be empty. If the same name is specified multiple times,
// the last instance takes effect.
//
// `dest` must be a pointer to a struct with fields tagged with `flag`. Names
// that don't have a corresponding field are silently ignored, so that stale
// settings in the environment don't break the tool. Supported field types are
// bool, int and string.
func Parse(raw string, dest any) error {
	ptr := reflect.ValueOf(dest)
	if ptr.Kind() != reflect.Pointer || ptr.Type().Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: must be a pointer to a struct", ErrInvalidDest)
	}
	if ptr.IsNil() {
		return fmt.Errorf("%w: must not be nil", ErrInvalidDest)
	}
	fields := fieldMap(ptr.Elem())

	if strings.TrimSpace(raw) == "" {
		return nil
	}
	for _, entry := range strings.Split(raw, ",") {
		key, val, hasVal := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if key == "" {
			return fmt.Errorf("%w: empty setting name", ErrInvalidFormat)
		}

		field, ok := fields[key]
		if !ok {
			continue
		}
		switch field.Kind() {
		case reflect.Bool:
			if !hasVal {
				val = "true"
			}
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("%w: can't parse %q as boolean for %q", ErrInvalidFormat, val, key)
			}
			field.SetBool(b)
		case reflect.Int:
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("%w: can't parse %q as integer for %q", ErrInvalidFormat, val, key)
			}
			field.SetInt(int64(n))
		case reflect.String:
			if !hasVal {
				return fmt.Errorf("%w: %q requires a value", ErrInvalidFormat, key)
			}
			field.SetString(val)
		default:
			return fmt.Errorf("%w: unsupported type %s of %q", ErrInvalidDest, field.Type(), key)
		}
	}
	return nil
}

// fieldMap returns struct fields keyed by the value of the "flag" tag.
func fieldMap(s reflect.Value) map[string]reflect.Value {
	typ := s.Type()
	result := map[string]reflect.Value{}
	for i := 0; i < typ.NumField(); i++ {
		if name, ok := typ.Field(i).Tag.Lookup("flag"); ok {
			result[name] = s.Field(i)
		}
	}
	return result
}
