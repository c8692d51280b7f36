package catalog

import (
	"encoding"
	"fmt"
	"sort"
	"strings"

	"pullconf/internal/api"
)

// VariablePrefix marks a string parameter value as a reference into the
// declaring client's variable map.
const VariablePrefix = "$pullconf::"

// Variables is the free-form variable map of a client declaration. Values are
// the Go representations the TOML decoder produces: string, int64, float64,
// bool, time.Time, []any and map[string]any.
type Variables map[string]any

// resolve substitutes raw with the referenced variable value when raw is a
// string of the form "$pullconf::NAME". Any other value passes through.
func (v Variables) resolve(parameter string, raw any) (any, error) {
	s, ok := raw.(string)
	if !ok || !strings.HasPrefix(s, VariablePrefix) {
		return raw, nil
	}
	name := strings.TrimPrefix(s, VariablePrefix)
	value, ok := v[name]
	if !ok {
		return nil, fmt.Errorf("parameter `%s` refers to unknown variable `%s`: %w", parameter, name, ErrUnknownVariable)
	}
	return value, nil
}

// invalidParameter wraps a coercion failure in the uniform invalid-value
// message resource declarations report.
func invalidParameter(key string, err error) error {
	return fmt.Errorf("parameter `%s` contains an invalid value: %v: %w", key, err, ErrInvalidValue)
}

func invalidParameterf(key, format string, args ...any) error {
	return invalidParameter(key, fmt.Errorf(format, args...))
}

// resourceTable wraps the raw TOML table of one declared resource and hands
// out typed, variable-resolved parameters. Every key handed out is marked as
// read; finish rejects whatever remains.
type resourceTable struct {
	kind string
	vars Variables
	raw  map[string]any
	read map[string]bool
}

func newResourceTable(kind string, raw map[string]any, vars Variables) *resourceTable {
	return &resourceTable{kind: kind, vars: vars, raw: raw, read: map[string]bool{}}
}

// value fetches and variable-resolves one parameter.
func (t *resourceTable) value(key string) (any, bool, error) {
	raw, ok := t.raw[key]
	if !ok {
		return nil, false, nil
	}
	t.read[key] = true
	resolved, err := t.vars.resolve(key, raw)
	if err != nil {
		return nil, false, err
	}
	return resolved, true, nil
}

func (t *resourceTable) optionalString(key string) (*string, error) {
	raw, ok, err := t.value(key)
	if err != nil || !ok {
		return nil, err
	}
	s, ok := raw.(string)
	if !ok {
		return nil, invalidParameterf(key, "expected a string, got %T", raw)
	}
	return &s, nil
}

func (t *resourceTable) requiredString(key string) (string, error) {
	s, err := t.optionalString(key)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", fmt.Errorf("parameter `%s` is required: %w", key, ErrInvalidValue)
	}
	return *s, nil
}

func (t *resourceTable) boolean(key string, fallback bool) (bool, error) {
	raw, ok, err := t.value(key)
	if err != nil || !ok {
		return fallback, err
	}
	b, ok := raw.(bool)
	if !ok {
		return false, invalidParameterf(key, "expected a boolean, got %T", raw)
	}
	return b, nil
}

func (t *resourceTable) optionalInteger(key string) (*int64, error) {
	raw, ok, err := t.value(key)
	if err != nil || !ok {
		return nil, err
	}
	n, ok := raw.(int64)
	if !ok {
		return nil, invalidParameterf(key, "expected an integer, got %T", raw)
	}
	return &n, nil
}

// stringList fetches an array parameter, resolving each element on its own so
// single elements may be variable references as well.
func (t *resourceTable) stringList(key string) ([]string, error) {
	raw, ok, err := t.value(key)
	if err != nil || !ok {
		return nil, err
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, invalidParameterf(key, "expected an array, got %T", raw)
	}
	out := make([]string, 0, len(list))
	for _, element := range list {
		resolved, err := t.vars.resolve(key, element)
		if err != nil {
			return nil, err
		}
		s, ok := resolved.(string)
		if !ok {
			return nil, invalidParameterf(key, "expected an array of strings, got element of type %T", resolved)
		}
		out = append(out, s)
	}
	return out, nil
}

// environment fetches the environment variable tables of a cron job, sorted
// by name with empty or duplicate names rejected.
func (t *resourceTable) environment(key string) ([]api.EnvironmentVariable, error) {
	raw, ok, err := t.value(key)
	if err != nil || !ok {
		return []api.EnvironmentVariable{}, err
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, invalidParameterf(key, "expected an array of tables, got %T", raw)
	}

	variables := make([]api.EnvironmentVariable, 0, len(list))
	seen := map[string]bool{}
	for _, element := range list {
		entry, ok := element.(map[string]any)
		if !ok {
			return nil, invalidParameterf(key, "expected an array of tables, got element of type %T", element)
		}
		name, ok := entry["name"].(string)
		if !ok || name == "" {
			return nil, invalidParameterf(key, "environment variable names must be non-empty strings")
		}
		if seen[name] {
			return nil, invalidParameterf(key, "environment variable %q is listed more than once", name)
		}
		seen[name] = true

		variable := api.EnvironmentVariable{Name: name}
		if rawValue, ok := entry["value"]; ok {
			resolved, err := t.vars.resolve(key, rawValue)
			if err != nil {
				return nil, err
			}
			value, ok := resolved.(string)
			if !ok {
				return nil, invalidParameterf(key, "environment variable %q must carry a string value, got %T", name, resolved)
			}
			variable.Value = &value
		}
		for field := range entry {
			if field != "name" && field != "value" {
				return nil, invalidParameterf(key, "environment variable %q declares unknown field `%s`", name, field)
			}
		}
		variables = append(variables, variable)
	}

	sort.Slice(variables, func(i, j int) bool { return variables[i].Name < variables[j].Name })
	return variables, nil
}

// finish rejects parameters the kind does not define.
func (t *resourceTable) finish() error {
	for key := range t.raw {
		if key == "type" || t.read[key] {
			continue
		}
		return fmt.Errorf("unknown parameter `%s`: %w", key, ErrInvalidValue)
	}
	return nil
}

// textPointer constrains the pointer of a validated value type to its
// UnmarshalText implementation.
type textPointer[T any] interface {
	*T
	encoding.TextUnmarshaler
}

// textParameter parses an optional string parameter through the validator of
// its value type.
func textParameter[T any, P textPointer[T]](t *resourceTable, key string) (*T, error) {
	s, err := t.optionalString(key)
	if err != nil || s == nil {
		return nil, err
	}
	var parsed T
	if err := P(&parsed).UnmarshalText([]byte(*s)); err != nil {
		return nil, invalidParameter(key, err)
	}
	return &parsed, nil
}

// requiredText is textParameter for parameters a kind cannot do without.
func requiredText[T any, P textPointer[T]](t *resourceTable, key string) (T, error) {
	parsed, err := textParameter[T, P](t, key)
	if err != nil {
		var zero T
		return zero, err
	}
	if parsed == nil {
		var zero T
		return zero, fmt.Errorf("parameter `%s` is required: %w", key, ErrInvalidValue)
	}
	return *parsed, nil
}

// textDefault is textParameter with a fallback for absent parameters.
func textDefault[T any, P textPointer[T]](t *resourceTable, key string, fallback T) (T, error) {
	parsed, err := textParameter[T, P](t, key)
	if err != nil {
		var zero T
		return zero, err
	}
	if parsed == nil {
		return fallback, nil
	}
	return *parsed, nil
}

// textListParameter parses an array parameter element-wise through the
// validator of its element type. Absent parameters yield an empty slice.
func textListParameter[T any, P textPointer[T]](t *resourceTable, key string) ([]T, error) {
	items, err := t.stringList(key)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		var parsed T
		if err := P(&parsed).UnmarshalText([]byte(item)); err != nil {
			return nil, invalidParameter(key, err)
		}
		out = append(out, parsed)
	}
	return out, nil
}
