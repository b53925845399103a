package merge

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Decode converts a record into T. Fields are matched by their mapstructure
// tag, or case-insensitively by field name. Numbers decode into any Go
// numeric field.
func Decode[T any](r Record) (T, error) {
	var out T

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		ErrorUnset:       false,
		WeaklyTypedInput: false,
	})
	if err != nil {
		return out, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := dec.Decode(map[string]any(r)); err != nil {
		return out, fmt.Errorf("failed to decode record: %w", err)
	}
	return out, nil
}
