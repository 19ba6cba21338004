package gateway

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode converts a weakly typed API payload into a typed snapshot using
// the `cs` struct tags. Weak typing handles the string/int representation
// drift the API exhibits (e.g. "100" vs 100).
func Decode(in any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "cs",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := decoder.Decode(in); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
