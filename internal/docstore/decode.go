package docstore

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Decode maps document data onto out, a pointer to a struct with mapstructure tags.
// Backends return numbers as int64, float64 or int32, and arrays as []any, so
// decoding is weakly typed. Timestamps are converted to epoch seconds.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       timeToEpochHook,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// DecodeDocument decodes doc into a new T.
func DecodeDocument[T any](doc Document) (*T, error) {
	var out T
	if err := Decode(doc.Data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DecodeAll decodes docs in order.
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := DecodeDocument[T](d)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.ID, err)
		}
		out = append(out, *v)
	}
	return out, nil
}

func timeToEpochHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	t, ok := data.(time.Time)
	if !ok || to.Kind() != reflect.Int64 {
		return data, nil
	}
	return t.Unix(), nil
}
