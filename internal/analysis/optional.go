package analysis

import (
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"
)

// Optional is an optional.Option that also round-trips through YAML, which
// go-optional itself only does for JSON. Config fields use Optional; the
// engines keep taking plain optional.Option via the embedded field.
type Optional[T any] struct {
	optional.Option[T]
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Option: optional.Some(v)}
}

// None returns an empty Optional.
func None[T any]() Optional[T] {
	return Optional[T]{Option: optional.None[T]()}
}

// UnmarshalYAML implements yaml.Unmarshaler. A null (or absent) node decodes
// to None, anything else to Some of the underlying type.
func (o *Optional[T]) UnmarshalYAML(value *yaml.Node) error {
	var v *T
	if err := value.Decode(&v); err != nil {
		return err
	}

	if v == nil {
		o.Option = optional.None[T]()
		return nil
	}

	o.Option = optional.Some(*v)

	return nil
}

// MarshalYAML implements yaml.Marshaler. None marshals as null.
func (o Optional[T]) MarshalYAML() (interface{}, error) {
	if o.IsNone() {
		return nil, nil
	}

	return o.Unwrap(), nil
}
