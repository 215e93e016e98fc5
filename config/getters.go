package config

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

var ErrNotFound = errors.New("field not found")

type Option func(options *options)

type options struct {
	withDefault  bool
	defaultValue interface{}
}

func getOptions(opts ...Option) *options {
	defaultOptions := &options{
		withDefault:  false,
		defaultValue: nil,
	}

	for _, opt := range opts {
		opt(defaultOptions)
	}

	return defaultOptions
}

func WithDefault(value interface{}) Option {
	return func(options *options) {
		options.withDefault = true
		options.defaultValue = value
	}
}

// GetInterface gets the given potentially nested field irrelevant of its type.
// This will recursively descend into submaps.
func GetInterface(config map[string]interface{}, field string, opts ...Option) (interface{}, error) {
	options := getOptions(opts...)
	i := strings.Index(field, ".")
	if i == -1 {
		element, ok := config[field]
		if options.withDefault && !ok {
			return options.defaultValue, nil
		}
		if !ok {
			return nil, ErrNotFound
		}
		return element, nil
	}

	element, ok := config[field[:i]]
	if options.withDefault && !ok {
		return options.defaultValue, nil
	}
	if !ok {
		return nil, ErrNotFound
	}
	submap, ok := element.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("%v should be a map, got: %v", field[:i], reflect.TypeOf(element))
	}

	out, err := GetInterface(submap, field[i+1:], opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't get interface from %v", field[i+1:])
	}

	return out, nil
}

// GetString gets a string from the given field. Scalars are converted.
func GetString(config map[string]interface{}, field string, opts ...Option) (string, error) {
	out, err := GetInterface(config, field, opts...)
	if err != nil {
		return "", errors.Wrapf(err, "couldn't get %s", field)
	}

	outString, err := cast.ToStringE(out)
	if err != nil {
		return "", errors.Wrapf(err, "invalid %s", field)
	}

	return outString, nil
}

// GetStringList gets a string list from the given field.
func GetStringList(config map[string]interface{}, field string, opts ...Option) ([]string, error) {
	out, err := GetInterface(config, field, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't get %s", field)
	}

	outStrings, err := cast.ToStringSliceE(out)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", field)
	}

	return outStrings, nil
}

// GetInt gets an int from the given field. Numeric strings are accepted.
func GetInt(config map[string]interface{}, field string, opts ...Option) (int, error) {
	out, err := GetInterface(config, field, opts...)
	if err != nil {
		return 0, errors.Wrapf(err, "couldn't get %s", field)
	}

	outInt, err := cast.ToIntE(out)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", field)
	}

	return outInt, nil
}

// GetBool gets a bool from the given field.
func GetBool(config map[string]interface{}, field string, opts ...Option) (bool, error) {
	out, err := GetInterface(config, field, opts...)
	if err != nil {
		return false, errors.Wrapf(err, "couldn't get %s", field)
	}

	outBool, err := cast.ToBoolE(out)
	if err != nil {
		return false, errors.Wrapf(err, "invalid %s", field)
	}

	return outBool, nil
}
