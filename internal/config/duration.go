package config

import (
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Duration wraps time.Duration with string-friendly JSON and mapstructure
// decoding (and JSON encoding), the way sdk/duration.go does for connector
// configs. It has no YAML-specific methods.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) Set(value string) (err error) {
	v, err := time.ParseDuration(value)
	if err != nil {
		return
	}
	*d = Duration(v)
	return
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) (err error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// DurationMapstructureHook decodes strings like "30s" into Duration fields
// when binding a config file's raw map onto RunConfig.
func DurationMapstructureHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, targetType reflect.Type, a any) (any, error) {
		if targetType != reflect.TypeFor[Duration]() {
			return a, nil
		}
		switch value := a.(type) {
		case string:
			d, err := time.ParseDuration(value)
			if err != nil {
				return nil, err
			}
			return Duration(d), nil
		case int:
			return Duration(time.Duration(value)), nil
		case int64:
			return Duration(time.Duration(value)), nil
		case float64:
			return Duration(time.Duration(value)), nil
		default:
			return a, nil
		}
	}
}
