package features

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Decode overlays fields onto the defaults of the input variant named by kind.
// Unknown keys are ignored and nil values keep the default.
func Decode(kind string, fields map[string]any) (RawInput, error) {
	switch kind {
	case KindPhishing:
		return DecodePhishing(fields)
	case KindMalware:
		return DecodeMalware(fields)
	case KindRansomware:
		return DecodeRansomware(fields)
	case KindNetwork:
		return DecodeNetwork(fields)
	case KindZeroDay:
		return DecodeZeroDay(fields)
	default:
		return nil, fmt.Errorf("unknown input kind %q", kind)
	}
}

func DecodePhishing(fields map[string]any) (PhishingInput, error) {
	in := DefaultPhishingInput()
	err := decodeInto(KindPhishing, fields, &in, stringifyHook)
	return in, err
}

func DecodeMalware(fields map[string]any) (MalwareInput, error) {
	in := DefaultMalwareInput()
	err := decodeInto(KindMalware, fields, &in, stringifyHook)
	return in, err
}

// DecodeRansomware never fails on a bad numeric value: unparseable input
// reads as 0.
func DecodeRansomware(fields map[string]any) (RansomwareInput, error) {
	in := DefaultRansomwareInput()
	err := decodeInto(KindRansomware, fields, &in, stringifyHook, lenientFloatHook)
	return in, err
}

func DecodeNetwork(fields map[string]any) (NetworkInput, error) {
	in := DefaultNetworkInput()
	err := decodeInto(KindNetwork, fields, &in, stringifyHook)
	return in, err
}

// DecodeZeroDay accepts both the wire names ("ip address") and their
// snake_case spellings ("ip_address"). The wire name wins when both are set.
func DecodeZeroDay(fields map[string]any) (ZeroDayInput, error) {
	in := DefaultZeroDayInput()
	norm := make(map[string]any, len(fields))
	for k, v := range fields {
		if alias, ok := zeroDayAliases[k]; ok {
			if _, dup := fields[alias]; dup {
				continue
			}
			k = alias
		}
		norm[k] = v
	}
	err := decodeInto(KindZeroDay, norm, &in, stringifyHook)
	return in, err
}

func decodeInto(kind string, fields map[string]any, out any, hooks ...mapstructure.DecodeHookFuncType) error {
	if len(fields) == 0 {
		return nil
	}
	composed := make([]mapstructure.DecodeHookFunc, len(hooks))
	for i, h := range hooks {
		composed[i] = h
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     out,
		MatchName:  func(mapKey, fieldName string) bool { return mapKey == fieldName },
		DecodeHook: mapstructure.ComposeDecodeHookFunc(composed...),
	})
	if err != nil {
		return fmt.Errorf("%s decoder: %w", kind, err)
	}
	if err := dec.Decode(fields); err != nil {
		return fmt.Errorf("decode %s input: %w", kind, err)
	}
	return nil
}

// stringifyHook renders scalar numbers and booleans for string fields.
func stringifyHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	v := reflect.ValueOf(data)
	switch from.Kind() {
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	}
	return data, nil
}

// lenientFloatHook coerces anything non-numeric headed for a float field:
// parseable strings become their value, everything else becomes 0.
func lenientFloatHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() != reflect.Float64 {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return data, nil
	case reflect.Bool:
		if reflect.ValueOf(data).Bool() {
			return 1.0, nil
		}
		return 0.0, nil
	case reflect.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(reflect.ValueOf(data).String()), 64)
		if err != nil {
			return 0.0, nil
		}
		return f, nil
	}
	return 0.0, nil
}

// structMapping flattens a record into a Mapping keyed by its json tags.
func structMapping(in any) (Mapping, error) {
	raw := map[string]interface{}{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: &raw})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(in); err != nil {
		return nil, fmt.Errorf("flatten %T: %w", in, err)
	}
	out := make(Mapping, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case string:
			out[k] = String(x)
		case float64:
			out[k] = Number(x)
		case int64:
			out[k] = Number(float64(x))
		default:
			return nil, fmt.Errorf("field %q has unsupported type %T", k, v)
		}
	}
	return out, nil
}
