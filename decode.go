// FILE: lixenwraith/settings/decode.go
package settings

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// tagName is the struct tag read by FromStruct and Fill.
const tagName = "settings"

// decodeValue converts raw into a fresh value of type t using the decode
// hooks first and mapstructure's weakly typed decoding second.
func (c *Converters) decodeValue(raw any, t reflect.Type) (any, error) {
	target := reflect.New(t)

	hooked, err := mapstructure.DecodeHookExec(c.decodeHook(), reflect.ValueOf(raw), target.Elem())
	if err != nil {
		return nil, err
	}
	if hooked != nil && reflect.TypeOf(hooked) == t {
		return hooked, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target.Interface(),
		TagName:          tagName,
		WeaklyTypedInput: true,
		DecodeHook:       c.decodeHook(),
	})
	if err != nil {
		return nil, fmt.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(hooked); err != nil {
		return nil, err
	}
	return target.Elem().Interface(), nil
}

// decode fills target from a nested map, used by Settings.Fill.
func (c *Converters) decode(nested map[string]any, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("decode target must be non-nil pointer, got %T", target)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          tagName,
		WeaklyTypedInput: true,
		DecodeHook:       c.decodeHook(),
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(nested); err != nil {
		return fmt.Errorf("decode into %T failed: %w", target, err)
	}
	return nil
}

// decodeHook returns the composite decode hook for all type conversions
func (c *Converters) decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		// Network types
		stringToNetIPHookFunc(),
		stringToNetIPNetHookFunc(),
		stringToURLHookFunc(),

		// Standard hooks
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToSliceHookFunc(","),

		// Registered converters
		c.registryHookFunc(),
	)
}

// stringToNetIPHookFunc handles net.IP conversion
func stringToNetIPHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		if t != reflect.TypeOf(net.IP{}) {
			return data, nil
		}

		str := data.(string)
		if len(str) > 45 { // Max IPv6 length
			return nil, fmt.Errorf("invalid IP length: %d", len(str))
		}
		ip := net.ParseIP(str)
		if ip == nil {
			return nil, fmt.Errorf("invalid IP address: %s", str)
		}
		return ip, nil
	}
}

// stringToNetIPNetHookFunc handles net.IPNet conversion
func stringToNetIPNetHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		isPtr := t.Kind() == reflect.Ptr
		targetType := t
		if isPtr {
			targetType = t.Elem()
		}
		if targetType != reflect.TypeOf(net.IPNet{}) {
			return data, nil
		}

		str := data.(string)
		if len(str) > 49 { // Max IPv6 CIDR length
			return nil, fmt.Errorf("invalid CIDR length: %d", len(str))
		}
		_, ipnet, err := net.ParseCIDR(str)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR: %w", err)
		}
		if isPtr {
			return ipnet, nil
		}
		return *ipnet, nil
	}
}

// stringToURLHookFunc handles url.URL conversion
func stringToURLHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		isPtr := t.Kind() == reflect.Ptr
		targetType := t
		if isPtr {
			targetType = t.Elem()
		}
		if targetType != reflect.TypeOf(url.URL{}) {
			return data, nil
		}

		str := data.(string)
		if len(str) > 2048 {
			return nil, fmt.Errorf("URL too long: %d bytes", len(str))
		}
		u, err := url.Parse(str)
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		if isPtr {
			return u, nil
		}
		return *u, nil
	}
}

// registryHookFunc routes values bound for a type with a registered
// converter through that converter, so Fill agrees with Get.
func (c *Converters) registryHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if data == nil || f == t {
			return data, nil
		}
		fn, ok := c.exact(t)
		if !ok {
			return data, nil
		}
		return fn(data)
	}
}
