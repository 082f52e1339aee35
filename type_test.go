// FILE: lixenwraith/settings/type_test.go
package settings

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Port int

type Color int

func TestConverters(t *testing.T) {
	c := NewConverters()

	t.Run("Integers", func(t *testing.T) {
		tests := []struct {
			name string
			raw  any
			typ  TypeSpec
			want any
		}{
			{"DecimalString", "5", Type[int](), 5},
			{"HexString", "0x1F", Type[int64](), int64(31)},
			{"LeadingZero", "010", Type[int](), 10},
			{"FileMode", "0755", Type[int](), 755},
			{"OctalPrefix", "0o17", Type[int](), 15},
			{"BinaryPrefix", "-0b101", Type[int](), -5},
			{"UnsignedLeadingZero", "0042", Type[uint](), uint(42)},
			{"PaddedString", " 42 ", Type[int32](), int32(42)},
			{"FloatTruncates", 7.9, Type[int](), 7},
			{"FloatString", "3.0", Type[int](), 3},
			{"Bool", true, Type[int](), 1},
			{"Unsigned", "18446744073709551615", Type[uint64](), uint64(18446744073709551615)},
			{"IntToUint", 8, Type[uint16](), uint16(8)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				v, err := c.Convert(tt.raw, tt.typ)
				require.NoError(t, err)
				assert.Equal(t, tt.want, v)
			})
		}
	})

	t.Run("IntegerErrors", func(t *testing.T) {
		tests := []struct {
			name string
			raw  any
			typ  TypeSpec
		}{
			{"EmptyString", "", Type[int]()},
			{"Garbage", "abc", Type[int]()},
			{"FractionalString", "5.7", Type[int]()},
			{"UnsignedFractional", "2.5", Type[uint8]()},
			{"Overflow", 300, Type[int8]()},
			{"NegativeUnsigned", -1, Type[uint]()},
			{"UnsupportedType", struct{}{}, Type[int]()},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := c.Convert(tt.raw, tt.typ)
				assert.ErrorIs(t, err, ErrConversion)
			})
		}
	})

	t.Run("Bool", func(t *testing.T) {
		tests := []struct {
			raw  any
			want bool
		}{
			{"yes", true}, {"Y", true}, {"on", true}, {"T", true}, {"1", true},
			{"no", false}, {"off", false}, {"f", false}, {"0", false}, {"FALSE", false},
			{0, false}, {2.5, true}, {uint8(1), true},
		}
		for _, tt := range tests {
			v, err := c.Convert(tt.raw, Type[bool]())
			require.NoError(t, err, "raw %v", tt.raw)
			assert.Equal(t, tt.want, v, "raw %v", tt.raw)
		}

		_, err := c.Convert("maybe", Type[bool]())
		assert.ErrorIs(t, err, ErrConversion)
	})

	t.Run("Floats", func(t *testing.T) {
		v, err := c.Convert("1.5", Type[float64]())
		require.NoError(t, err)
		assert.Equal(t, 1.5, v)

		v, err = c.Convert(2, Type[float32]())
		require.NoError(t, err)
		assert.Equal(t, float32(2), v)

		_, err = c.Convert(1e40, Type[float32]())
		assert.ErrorIs(t, err, ErrConversion)
	})

	t.Run("Strings", func(t *testing.T) {
		v, err := c.Convert(42, Type[string]())
		require.NoError(t, err)
		assert.Equal(t, "42", v)

		v, err = c.Convert([]byte("raw"), Type[string]())
		require.NoError(t, err)
		assert.Equal(t, "raw", v)

		v, err = c.Convert(true, Type[string]())
		require.NoError(t, err)
		assert.Equal(t, "true", v)
	})

	t.Run("DurationAndTime", func(t *testing.T) {
		v, err := c.Convert("1m30s", Type[time.Duration]())
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, v)

		v, err = c.Convert("2024-03-01T10:00:00Z", Type[time.Time]())
		require.NoError(t, err)
		assert.True(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Equal(v.(time.Time)))

		v, err = c.Convert("2024-03-01", Type[time.Time]())
		require.NoError(t, err)
		assert.True(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Equal(v.(time.Time)))
	})

	t.Run("UUID", func(t *testing.T) {
		id := uuid.New()
		v, err := c.Convert(id.String(), Type[uuid.UUID]())
		require.NoError(t, err)
		assert.Equal(t, id, v)

		_, err = c.Convert("not-a-uuid", Type[uuid.UUID]())
		assert.ErrorIs(t, err, ErrConversion)
	})

	t.Run("NamedTypeUsesKindConverter", func(t *testing.T) {
		v, err := c.Convert("8080", TypeFor(reflect.TypeFor[Port]()))
		require.NoError(t, err)
		assert.IsType(t, Port(0), v)
		assert.Equal(t, Port(8080), v)
	})

	t.Run("OptionalUnwraps", func(t *testing.T) {
		v, err := c.Convert("3", OptionalOf[int]())
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	})

	t.Run("MatchingTypeIsReturnedAsIs", func(t *testing.T) {
		in := []string{"a", "b"}
		v, err := c.Convert(in, Type[[]string]())
		require.NoError(t, err)
		out := v.([]string)
		assert.True(t, &in[0] == &out[0], "expected the same backing array")
	})

	t.Run("InterfaceTarget", func(t *testing.T) {
		e := errors.New("boom")
		v, err := c.Convert(e, Type[error]())
		require.NoError(t, err)
		assert.Equal(t, e, v)
	})

	t.Run("RegisterConverter", func(t *testing.T) {
		local := NewConverters()
		RegisterConverter(local, func(raw any) (Port, error) {
			return 443, nil
		})
		v, err := local.Convert("https", TypeFor(reflect.TypeFor[Port]()))
		require.NoError(t, err)
		assert.Equal(t, Port(443), v)

		// Other registries are unaffected
		v, err = c.Convert("80", TypeFor(reflect.TypeFor[Port]()))
		require.NoError(t, err)
		assert.Equal(t, Port(80), v)
	})

	t.Run("RegisterNilRemoves", func(t *testing.T) {
		local := NewConverters().Register(reflect.TypeFor[bool](), nil)
		_, ok := local.exact(reflect.TypeFor[bool]())
		assert.False(t, ok)
	})

	t.Run("CloneIsIndependent", func(t *testing.T) {
		clone := c.Clone()
		clone.Register(reflect.TypeFor[string](), func(any) (any, error) { return "x", nil })

		v, err := c.Convert(1, Type[string]())
		require.NoError(t, err)
		assert.Equal(t, "1", v)
	})
}

func TestEnum(t *testing.T) {
	colors := NewEnum("Color",
		Member("red", Color(1)),
		Member("green", Color(2)),
	)
	c := NewConverters()

	tests := []struct {
		name string
		raw  any
		want Color
	}{
		{"Member", Color(2), 2},
		{"Name", "green", 2},
		{"NameCaseInsensitive", "RED", 1},
		{"RawInt", 2, 2},
		{"RawString", "1", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := c.Convert(tt.raw, colors.Type())
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	t.Run("NotAMember", func(t *testing.T) {
		_, err := c.Convert("blue", colors.Type())
		require.ErrorIs(t, err, ErrConversion)
		assert.Contains(t, err.Error(), "red, green")

		_, err = c.Convert(Color(5), colors.Type())
		assert.ErrorIs(t, err, ErrConversion)
	})

	t.Run("Describe", func(t *testing.T) {
		assert.Equal(t, "Color", colors.Name())
		assert.Equal(t, []string{"red", "green"}, colors.Members())
		assert.Equal(t, "Color", colors.Type().String())
		assert.Equal(t, "Optional[Color]", Optional(colors.Type()).String())
	})
}
