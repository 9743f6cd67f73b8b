package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	hex "github.com/tmthrgd/go-hex"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = ":"

// identityFields are the fields an object argument is reduced to when
// present, in priority order.
var identityFields = []string{"id", "key", "name"}

// KeySerializer derives cache key segments from call arguments.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	// SerializeArgs renders the argument tuple deterministically.
	SerializeArgs(args ...any) string
	// HashArgs returns a short stable hash of SerializeArgs.
	HashArgs(args ...any) string
	// DefaultKey builds class:method[:userID]:hash.
	DefaultKey(class, method, userID string, args ...any) string
}

// defaultKeySerializer implements KeySerializer using reflection-based serialization.
// Object arguments are reduced to their id/key/name field when one exists so that
// calls naming the same record hash identically; everything else is rendered in
// full with sorted map keys.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// ArgumentsOf expands a call's argument value into a positional tuple.
// A struct (or pointer to struct) is treated as a tuple of its exported
// fields; any other value is a single argument.
func ArgumentsOf(v any) []any {
	if v == nil {
		return []any{nil}
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return []any{nil}
		}
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct || rv.Type() == reflect.TypeOf(time.Time{}) {
		return []any{v}
	}

	rt := rv.Type()
	out := make([]any, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		if !rt.Field(i).IsExported() {
			continue
		}
		out = append(out, rv.Field(i).Interface())
	}
	return out
}

func (s *defaultKeySerializer) SerializeArgs(args ...any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = s.serializeArgument(arg)
	}
	return strings.Join(parts, KeySeparator)
}

func (s *defaultKeySerializer) HashArgs(args ...any) string {
	sum := xxhash.Sum64String(s.SerializeArgs(args...))
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[7-i] = byte(sum >> (8 * i))
	}
	return hex.EncodeToString(buf[:])
}

func (s *defaultKeySerializer) DefaultKey(class, method, userID string, args ...any) string {
	parts := []string{class, method}
	if userID != "" {
		parts = append(parts, userID)
	}
	parts = append(parts, s.HashArgs(args...))
	return strings.Join(parts, KeySeparator)
}

// serializeArgument reduces object arguments to their identity field before
// falling back to the full rendering.
func (s *defaultKeySerializer) serializeArgument(v any) string {
	if id, ok := s.identityOf(v); ok {
		return id
	}
	return s.serializeValue(v)
}

func (s *defaultKeySerializer) identityOf(v any) (string, bool) {
	if v == nil {
		return "", false
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		if rv.Type() == reflect.TypeOf(time.Time{}) {
			return "", false
		}
		rt := rv.Type()
		for _, name := range identityFields {
			for i := 0; i < rt.NumField(); i++ {
				field := rt.Field(i)
				if !field.IsExported() || !strings.EqualFold(field.Name, name) {
					continue
				}
				return name + "=" + s.serializeValue(rv.Field(i).Interface()), true
			}
		}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return "", false
		}
		for _, name := range identityFields {
			value := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
			if value.IsValid() {
				return name + "=" + s.serializeValue(value.Interface()), true
			}
		}
	}

	return "", false
}

// serializeValue handles individual argument serialization based on type.
func (s *defaultKeySerializer) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	rt := reflect.TypeOf(v)

	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}

	if st, ok := v.(fmt.Stringer); ok && rt.Kind() == reflect.Array {
		// uuid.UUID and friends render as their canonical text.
		return st.String()
	}

	// Handle function pointers using %p formatting for stability
	if rt.Kind() == reflect.Func {
		return fmt.Sprintf("func:%p", v)
	}

	// Handle pointers by dereferencing
	if rt.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())
	}

	if rt.Kind() == reflect.Slice {
		if rv.IsNil() {
			return "slice:nil"
		}
		return s.serializeSeq("slice", rv)
	}

	if rt.Kind() == reflect.Array {
		return s.serializeSeq("array", rv)
	}

	// Handle maps with sorted keys for determinism
	if rt.Kind() == reflect.Map {
		if rv.IsNil() {
			return "map:nil"
		}
		return s.serializeMap(rv)
	}

	if rt.Kind() == reflect.Struct {
		return s.serializeStruct(rv, rt)
	}

	switch rt.Kind() {
	case reflect.Chan:
		return fmt.Sprintf("chan:%p", v)
	case reflect.Interface:
		if rv.IsNil() {
			return "interface:nil"
		}
		return s.serializeValue(rv.Elem().Interface())
	}

	if s.isBasicType(rt.Kind()) {
		return fmt.Sprintf("%v", v)
	}

	return s.jsonFallback(v)
}

func (s *defaultKeySerializer) serializeSeq(kind string, rv reflect.Value) string {
	length := rv.Len()
	parts := make([]string, length)

	for i := 0; i < length; i++ {
		parts[i] = s.serializeValue(rv.Index(i).Interface())
	}

	return fmt.Sprintf("%s[%d]:{%s}", kind, length, strings.Join(parts, ","))
}

// serializeMap handles map serialization with sorted keys for determinism
func (s *defaultKeySerializer) serializeMap(rv reflect.Value) string {
	type pair struct {
		key   string
		value reflect.Value
	}

	pairs := make([]pair, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, pair{key: s.serializeValue(iter.Key().Interface()), value: iter.Value()})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s=%s", p.key, s.serializeValue(p.value.Interface()))
	}

	return fmt.Sprintf("map[%d]:{%s}", len(parts), strings.Join(parts, ","))
}

// serializeStruct handles struct serialization with field names
func (s *defaultKeySerializer) serializeStruct(rv reflect.Value, rt reflect.Type) string {
	parts := make([]string, 0, rv.NumField())

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		fieldValue := rv.Field(i)
		if !fieldValue.CanInterface() {
			continue
		}

		parts = append(parts, fmt.Sprintf("%s:%s", field.Name, s.serializeValue(fieldValue.Interface())))
	}

	return fmt.Sprintf("struct:{%s}", strings.Join(parts, ","))
}

func (s *defaultKeySerializer) isBasicType(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	default:
		return false
	}
}

// jsonFallback provides JSON serialization as a last resort
func (s *defaultKeySerializer) jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("fallback:%s", reflect.TypeOf(v).String())
	}
	return fmt.Sprintf("json:%s", string(data))
}
