// Package utils holds small helpers shared by the services.
package utils

import (
	"crypto/sha256"
	"fmt"
	"reflect"
	"strings"

	"newsletter-backend/models"
)

type fingerprint [sha256.Size]byte

func fingerprintOf(key any) fingerprint {
	return sha256.Sum256([]byte(fmt.Sprint(key)))
}

// Dedupe keeps the first item for every distinct key, in input order.
func Dedupe[T any](items []T, key func(T) string) []T {
	seen := make(map[fingerprint]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		fp := fingerprintOf(key(item))
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, item)
	}
	return out
}

// DedupeByKey removes duplicates using either explicit keys paired
// positionally with items, or the named attribute of each item.
//
// When keys is non-nil it wins and pairing stops at the shorter of the
// two slices, so items without a key are dropped. attr is looked up as a
// struct field (Go name, case-insensitive name or json tag) or a map key.
// Passing neither fails with models.ErrInvalidArgument.
func DedupeByKey[T any](items []T, keys []string, attr string) ([]T, error) {
	if keys != nil {
		n := min(len(items), len(keys))
		seen := make(map[fingerprint]struct{}, n)
		out := make([]T, 0, n)
		for i := 0; i < n; i++ {
			fp := fingerprintOf(keys[i])
			if _, dup := seen[fp]; dup {
				continue
			}
			seen[fp] = struct{}{}
			out = append(out, items[i])
		}
		return out, nil
	}

	if attr == "" {
		return nil, fmt.Errorf("%w: either keys or attr must be provided", models.ErrInvalidArgument)
	}

	seen := make(map[fingerprint]struct{}, len(items))
	out := make([]T, 0, len(items))
	for i, item := range items {
		value, err := attribute(item, attr)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		fp := fingerprintOf(value)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, item)
	}
	return out, nil
}

func attribute(item any, name string) (any, error) {
	v := reflect.ValueOf(item)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, fmt.Errorf("%w: nil item has no attribute %q", models.ErrInvalidArgument, name)
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		if f, ok := structField(v, name); ok {
			return derefValue(f), nil
		}
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String {
			mv := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
			if mv.IsValid() {
				return derefValue(mv), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s has no attribute %q", models.ErrInvalidArgument, v.Type(), name)
}

func structField(v reflect.Value, name string) (reflect.Value, bool) {
	if f := v.FieldByName(name); f.IsValid() {
		return f, true
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if strings.EqualFold(sf.Name, name) || (tag != "" && tag == name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func derefValue(v reflect.Value) any {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}
