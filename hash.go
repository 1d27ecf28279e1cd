// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package settle

import (
	"crypto/md5"
	"encoding/ascii85"
	"fmt"
	"reflect"
	"sort"
)

// SecretHash derives a stable secret from a settings mapping: a fixed
// input environment always yields the same value, and changing any
// resolved option changes it. Finalizers use it to supply a derived
// secret when no explicit one was configured. The digest is not a
// substitute for a real secret in production deployments.
//
// Only plain data enters the digest. A value holding a pointer,
// function or channel prints differently on every allocation, so such
// options are left out rather than poisoning the derivation.
func SecretHash(settings map[string]any) string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := md5.New()
	for _, k := range keys {
		if !plainValue(reflect.ValueOf(settings[k])) {
			continue
		}
		fmt.Fprintf(h, "%s=%v;", k, settings[k])
	}
	sum := h.Sum(nil)

	buf := make([]byte, ascii85.MaxEncodedLen(len(sum)))
	n := ascii85.Encode(buf, sum)
	return string(buf[:n])
}

// plainValue reports whether v is plain data with a stable printed
// form: scalars, plus slices, arrays, maps and structs of plain data.
func plainValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if !plainValue(v.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if !plainValue(iter.Key()) || !plainValue(iter.Value()) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if !plainValue(v.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Interface:
		return plainValue(v.Elem())
	}
	return false
}
