// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package settle

type insertConfig[T comparable] struct {
	hard []T
	soft []T
}

// InsertOption configures an [Insert] call.
type InsertOption[T comparable] func(*insertConfig[T])

// WithHardDeps declares entries that must appear immediately after
// the inserted item. Ones already present in the list are anchors
// only and are never duplicated.
func WithHardDeps[T comparable](deps ...T) InsertOption[T] {
	return func(cfg *insertConfig[T]) {
		cfg.hard = append(cfg.hard, deps...)
	}
}

// WithSoftDeps declares entries the item must appear before, if they
// are present in the list at all.
func WithSoftDeps[T comparable](deps ...T) InsertOption[T] {
	return func(cfg *insertConfig[T]) {
		cfg.soft = append(cfg.soft, deps...)
	}
}

// Insert places item into list while respecting its declared
// dependency constraints: the item, followed by any hard dependencies
// not already present, is spliced in immediately before the first
// list entry that is a hard or soft dependency. When no anchor is
// present the bundle is appended. One left-to-right pass; the input
// list is never mutated.
func Insert[T comparable](item T, list []T, opts ...InsertOption[T]) []T {
	var cfg insertConfig[T]
	for _, opt := range opts {
		opt(&cfg)
	}

	present := make(map[T]struct{}, len(list))
	for _, x := range list {
		present[x] = struct{}{}
	}

	bundle := []T{item}
	for _, dep := range cfg.hard {
		if _, ok := present[dep]; !ok {
			bundle = append(bundle, dep)
		}
	}

	anchors := make(map[T]struct{}, len(cfg.hard)+len(cfg.soft))
	for _, dep := range cfg.hard {
		anchors[dep] = struct{}{}
	}
	for _, dep := range cfg.soft {
		anchors[dep] = struct{}{}
	}

	result := make([]T, 0, len(list)+len(bundle))
	for _, x := range list {
		if bundle != nil {
			if _, ok := anchors[x]; ok {
				result = append(result, bundle...)
				bundle = nil
			}
		}
		result = append(result, x)
	}
	if bundle != nil {
		result = append(result, bundle...)
	}
	return result
}
