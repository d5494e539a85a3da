package store

import (
	"context"
	"reflect"
)

// ReadCollection loads a record slice. A missing key yields an empty slice.
func ReadCollection[T any](ctx context.Context, s *Store, key string) ([]T, error) {
	var records []T
	if _, err := s.Read(ctx, key, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// UpdateCollection applies fn to the current slice under key and stores the
// result with compare-and-set. It returns what was stored.
func UpdateCollection[T any](ctx context.Context, s *Store, key string, fn func(records []T) ([]T, error)) ([]T, error) {
	var (
		records []T
		result  []T
	)
	err := s.Update(ctx, key, &records, func(bool) error {
		next, err := fn(records)
		if err != nil {
			return err
		}
		records = next
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resetValue zeroes what dst points at before a retry decodes into it again.
func resetValue(dst any) {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return
	}
	v.Elem().Set(reflect.Zero(v.Elem().Type()))
}
