package core

import (
	"fmt"
	"reflect"
)

// ref identifies a map, slice or pointer by its backing storage. Slices also
// carry their length so that a zero-length reslice is not mistaken for the
// slice itself.
type ref struct {
	ptr uintptr
	n   int
}

// path holds the composites on the way from the root to the value being
// visited. Seeing one of them again means the value contains itself.
type path map[ref]struct{}

func (p path) enter(r ref) error {
	if _, ok := p[r]; ok {
		return fmt.Errorf("%w: cyclic value", ErrEncoding)
	}
	p[r] = struct{}{}
	return nil
}

func (p path) leave(r ref) {
	delete(p, r)
}

// CheckCycles fails with ErrEncoding if v contains itself. Values built by
// Convert, FromAny or UnmarshalJSON never do; a cycle can only come from
// changing a map or slice after handing it to Map or List.
func (v Value) CheckCycles() error {
	return v.checkCycles(path{})
}

func (v Value) checkCycles(p path) error {
	var r ref
	switch {
	case v.kind == KindList && len(v.list) > 0:
		r = ref{ptr: reflect.ValueOf(v.list).Pointer(), n: len(v.list)}
	case v.kind == KindMap && len(v.m) > 0:
		r = ref{ptr: reflect.ValueOf(v.m).Pointer(), n: -1}
	default:
		return nil
	}
	if err := p.enter(r); err != nil {
		return err
	}
	defer p.leave(r)

	for _, item := range v.list {
		if err := item.checkCycles(p); err != nil {
			return err
		}
	}
	for _, item := range v.m {
		if err := item.checkCycles(p); err != nil {
			return err
		}
	}
	return nil
}
