package device

import (
	"fmt"
	"maps"
	"slices"

	"go.uber.org/multierr"
)

// Binding ties a kernel to concrete buffers and parameter values.
// It replaces by-name lookups at dispatch time: every buffer slot and every
// parameter the kernel declares must be covered either by Constants or by a
// Dynamic name supplied with each Dispatch.
type Binding struct {
	Kernel    string
	Buffers   map[string]BufferID
	Constants map[string]float64
	Dynamic   []string
}

// validate checks the binding against its kernel. exists reports whether a
// buffer handle is live. All problems are reported together.
func (b Binding) validate(k Kernel, exists func(BufferID) bool) error {
	if k.GroupSize() <= 0 {
		return fmt.Errorf("%s: %w", k.Name(), ErrZeroGroupSize)
	}

	var err error
	for _, slot := range k.Buffers() {
		id, ok := b.Buffers[slot]
		if !ok {
			err = multierr.Append(err, fmt.Errorf("%s.%s: %w", k.Name(), slot, ErrUnboundBuffer))
			continue
		}
		if !exists(id) {
			err = multierr.Append(err, fmt.Errorf("%s.%s -> %d: %w", k.Name(), slot, id, ErrUnknownBuffer))
		}
	}
	for slot := range b.Buffers {
		if !slices.Contains(k.Buffers(), slot) {
			err = multierr.Append(err, fmt.Errorf("%s.%s: buffer %w", k.Name(), slot, ErrUnknownParam))
		}
	}

	declared := k.Params()
	for _, p := range declared {
		_, constant := b.Constants[p]
		if !constant && !slices.Contains(b.Dynamic, p) {
			err = multierr.Append(err, fmt.Errorf("%s.%s: %w", k.Name(), p, ErrUnboundParam))
		}
	}
	for _, p := range slices.Concat(slices.Collect(maps.Keys(b.Constants)), b.Dynamic) {
		if !slices.Contains(declared, p) {
			err = multierr.Append(err, fmt.Errorf("%s.%s: %w", k.Name(), p, ErrUnknownParam))
		}
	}
	return err
}

// checkValues verifies that exactly the dynamic names were supplied.
func (b Binding) checkValues(values map[string]float64) error {
	var err error
	for _, name := range b.Dynamic {
		if _, ok := values[name]; !ok {
			err = multierr.Append(err, fmt.Errorf("%s.%s: %w", b.Kernel, name, ErrUnboundParam))
		}
	}
	for name := range values {
		if !slices.Contains(b.Dynamic, name) {
			err = multierr.Append(err, fmt.Errorf("%s.%s: %w", b.Kernel, name, ErrUnknownParam))
		}
	}
	return err
}

// scalars merges constants and dynamic values into a fresh map.
func (b Binding) scalars(values map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(b.Constants)+len(values))
	maps.Copy(out, b.Constants)
	maps.Copy(out, values)
	return out
}
