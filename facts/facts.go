// Package facts provides the immutable fact container threaded through
// firing runs.
//
// A Store is a value type: every mutation returns a new Store and the
// receiver is never altered. Because stores are immutable they may be read
// concurrently from any number of goroutines without synchronization.
package facts

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"reflect"
	"sort"
	"strings"
)

// ErrInvalidArgument reports a fact name or value that violates the store
// contract. Use errors.Is to detect it.
var ErrInvalidArgument = errors.New("invalid argument")

// Store is an immutable mapping of fact names to opaque values.
//
// Names are compared byte-for-byte and are case-sensitive. No two entries
// share a name. The zero value is an empty store and is ready to use.
type Store struct {
	m map[string]any
}

// New returns an empty store.
func New() Store {
	return Store{}
}

// With returns a new store with name bound to value, replacing any prior
// binding. The receiver is unchanged.
//
// Returns an ErrInvalidArgument-wrapped error when name is empty or value
// is nil.
func (s Store) With(name string, value any) (Store, error) {
	if name == "" {
		return s, fmt.Errorf("%w: fact name must not be empty", ErrInvalidArgument)
	}
	if value == nil {
		return s, fmt.Errorf("%w: fact %q must not have a nil value", ErrInvalidArgument, name)
	}
	m := make(map[string]any, len(s.m)+1)
	maps.Copy(m, s.m)
	m[name] = value
	return Store{m: m}, nil
}

// Without returns a store with name removed. When name is absent the
// receiver itself is returned; no allocation happens.
func (s Store) Without(name string) Store {
	if _, ok := s.m[name]; !ok {
		return s
	}
	m := make(map[string]any, len(s.m)-1)
	for k, v := range s.m {
		if k != name {
			m[k] = v
		}
	}
	return Store{m: m}
}

// Get returns the value bound to name as a T. The second return is false
// when the name is absent or the stored value is not a T. There is no
// accessor that panics on a mismatch or substitutes a default.
func Get[T any](s Store, name string) (T, bool) {
	var zero T
	v, ok := s.m[name]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Has reports whether name is bound in the store.
func (s Store) Has(name string) bool {
	_, ok := s.m[name]
	return ok
}

// Len returns the number of entries.
func (s Store) Len() int {
	return len(s.m)
}

// All yields every (name, value) pair. Iteration order is unspecified and
// must not be relied upon.
func (s Store) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for k, v := range s.m {
			if !yield(k, v) {
				return
			}
		}
	}
}

// Equal reports whether two stores contain the same name/value pairs.
// Values are compared with reflect.DeepEqual. Intended for tests.
func (s Store) Equal(other Store) bool {
	if len(s.m) != len(other.m) {
		return false
	}
	for k, v := range s.m {
		ov, ok := other.m[k]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}

// String renders the store with names in sorted order for diagnostics.
func (s Store) String() string {
	names := make([]string, 0, len(s.m))
	for k := range s.m {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Store{")
	for i, k := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k, s.m[k])
	}
	b.WriteString("}")
	return b.String()
}
