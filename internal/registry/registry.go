package registry

import (
	"fmt"
	"sync"

	"github.com/roach88/irgraph/internal/ir"
)

// Registry is the catalog of node kinds. It is built once and read-only
// afterwards, so it is safe to share between any number of goroutines.
type Registry struct {
	byOp   [ir.NumOps + 1]*Kind
	byName map[string]*Kind
	kinds  []*Kind
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide catalog. It panics if the built-in
// catalog fails self-validation, which only a broken build can cause.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := New(catalog())
		if err != nil {
			panic(fmt.Sprintf("registry: built-in catalog is invalid: %v", err))
		}
		defaultReg = r
	})
	return defaultReg
}

// New builds a registry from kind rows. Each row's Name is set from its
// Op. The rows are validated; all problems are reported together.
func New(kinds []*Kind) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Kind, len(kinds))}
	for _, k := range kinds {
		if k.Name == "" {
			k.Name = k.Op.String()
		}
	}
	if errs := Validate(kinds); len(errs) > 0 {
		return nil, &CatalogError{Errors: errs}
	}
	for _, k := range kinds {
		r.byOp[k.Op] = k
		r.byName[k.Name] = k
	}
	// Keep catalog order stable regardless of row order.
	for op := range r.byOp {
		if k := r.byOp[op]; k != nil {
			r.kinds = append(r.kinds, k)
		}
	}
	return r, nil
}

// CatalogError reports every validation problem of a kind table.
type CatalogError struct {
	Errors []ValidationError
}

func (e *CatalogError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", e.Errors[0].Error(), len(e.Errors)-1)
}

// Lookup finds a kind by catalog name.
func (r *Registry) Lookup(name string) (*Kind, error) {
	if k, ok := r.byName[name]; ok {
		return k, nil
	}
	return nil, ir.NewError(ir.ErrCodeUnknownKind, "no node kind named %q", name).WithKind(name)
}

// MustLookup is like Lookup but panics on error.
// Use only in tests or when inputs are known to be valid.
func (r *Registry) MustLookup(name string) *Kind {
	k, err := r.Lookup(name)
	if err != nil {
		panic(err)
	}
	return k
}

// ByOp returns the kind for op, or nil if op is not in the catalog.
func (r *Registry) ByOp(op ir.Op) *Kind {
	if int(op) < len(r.byOp) {
		return r.byOp[op]
	}
	return nil
}

// Kinds returns all kinds in catalog order. The slice is shared; callers
// must not modify it.
func (r *Registry) Kinds() []*Kind { return r.kinds }

// Names returns all kind names in catalog order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.kinds))
	for i, k := range r.kinds {
		names[i] = k.Name
	}
	return names
}

// Len returns the number of kinds.
func (r *Registry) Len() int { return len(r.kinds) }

// Filter returns the kinds declaring every flag in f, in catalog order.
func (r *Registry) Filter(f ir.Flags) []*Kind {
	var out []*Kind
	for _, k := range r.kinds {
		if k.Has(f) {
			out = append(out, k)
		}
	}
	return out
}

// Singletons returns the kinds of which a graph holds exactly one instance.
func (r *Registry) Singletons() []*Kind {
	var out []*Kind
	for _, k := range r.kinds {
		if k.Singleton {
			out = append(out, k)
		}
	}
	return out
}
