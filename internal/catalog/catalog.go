package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/specialistvlad/gridsweep/internal/ctxlog"
	"github.com/specialistvlad/gridsweep/internal/schema"
)

// Module is implemented by every package that contributes implementations.
type Module interface {
	Register(c *Catalog)
}

// Implementation is one concrete, constructible type.
type Implementation struct {
	Name        string
	Abstract    string
	Description string
	Params      []schema.Param
	Factory     schema.Factory
}

// Catalog holds every registered implementation. It is populated during
// startup and read-only afterwards.
type Catalog struct {
	byName     map[string]*Implementation
	byAbstract map[string][]*Implementation
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		byName:     make(map[string]*Implementation),
		byAbstract: make(map[string][]*Implementation),
	}
}

// Load registers every module in order.
func (c *Catalog) Load(modules ...Module) *Catalog {
	for _, m := range modules {
		m.Register(c)
	}
	return c
}

// Register adds an implementation. Missing identity, a missing factory or a
// duplicate canonical name are programmer errors and panic.
func (c *Catalog) Register(impl Implementation) {
	if impl.Name == "" || impl.Abstract == "" {
		panic(fmt.Sprintf("implementation '%s' of '%s' must have both a name and an abstract type", impl.Name, impl.Abstract))
	}
	if impl.Factory == nil {
		panic(fmt.Sprintf("implementation '%s' registered without a factory", impl.Name))
	}
	if _, exists := c.byName[impl.Name]; exists {
		panic(fmt.Sprintf("implementation with name '%s' already registered", impl.Name))
	}
	slog.Debug("Registering implementation.", "name", impl.Name, "abstract", impl.Abstract, "params", len(impl.Params))

	stored := impl
	stored.Params = slices.Clone(impl.Params)
	c.byName[impl.Name] = &stored

	list := append(c.byAbstract[impl.Abstract], &stored)
	slices.SortStableFunc(list, func(a, b *Implementation) int {
		return strings.Compare(a.Name, b.Name)
	})
	c.byAbstract[impl.Abstract] = list
}

// Lookup returns the implementation with the given canonical name.
func (c *Catalog) Lookup(name string) (*Implementation, bool) {
	impl, ok := c.byName[name]
	return impl, ok
}

// Resolve returns the implementations of abstract whose names start with any
// of the prefixes, sorted by canonical name. No prefixes means no filter. An
// empty result is returned as is; callers decide whether that is fatal.
func (c *Catalog) Resolve(abstract string, prefixes []string) []*Implementation {
	all := c.byAbstract[abstract]
	if len(prefixes) == 0 {
		return slices.Clone(all)
	}
	var out []*Implementation
	for _, impl := range all {
		for _, p := range prefixes {
			if strings.HasPrefix(impl.Name, p) {
				out = append(out, impl)
				break
			}
		}
	}
	return out
}

// Types lists every abstract type with at least one implementation.
func (c *Catalog) Types() []string {
	types := make([]string, 0, len(c.byAbstract))
	for t := range c.byAbstract {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Implementations lists every registered implementation sorted by name.
func (c *Catalog) Implementations() []*Implementation {
	out := make([]*Implementation, 0, len(c.byName))
	for _, impl := range c.byName {
		out = append(out, impl)
	}
	slices.SortFunc(out, func(a, b *Implementation) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Validate checks every parameter table and reports composite parameters
// whose abstract type has no implementation at all. All problems are joined
// into one error.
func (c *Catalog) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	for _, impl := range c.Implementations() {
		if err := schema.Validate(impl.Name, impl.Params); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		for _, p := range impl.Params {
			abstract := p.Abstract
			if p.Kind == schema.KindArray {
				abstract = p.Element.Abstract
			}
			if abstract == "" {
				continue
			}
			if _, ok := c.byAbstract[abstract]; !ok {
				logger.Warn("Parameter references a type with no implementations.", "implementation", impl.Name, "param", p.Name, "type", abstract)
				errs = append(errs, fmt.Sprintf("implementation '%s': parameter '%s' references type '%s' which has no implementations", impl.Name, p.Name, abstract))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Catalog validated.", "implementations", len(c.byName), "types", len(c.byAbstract))
	return nil
}
