package stdlib

import (
	"maps"
	"slices"
	"sync"

	"lazy/internal/object"
)

// ModuleDefinition defines a standard library module
type ModuleDefinition struct {
	Name      string                        // Module name (e.g., "math")
	Constants map[string]object.Object      // Module-level values
	Functions map[string]FunctionDefinition // Available functions in this module
}

// FunctionDefinition defines a function from a standard library module
type FunctionDefinition struct {
	Name       string                // Function name (e.g., "sqrt")
	Parameters []ParameterDefinition // Documented parameters
	Variadic   bool                  // Whether the last parameter collects the rest
	Fn         object.BuiltinFunc
}

// ParameterDefinition defines a function parameter
type ParameterDefinition struct {
	Name     string
	Optional bool
}

// NewFunction creates a function definition whose parameters are all required.
func NewFunction(name string, fn object.BuiltinFunc, params ...string) FunctionDefinition {
	def := FunctionDefinition{Name: name, Fn: fn}
	for _, p := range params {
		def.Parameters = append(def.Parameters, NewParam(p))
	}
	return def
}

func NewParam(name string) ParameterDefinition {
	return ParameterDefinition{Name: name}
}

func OptionalParam(name string) ParameterDefinition {
	return ParameterDefinition{Name: name, Optional: true}
}

// WithParams replaces the documented parameters.
func (f FunctionDefinition) WithParams(params ...ParameterDefinition) FunctionDefinition {
	f.Parameters = params
	return f
}

// AsVariadic marks the last parameter as collecting the remaining arguments.
func (f FunctionDefinition) AsVariadic() FunctionDefinition {
	f.Variadic = true
	return f
}

// Signature renders the function the way it would be declared in lz.
func (f FunctionDefinition) Signature() string {
	s := f.Name + "("
	for i, p := range f.Parameters {
		if i > 0 {
			s += ", "
		}
		if f.Variadic && i == len(f.Parameters)-1 {
			s += "*"
		}
		s += p.Name
		if p.Optional {
			s += "=..."
		}
	}
	return s + ")"
}

// GetStandardModules returns all built-in standard library modules
func GetStandardModules() map[string]*ModuleDefinition {
	return map[string]*ModuleDefinition{
		"math":      mathModule(),
		"strings":   stringsModule(),
		"itertools": itertoolsModule(),
	}
}

// ModuleNames lists the importable modules in sorted order.
func ModuleNames() []string {
	return slices.Sorted(maps.Keys(GetStandardModules()))
}

// IsKnownModule checks if a module name is a known standard library module
func IsKnownModule(name string) bool {
	_, exists := GetStandardModules()[name]
	return exists
}

// GetModuleDefinition returns the definition for a standard library module
func GetModuleDefinition(name string) *ModuleDefinition {
	return GetStandardModules()[name]
}

// Object builds the runtime module value.
func (m *ModuleDefinition) Object() *object.Module {
	attrs := make(map[string]object.Object, len(m.Constants)+len(m.Functions))
	maps.Copy(attrs, m.Constants)
	for name, f := range m.Functions {
		attrs[name] = object.NewBuiltin(m.Name+"."+name, f.Fn)
	}
	return object.NewModule(m.Name, attrs)
}

// Registry resolves imports against the standard modules. Each module is
// instantiated once per registry, so repeated imports yield the same value.
type Registry struct {
	mu      sync.Mutex
	modules map[string]*object.Module
}

func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*object.Module)}
}

func (r *Registry) Import(name string) (object.Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.modules[name]; ok {
		return m, nil
	}
	def := GetModuleDefinition(name)
	if def == nil {
		return nil, object.Errorf(object.ImportError, "no module named '%s'", name)
	}
	m := def.Object()
	r.modules[name] = m
	return m, nil
}
