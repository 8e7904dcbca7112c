package formengine

import (
	"sort"
	"strings"
	"sync"
)

// Built-in question kinds.
const (
	KindText       = "text"
	KindComment    = "comment"
	KindDropdown   = "dropdown"
	KindRadioGroup = "radiogroup"
	KindCheckbox   = "checkbox"
	KindTagBox     = "tagbox"
	KindBoolean    = "boolean"
	KindRating     = "rating"
	KindHTML       = "html"
	KindImage      = "image"
	KindExpression = "expression"
)

// Kind describes the capabilities of a question type.
type Kind struct {
	Name string
	// Input kinds own a control and contribute to survey data.
	Input bool
	// Choices kinds carry a choice list.
	Choices bool
	// Multiple kinds hold list values.
	Multiple bool
	// DisplayValue kinds track the shown value apart from the stored one.
	DisplayValue bool
}

// Registry maps definition type names to kinds. Unknown names resolve to a
// plain input kind so new question types degrade to text-like behaviour.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]Kind
}

// NewRegistry constructs a registry with the built-in kinds registered.
func NewRegistry() *Registry {
	reg := &Registry{kinds: make(map[string]Kind)}
	reg.registerBuiltins()
	return reg
}

// Register adds or replaces a kind. Names are matched case-insensitively.
func (r *Registry) Register(kind Kind) {
	if r == nil {
		return
	}
	name := normalizeKind(kind.Name)
	if name == "" {
		return
	}
	kind.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[name] = kind
}

// Resolve returns the kind for a type name.
func (r *Registry) Resolve(name string) Kind {
	key := normalizeKind(name)
	if r != nil {
		r.mu.RLock()
		kind, ok := r.kinds[key]
		r.mu.RUnlock()
		if ok {
			return kind
		}
	}
	if key == "" {
		key = KindText
	}
	return Kind{Name: key, Input: true}
}

// Names lists the registered kinds in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) registerBuiltins() {
	r.Register(Kind{Name: KindText, Input: true})
	r.Register(Kind{Name: KindComment, Input: true})
	r.Register(Kind{Name: KindBoolean, Input: true})
	r.Register(Kind{Name: KindDropdown, Input: true, Choices: true, DisplayValue: true})
	r.Register(Kind{Name: KindRadioGroup, Input: true, Choices: true})
	r.Register(Kind{Name: KindRating, Input: true, Choices: true})
	r.Register(Kind{Name: KindCheckbox, Input: true, Choices: true, Multiple: true})
	r.Register(Kind{Name: KindTagBox, Input: true, Choices: true, Multiple: true})
	r.Register(Kind{Name: KindHTML})
	r.Register(Kind{Name: KindImage})
	r.Register(Kind{Name: KindExpression})
}

func normalizeKind(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
