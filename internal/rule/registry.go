package rule

import (
	"fmt"
	"sort"
)

// Budget selects how much work a run is willing to do. Under BudgetFast the
// registry drops CostHigh rules before they are even asked to register.
type Budget uint8

const (
	BudgetFull Budget = iota
	BudgetFast
)

// Registry holds the set of known rules. Registration order is preserved:
// it determines callback invocation order within a node, which rules must
// not rely on beyond run-to-run determinism.
type Registry struct {
	rules []Rule
	byID  map[string]Rule
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Rule)}
}

// Register adds rules, rejecting duplicate ids.
func (r *Registry) Register(rules ...Rule) error {
	for _, rl := range rules {
		id := rl.Descriptor().ID
		if id == "" {
			return fmt.Errorf("rule with empty id")
		}
		if _, exists := r.byID[id]; exists {
			return fmt.Errorf("duplicate rule id %q", id)
		}
		r.byID[id] = rl
		r.rules = append(r.rules, rl)
	}
	return nil
}

// MustRegister is Register with a panic, for static rule tables.
func (r *Registry) MustRegister(rules ...Rule) {
	if err := r.Register(rules...); err != nil {
		panic(err)
	}
}

// Rules returns all rules in registration order.
func (r *Registry) Rules() []Rule {
	return r.rules
}

// Get returns the rule with the given id.
func (r *Registry) Get(id string) (Rule, bool) {
	rl, ok := r.byID[id]
	return rl, ok
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	return len(r.rules)
}

// ActiveFor selects the rules that should run on a file with the given
// categories under the given budget. Filtering happens before traversal:
// excluded rules are never asked to register callbacks. The result is
// ordered by ascending cost (stable), so cheap rules report first when a
// run is cut short.
func (r *Registry) ActiveFor(categories []Category, budget Budget) []Rule {
	active := make([]Rule, 0, len(r.rules))
	for _, rl := range r.rules {
		d := rl.Descriptor()
		if !d.AppliesTo(categories) {
			continue
		}
		if budget == BudgetFast && d.Cost == CostHigh {
			continue
		}
		active = append(active, rl)
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Descriptor().Cost < active[j].Descriptor().Cost
	})
	return active
}
