package rules

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Catalog maps piece type names to their rules. It is not safe for
// concurrent use; the match actor is its only writer.
type Catalog struct {
	rules map[string]PieceRule
}

// NewCatalog builds a catalog from rules. Later rules replace earlier ones
// with the same name. Every rule must validate.
func NewCatalog(rules ...PieceRule) (*Catalog, error) {
	c := &Catalog{rules: make(map[string]PieceRule, len(rules))}
	for _, r := range rules {
		if err := c.Put(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Put inserts or replaces the rule stored under r.Name.
func (c *Catalog) Put(r PieceRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	c.rules[r.Name] = r.clone()
	return nil
}

// Get returns the rule for a piece type.
func (c *Catalog) Get(name string) (PieceRule, bool) {
	r, ok := c.rules[name]
	if !ok {
		return PieceRule{}, false
	}
	return r.clone(), true
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.rules[name]
	return ok
}

func (c *Catalog) Len() int { return len(c.rules) }

// Names returns the piece type names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.rules))
	for n := range c.rules {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Rules returns copies of all rules sorted by name.
func (c *Catalog) Rules() []PieceRule {
	out := make([]PieceRule, 0, len(c.rules))
	for _, n := range c.Names() {
		out = append(out, c.rules[n].clone())
	}
	return out
}

// HasRoyal reports whether any rule is flagged royal.
func (c *Catalog) HasRoyal() bool {
	for _, r := range c.rules {
		if r.IsRoyal {
			return true
		}
	}
	return false
}

// IsRoyal reports whether the named piece type is royal. Unknown types are not.
func (c *Catalog) IsRoyal(name string) bool {
	return c.rules[name].IsRoyal
}

// Clone returns an independent copy.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{rules: make(map[string]PieceRule, len(c.rules))}
	for n, r := range c.rules {
		out.rules[n] = r.clone()
	}
	return out
}

func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.rules)
}

func (c *Catalog) UnmarshalJSON(data []byte) error {
	var m map[string]PieceRule
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	next := &Catalog{rules: make(map[string]PieceRule, len(m))}
	for key, r := range m {
		if r.Name != key {
			return fmt.Errorf("catalog key %q does not match rule name %q", key, r.Name)
		}
		if err := next.Put(r); err != nil {
			return err
		}
	}
	*c = *next
	return nil
}
