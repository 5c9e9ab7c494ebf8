package models

import (
	"fmt"
	"sort"
	"strings"
)

// EligibilityClass tells how an absence category affects the payout
type EligibilityClass string

// Eligibility classes
const (
	ClassBlocksPayout     EligibilityClass = "blocks_payout"
	ClassRequiresDecision EligibilityClass = "requires_decision"
	ClassNeutral          EligibilityClass = "neutral"
)

// IsValid checks that the class belongs to the closed set
func (c EligibilityClass) IsValid() bool {
	switch c {
	case ClassBlocksPayout, ClassRequiresDecision, ClassNeutral:
		return true
	}
	return false
}

// KnownCategory is one entry of the known-category table
type KnownCategory struct {
	Label string           `json:"label"`
	Class EligibilityClass `json:"class"`
}

// CategoryTable maps absence labels to eligibility classes.
// Lookups go through a folding function so accented and unaccented spellings match.
type CategoryTable struct {
	entries map[string]KnownCategory
	fold    func(string) string
}

// NewCategoryTable creates a table using fold to compute lookup keys
func NewCategoryTable(fold func(string) string, categories ...KnownCategory) *CategoryTable {
	t := &CategoryTable{
		entries: make(map[string]KnownCategory, len(categories)),
		fold:    fold,
	}
	for _, c := range categories {
		_ = t.Put(c)
	}
	return t
}

// Put adds or replaces a category
func (t *CategoryTable) Put(c KnownCategory) error {
	label := strings.TrimSpace(c.Label)
	if label == "" {
		return fmt.Errorf("category label is empty")
	}
	if !c.Class.IsValid() {
		return fmt.Errorf("invalid eligibility class %q for %q", c.Class, label)
	}
	t.entries[t.fold(label)] = KnownCategory{Label: label, Class: c.Class}
	return nil
}

// Lookup finds a category by label
func (t *CategoryTable) Lookup(label string) (KnownCategory, bool) {
	if t == nil {
		return KnownCategory{}, false
	}
	c, ok := t.entries[t.fold(label)]
	return c, ok
}

// Contains reports whether the label is known
func (t *CategoryTable) Contains(label string) bool {
	_, ok := t.Lookup(label)
	return ok
}

// Len returns the number of categories
func (t *CategoryTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// List returns the categories sorted by label
func (t *CategoryTable) List() []KnownCategory {
	if t == nil {
		return nil
	}
	list := make([]KnownCategory, 0, len(t.entries))
	for _, c := range t.entries {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Label < list[j].Label
	})
	return list
}
