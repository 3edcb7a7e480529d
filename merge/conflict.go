package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/applyops/structmerge/fieldpath"
)

// Conflict names one field another manager owns that the acting write
// changed without forcing.
type Conflict struct {
	Manager string
	Path    fieldpath.Path
}

func (c Conflict) Equals(o Conflict) bool {
	return c.Manager == o.Manager && c.Path.Equals(o.Path)
}

func (c Conflict) String() string {
	return fmt.Sprintf("conflict with %q: %v", c.Manager, c.Path)
}

// Conflicts is the batch of every conflict one operation produced.
// Conflicts are always aggregated and reported together, never singly.
type Conflicts []Conflict

var _ error = Conflicts{}

func (conflicts Conflicts) Error() string {
	if len(conflicts) == 1 {
		return conflicts[0].String()
	}
	var sb strings.Builder
	sb.WriteString("conflicts with:\n")
	byManager := map[string][]fieldpath.Path{}
	var managers []string
	for _, c := range conflicts {
		if _, seen := byManager[c.Manager]; !seen {
			managers = append(managers, c.Manager)
		}
		byManager[c.Manager] = append(byManager[c.Manager], c.Path)
	}
	sort.Strings(managers)
	for _, m := range managers {
		fmt.Fprintf(&sb, "- %q:\n", m)
		for _, p := range byManager[m] {
			fmt.Fprintf(&sb, "  - %v\n", p)
		}
	}
	return sb.String()
}

func (conflicts Conflicts) Equals(other Conflicts) bool {
	if len(conflicts) != len(other) {
		return false
	}
	for i := range conflicts {
		if !conflicts[i].Equals(other[i]) {
			return false
		}
	}
	return true
}

// ToSet flattens the conflicting paths, dropping manager attribution.
func (conflicts Conflicts) ToSet() *fieldpath.Set {
	s := fieldpath.NewSet()
	for _, c := range conflicts {
		s.Insert(c.Path)
	}
	return s
}

// conflictsFromManaged flattens per-manager conflict sets into one sorted
// batch.
func conflictsFromManaged(sets map[string]*fieldpath.Set) Conflicts {
	var res Conflicts
	managers := make([]string, 0, len(sets))
	for m := range sets {
		managers = append(managers, m)
	}
	sort.Strings(managers)
	for _, m := range managers {
		sets[m].Iterate(func(p fieldpath.Path) {
			res = append(res, Conflict{Manager: m, Path: p})
		})
	}
	if len(res) == 0 {
		return nil
	}
	return res
}

// ConversionError wraps a failure translating an object to another
// version when that version is still expected to exist.
type ConversionError struct {
	Version fieldpath.APIVersion
	Err     error
}

func (e ConversionError) Error() string {
	return fmt.Sprintf("failed to convert to version %q: %v", e.Version, e.Err)
}

func (e ConversionError) Unwrap() error {
	return e.Err
}
