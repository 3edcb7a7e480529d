package fieldpath

import (
	"sort"
	"strings"
)

// Set is a trie of field paths: the paths a value contains or a manager
// owns. Each node holds the leaf members terminating at this depth, the
// children leading deeper, and whether the node's own path is itself a
// member (Root).
//
// Canonical form, maintained by every operation: an element never appears
// in both Members and Children, every child node is non-empty, and a child
// whose only content is its own root membership is folded back into
// Members. Equality is structural over that canonical form.
type Set struct {
	Root     bool
	Members  PathElementSet
	Children SetNodeMap
}

func NewSet(paths ...Path) *Set {
	s := &Set{}
	for _, p := range paths {
		s.Insert(p)
	}
	return s
}

// Insert adds the path to the set.
func (s *Set) Insert(p Path) {
	if len(p) == 0 {
		s.Root = true
		return
	}
	head := p[0]
	if len(p) == 1 {
		if child := s.Children.Get(head); child != nil {
			child.Root = true
			return
		}
		s.Members.Insert(head)
		return
	}
	child := s.Children.Descend(head)
	if s.Members.Has(head) {
		s.Members.Delete(head)
		child.Root = true
	}
	child.Insert(p[1:])
}

// Has reports whether the exact path is a member of the set.
func (s *Set) Has(p Path) bool {
	if len(p) == 0 {
		return s.Root
	}
	head := p[0]
	if len(p) == 1 {
		if s.Members.Has(head) {
			return true
		}
		child := s.Children.Get(head)
		return child != nil && child.Root
	}
	child := s.Children.Get(head)
	return child != nil && child.Has(p[1:])
}

func (s *Set) Empty() bool {
	return !s.Root && s.Members.Empty() && s.Children.Empty()
}

// Size returns the number of member paths.
func (s *Set) Size() int {
	n := s.Members.Size()
	if s.Root {
		n++
	}
	s.Children.Iterate(func(_ PathElement, child *Set) {
		n += child.Size()
	})
	return n
}

func (s *Set) Copy() *Set {
	res := &Set{Root: s.Root}
	res.Members.members = append([]PathElement(nil), s.Members.members...)
	for _, n := range s.Children.nodes {
		res.Children.nodes = append(res.Children.nodes, setNode{element: n.element, set: n.set.Copy()})
	}
	return res
}

func (s *Set) Equals(o *Set) bool {
	if s.Root != o.Root || !s.Members.Equals(&o.Members) {
		return false
	}
	if len(s.Children.nodes) != len(o.Children.nodes) {
		return false
	}
	for i := range s.Children.nodes {
		a, b := &s.Children.nodes[i], &o.Children.nodes[i]
		if !a.element.Equals(b.element) || !a.set.Equals(b.set) {
			return false
		}
	}
	return true
}

// entry is one slot of a node in element order, either a leaf member or a
// child subtree.
type entry struct {
	element PathElement
	child   *Set // nil for leaf members
}

var leafEntry = &Set{Root: true}

func (e entry) asSet() *Set {
	if e.child == nil {
		return leafEntry
	}
	return e.child
}

// entries merges Members and Children into one element-ordered sequence.
func (s *Set) entries() []entry {
	res := make([]entry, 0, len(s.Members.members)+len(s.Children.nodes))
	i, j := 0, 0
	for i < len(s.Members.members) && j < len(s.Children.nodes) {
		if s.Members.members[i].Compare(s.Children.nodes[j].element) < 0 {
			res = append(res, entry{element: s.Members.members[i]})
			i++
		} else {
			res = append(res, entry{element: s.Children.nodes[j].element, child: s.Children.nodes[j].set})
			j++
		}
	}
	for ; i < len(s.Members.members); i++ {
		res = append(res, entry{element: s.Members.members[i]})
	}
	for ; j < len(s.Children.nodes); j++ {
		res = append(res, entry{element: s.Children.nodes[j].element, child: s.Children.nodes[j].set})
	}
	return res
}

// addEntry appends a combined subtree under element, restoring canonical
// form. Elements must arrive in increasing order.
func (s *Set) addEntry(element PathElement, sub *Set) {
	if sub.Empty() {
		return
	}
	if sub.Root && sub.Members.Empty() && sub.Children.Empty() {
		s.Members.members = append(s.Members.members, element)
		return
	}
	s.Children.nodes = append(s.Children.nodes, setNode{element: element, set: sub})
}

// Union returns a set containing every path in s, o, or both.
func (s *Set) Union(o *Set) *Set {
	res := &Set{Root: s.Root || o.Root}
	se, oe := s.entries(), o.entries()
	i, j := 0, 0
	for i < len(se) && j < len(oe) {
		c := se[i].element.Compare(oe[j].element)
		switch {
		case c < 0:
			res.addEntry(se[i].element, se[i].asSet().Copy())
			i++
		case c > 0:
			res.addEntry(oe[j].element, oe[j].asSet().Copy())
			j++
		default:
			res.addEntry(se[i].element, se[i].asSet().Union(oe[j].asSet()))
			i++
			j++
		}
	}
	for ; i < len(se); i++ {
		res.addEntry(se[i].element, se[i].asSet().Copy())
	}
	for ; j < len(oe); j++ {
		res.addEntry(oe[j].element, oe[j].asSet().Copy())
	}
	return res
}

// Intersection returns a set containing the paths in both s and o.
func (s *Set) Intersection(o *Set) *Set {
	res := &Set{Root: s.Root && o.Root}
	se, oe := s.entries(), o.entries()
	i, j := 0, 0
	for i < len(se) && j < len(oe) {
		c := se[i].element.Compare(oe[j].element)
		switch {
		case c < 0:
			i++
		case c > 0:
			j++
		default:
			res.addEntry(se[i].element, se[i].asSet().Intersection(oe[j].asSet()))
			i++
			j++
		}
	}
	return res
}

// Difference returns a set containing the paths in s but not in o.
func (s *Set) Difference(o *Set) *Set {
	res := &Set{Root: s.Root && !o.Root}
	se, oe := s.entries(), o.entries()
	i, j := 0, 0
	for i < len(se) && j < len(oe) {
		c := se[i].element.Compare(oe[j].element)
		switch {
		case c < 0:
			res.addEntry(se[i].element, se[i].asSet().Copy())
			i++
		case c > 0:
			j++
		default:
			res.addEntry(se[i].element, se[i].asSet().Difference(oe[j].asSet()))
			i++
			j++
		}
	}
	for ; i < len(se); i++ {
		res.addEntry(se[i].element, se[i].asSet().Copy())
	}
	return res
}

// Iterate visits every member path in lexicographic path order. The path
// passed to f is freshly allocated and may be retained.
func (s *Set) Iterate(f func(Path)) {
	s.iterate(nil, f)
}

func (s *Set) iterate(prefix Path, f func(Path)) {
	if s.Root {
		f(prefix.Copy())
	}
	for _, e := range s.entries() {
		p := make(Path, len(prefix)+1)
		copy(p, prefix)
		p[len(prefix)] = e.element
		if e.child == nil {
			f(p)
		} else {
			e.child.iterate(p, f)
		}
	}
}

// Leaves returns the set of member paths that have no members below them.
func (s *Set) Leaves() *Set {
	res := &Set{}
	if s.Root && s.Members.Empty() && s.Children.Empty() {
		res.Root = true
	}
	res.Members.members = append([]PathElement(nil), s.Members.members...)
	s.Children.Iterate(func(e PathElement, child *Set) {
		res.addLeafChild(e, child.Leaves())
	})
	sort.Slice(res.Children.nodes, func(i, j int) bool {
		return res.Children.nodes[i].element.Less(res.Children.nodes[j].element)
	})
	return res
}

func (s *Set) addLeafChild(element PathElement, sub *Set) {
	if sub.Empty() {
		return
	}
	if sub.Root && sub.Members.Empty() && sub.Children.Empty() {
		s.Members.Insert(element)
		return
	}
	s.Children.nodes = append(s.Children.nodes, setNode{element: element, set: sub})
}

func (s *Set) String() string {
	var paths []string
	s.Iterate(func(p Path) {
		paths = append(paths, p.String())
	})
	return strings.Join(paths, "\n")
}

type setNode struct {
	element PathElement
	set     *Set
}

// SetNodeMap is an element-ordered map of path element to child set.
type SetNodeMap struct {
	nodes []setNode
}

func (m *SetNodeMap) find(e PathElement) (int, bool) {
	i := sort.Search(len(m.nodes), func(i int) bool {
		return m.nodes[i].element.Compare(e) >= 0
	})
	return i, i < len(m.nodes) && m.nodes[i].element.Equals(e)
}

func (m *SetNodeMap) Get(e PathElement) *Set {
	if i, found := m.find(e); found {
		return m.nodes[i].set
	}
	return nil
}

// Descend returns the child set for e, creating it if absent.
func (m *SetNodeMap) Descend(e PathElement) *Set {
	i, found := m.find(e)
	if found {
		return m.nodes[i].set
	}
	child := &Set{}
	m.nodes = append(m.nodes, setNode{})
	copy(m.nodes[i+1:], m.nodes[i:])
	m.nodes[i] = setNode{element: e, set: child}
	return child
}

func (m *SetNodeMap) Empty() bool {
	return len(m.nodes) == 0
}

func (m *SetNodeMap) Size() int {
	return len(m.nodes)
}

// Iterate visits the children in element order.
func (m *SetNodeMap) Iterate(f func(PathElement, *Set)) {
	for _, n := range m.nodes {
		f(n.element, n.set)
	}
}
