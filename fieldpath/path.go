package fieldpath

import "strings"

// Path is an ordered sequence of path elements addressing one node of a
// document, root to leaf or subtree.
type Path []PathElement

func MakePath(elements ...PathElement) Path {
	return Path(elements)
}

func (p Path) String() string {
	if len(p) == 0 {
		return "."
	}
	var sb strings.Builder
	for _, e := range p {
		sb.WriteString(e.String())
	}
	return sb.String()
}

func (p Path) Compare(o Path) int {
	for i := 0; i < min(len(p), len(o)); i++ {
		if c := p[i].Compare(o[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(p) < len(o):
		return -1
	case len(p) > len(o):
		return 1
	}
	return 0
}

func (p Path) Equals(o Path) bool {
	return p.Compare(o) == 0
}

func (p Path) Copy() Path {
	res := make(Path, len(p))
	copy(res, p)
	return res
}
