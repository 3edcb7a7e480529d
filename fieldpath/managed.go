package fieldpath

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/applyops/structmerge/value"
)

// APIVersion names the schema version a field set was recorded against.
type APIVersion string

// VersionedSet is one manager's ownership record: the owned paths, the
// version they were written at, and whether the manager last wrote via
// apply.
type VersionedSet struct {
	Set        *Set
	APIVersion APIVersion
	Applied    bool
}

func NewVersionedSet(s *Set, version APIVersion, applied bool) *VersionedSet {
	return &VersionedSet{Set: s, APIVersion: version, Applied: applied}
}

func (vs *VersionedSet) Equals(o *VersionedSet) bool {
	if vs == nil || o == nil {
		return vs == o
	}
	return vs.APIVersion == o.APIVersion && vs.Applied == o.Applied && vs.Set.Equals(o.Set)
}

func (vs *VersionedSet) Copy() *VersionedSet {
	return &VersionedSet{Set: vs.Set.Copy(), APIVersion: vs.APIVersion, Applied: vs.Applied}
}

// ManagedFields maps manager name to that manager's ownership record.
// Created empty and mutated only by the updater; entries are pruned when
// their sets become empty.
type ManagedFields map[string]*VersionedSet

func (lhs ManagedFields) Equals(rhs ManagedFields) bool {
	if len(lhs) != len(rhs) {
		return false
	}
	for name, vs := range lhs {
		if !vs.Equals(rhs[name]) {
			return false
		}
	}
	return true
}

func (lhs ManagedFields) Copy() ManagedFields {
	res := make(ManagedFields, len(lhs))
	for name, vs := range lhs {
		res[name] = vs.Copy()
	}
	return res
}

func (lhs ManagedFields) String() string {
	var buf bytes.Buffer
	for _, name := range sortedManagers(lhs) {
		vs := lhs[name]
		fmt.Fprintf(&buf, "%s (%s%s):\n", name, vs.APIVersion, appliedSuffix(vs.Applied))
		vs.Set.Iterate(func(p Path) {
			fmt.Fprintf(&buf, "  %s\n", p.String())
		})
	}
	return buf.String()
}

func appliedSuffix(applied bool) string {
	if applied {
		return ", applied"
	}
	return ""
}

func sortedManagers(m ManagedFields) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EncodeManagedFields serializes managed fields as a JSON object keyed by
// manager name, one entry per manager, sorted for determinism.
func EncodeManagedFields(m ManagedFields) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range sortedManagers(m) {
		if i > 0 {
			buf.WriteByte(',')
		}
		vs := m[name]
		nameJSON, err := value.FromString(name).ToJSON()
		if err != nil {
			return nil, err
		}
		versionJSON, err := value.FromString(string(vs.APIVersion)).ToJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(nameJSON)
		buf.WriteString(`:{"apiVersion":`)
		buf.Write(versionJSON)
		fmt.Fprintf(&buf, `,"applied":%v,"fields":`, vs.Applied)
		if err := vs.Set.emit(&buf); err != nil {
			return nil, err
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeManagedFields parses the managed fields wire format. Unknown entry
// fields are ignored.
func DecodeManagedFields(data []byte) (ManagedFields, error) {
	doc, err := value.FromJSON(data)
	if err != nil {
		return nil, err
	}
	if doc.Kind != value.MapKind {
		return nil, fmt.Errorf("managed fields document is not an object")
	}
	res := ManagedFields{}
	for i := range doc.Map.Pairs {
		name, entry := doc.Map.Pairs[i].Key, doc.Map.Pairs[i].Val
		if entry.Kind != value.MapKind {
			return nil, fmt.Errorf("managed fields entry %q is not an object", name)
		}
		vs := &VersionedSet{Set: NewSet()}
		if v, ok := entry.Map.Get("apiVersion"); ok && v.Kind == value.StringKind {
			vs.APIVersion = APIVersion(v.Str)
		}
		if v, ok := entry.Map.Get("applied"); ok && v.Kind == value.BoolKind {
			vs.Applied = v.Bool
		}
		if v, ok := entry.Map.Get("fields"); ok {
			if err := setFromValue(vs.Set, v); err != nil {
				return nil, fmt.Errorf("managed fields entry %q: %w", name, err)
			}
		}
		res[name] = vs
	}
	return res, nil
}
