package merge

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/applyops/structmerge/fieldpath"
	"github.com/applyops/structmerge/schema"
	"github.com/applyops/structmerge/typed"
	"github.com/applyops/structmerge/value"
)

const appSchemaYAML = `types:
- name: app
  map:
    fields:
    - name: name
      type:
        scalar: string
    - name: replicas
      type:
        scalar: numeric
    - name: labels
      type:
        map:
          elementType:
            scalar: string
    - name: ports
      type:
        list:
          elementType:
            namedType: appPort
          elementRelationship: associative
          keys:
          - port
          - protocol
    - name: data
      type:
        map:
          elementType:
            scalar: string
          elementRelationship: atomic
- name: appPort
  map:
    fields:
    - name: port
      type:
        scalar: numeric
    - name: protocol
      type:
        scalar: string
      default: TCP
    - name: targetPort
      type:
        scalar: numeric
`

func appSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.FromYAML([]byte(appSchemaYAML))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func appTyped(t *testing.T, s *schema.Schema, doc string) *typed.TypedValue {
	t.Helper()
	v, err := value.FromYAML([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	tv, err := typed.AsTyped(v, s, schema.NamedRef("app"))
	if err != nil {
		t.Fatal(err)
	}
	return tv
}

func fe(name string) fieldpath.PathElement {
	return fieldpath.FieldElement(name)
}

func p(elements ...fieldpath.PathElement) fieldpath.Path {
	return fieldpath.MakePath(elements...)
}

func TestApplyRecordsOwnership(t *testing.T) {
	s := appSchema(t)
	up := &Updater{}
	live := appTyped(t, s, "{}")
	config := appTyped(t, s, "name: app\nreplicas: 1\nlabels:\n  a: x\n")

	obj, managed, err := up.Apply(live, config, "v1", fieldpath.ManagedFields{}, "alice", false)
	if err != nil {
		t.Fatal(err)
	}
	if !obj.AsValue().Equals(config.AsValue()) {
		t.Errorf("applied object:\n%v\nwant:\n%v", obj.AsValue(), config.AsValue())
	}
	vs := managed["alice"]
	if vs == nil {
		t.Fatal("alice has no ownership record")
	}
	if vs.APIVersion != "v1" || !vs.Applied {
		t.Errorf("record = %+v", vs)
	}
	want := fieldpath.NewSet(
		p(fe("name")),
		p(fe("replicas")),
		p(fe("labels"), fe("a")),
	)
	if !vs.Set.Equals(want) {
		t.Errorf("owned:\n%v\nwant:\n%v", vs.Set, want)
	}
}

func TestApplyConflict(t *testing.T) {
	s := appSchema(t)
	up := &Updater{}
	live := appTyped(t, s, "{}")

	_, managed, err := up.Apply(live, appTyped(t, s, "replicas: 1\nname: app\n"), "v1", fieldpath.ManagedFields{}, "alice", false)
	if err != nil {
		t.Fatal(err)
	}
	live = appTyped(t, s, "name: app\nreplicas: 1\n")

	// bob changes a field alice owns
	_, _, err = up.Apply(live, appTyped(t, s, "replicas: 2\n"), "v1", managed, "bob", false)
	var conflicts Conflicts
	if !errors.As(err, &conflicts) {
		t.Fatalf("expected Conflicts, got %v", err)
	}
	want := Conflicts{{Manager: "alice", Path: p(fe("replicas"))}}
	if !conflicts.Equals(want) {
		t.Errorf("conflicts = %v, want %v", conflicts, want)
	}
	if !strings.Contains(err.Error(), "alice") {
		t.Errorf("conflict message does not name the owner: %q", err)
	}
	if !conflicts.ToSet().Equals(fieldpath.NewSet(p(fe("replicas")))) {
		t.Errorf("ToSet = %v", conflicts.ToSet())
	}
	// the caller's records are untouched after a rejected apply
	if managed["bob"] != nil {
		t.Errorf("rejected apply recorded ownership for bob")
	}
	if !managed["alice"].Set.Has(p(fe("replicas"))) {
		t.Errorf("rejected apply stripped alice")
	}

	// forcing transfers ownership
	obj, managed, err := up.Apply(live, appTyped(t, s, "replicas: 2\n"), "v1", managed, "bob", true)
	if err != nil {
		t.Fatal(err)
	}
	if !obj.AsValue().Equals(appTyped(t, s, "name: app\nreplicas: 2\n").AsValue()) {
		t.Errorf("forced object:\n%v", obj.AsValue())
	}
	if !managed["bob"].Set.Has(p(fe("replicas"))) {
		t.Errorf("bob does not own the forced field")
	}
	if managed["alice"].Set.Has(p(fe("replicas"))) {
		t.Errorf("alice still owns the forced field")
	}
	if !managed["alice"].Set.Has(p(fe("name"))) {
		t.Errorf("alice lost an unrelated field")
	}
}

func TestApplyRelinquishPrunes(t *testing.T) {
	s := appSchema(t)
	up := &Updater{}
	live := appTyped(t, s, "{}")

	_, managed, err := up.Apply(live, appTyped(t, s, "replicas: 1\nlabels:\n  a: x\n"), "v1", fieldpath.ManagedFields{}, "alice", false)
	if err != nil {
		t.Fatal(err)
	}
	live = appTyped(t, s, "replicas: 1\nlabels:\n  a: x\n")

	// the next apply no longer declares replicas; nobody else owns it
	obj, managed, err := up.Apply(live, appTyped(t, s, "labels:\n  a: x\n"), "v1", managed, "alice", false)
	if err != nil {
		t.Fatal(err)
	}
	if !obj.AsValue().Equals(appTyped(t, s, "labels:\n  a: x\n").AsValue()) {
		t.Errorf("relinquished field not pruned:\n%v", obj.AsValue())
	}
	if managed["alice"].Set.Has(p(fe("replicas"))) {
		t.Errorf("alice still owns replicas")
	}
}

func TestApplySharedFieldSurvivesRelinquish(t *testing.T) {
	s := appSchema(t)
	up := &Updater{}
	live := appTyped(t, s, "{}")

	_, managed, err := up.Apply(live, appTyped(t, s, "labels:\n  a: x\n"), "v1", fieldpath.ManagedFields{}, "alice", false)
	if err != nil {
		t.Fatal(err)
	}
	live = appTyped(t, s, "labels:\n  a: x\n")

	// bob declares the same value; no conflict, both own it
	_, managed, err = up.Apply(live, appTyped(t, s, "labels:\n  a: x\n"), "v1", managed, "bob", false)
	if err != nil {
		t.Fatal(err)
	}
	if !managed["alice"].Set.Has(p(fe("labels"), fe("a"))) || !managed["bob"].Set.Has(p(fe("labels"), fe("a"))) {
		t.Fatalf("co-ownership not recorded:\n%v", managed)
	}

	// alice walks away; bob keeps the field alive
	obj, managed, err := up.Apply(live, appTyped(t, s, "{}"), "v1", managed, "alice", false)
	if err != nil {
		t.Fatal(err)
	}
	if !obj.AsValue().Equals(appTyped(t, s, "labels:\n  a: x\n").AsValue()) {
		t.Errorf("shared field pruned:\n%v", obj.AsValue())
	}
	if managed["alice"] != nil {
		t.Errorf("alice still has a record after declaring nothing")
	}
	if !managed["bob"].Set.Has(p(fe("labels"), fe("a"))) {
		t.Errorf("bob lost the shared field")
	}
}

func TestApplyKeyedItemOwnership(t *testing.T) {
	s := appSchema(t)
	up := &Updater{}
	live := appTyped(t, s, "{}")

	// items relying on the protocol default and items spelling it out
	// resolve to the same identity across applies
	_, managed, err := up.Apply(live, appTyped(t, s, "ports:\n- port: 80\n  targetPort: 1\n"), "v1", fieldpath.ManagedFields{}, "alice", false)
	if err != nil {
		t.Fatal(err)
	}
	live = appTyped(t, s, "ports:\n- port: 80\n  targetPort: 1\n")

	_, _, err = up.Apply(live, appTyped(t, s, "ports:\n- port: 80\n  protocol: TCP\n  targetPort: 2\n"), "v1", managed, "bob", false)
	var conflicts Conflicts
	if !errors.As(err, &conflicts) {
		t.Fatalf("expected a conflict on the defaulted item, got %v", err)
	}
	key := fieldpath.KeyElement(
		value.Field{Name: "port", Value: value.FromInt(80)},
		value.Field{Name: "protocol", Value: value.FromString("TCP")},
	)
	want := Conflicts{{Manager: "alice", Path: p(fe("ports"), key, fe("targetPort"))}}
	if !conflicts.Equals(want) {
		t.Errorf("conflicts = %v, want %v", conflicts, want)
	}
}

func TestUpdateInfersOwnership(t *testing.T) {
	s := appSchema(t)
	up := &Updater{}
	live := appTyped(t, s, "{}")

	_, managed, err := up.Apply(live, appTyped(t, s, "replicas: 1\nname: app\n"), "v1", fieldpath.ManagedFields{}, "alice", false)
	if err != nil {
		t.Fatal(err)
	}
	live = appTyped(t, s, "name: app\nreplicas: 1\n")

	// a wholesale update never reports conflicts; it takes what it changes
	newObject := appTyped(t, s, "name: app\nreplicas: 2\nlabels:\n  owner: ctrl\n")
	obj, managed, err := up.Update(live, newObject, "v1", managed, "controller")
	if err != nil {
		t.Fatal(err)
	}
	if obj != newObject {
		t.Errorf("update did not return the object as given")
	}
	ctrl := managed["controller"]
	if ctrl == nil {
		t.Fatal("controller has no record")
	}
	if ctrl.Applied {
		t.Errorf("update marked the record as applied")
	}
	want := fieldpath.NewSet(
		p(fe("replicas")),
		p(fe("labels"), fe("owner")),
	)
	if !ctrl.Set.Equals(want) {
		t.Errorf("controller owns:\n%v\nwant:\n%v", ctrl.Set, want)
	}
	if managed["alice"].Set.Has(p(fe("replicas"))) {
		t.Errorf("alice kept a field the update overwrote")
	}
	if !managed["alice"].Set.Has(p(fe("name"))) {
		t.Errorf("alice lost an untouched field")
	}

	// removing the field again relinquishes it
	live = newObject
	_, managed, err = up.Update(live, appTyped(t, s, "name: app\nreplicas: 2\n"), "v1", managed, "controller")
	if err != nil {
		t.Fatal(err)
	}
	if managed["controller"].Set.Has(p(fe("labels"), fe("owner"))) {
		t.Errorf("controller still owns a removed field")
	}
}

func TestApplyIdempotent(t *testing.T) {
	s := appSchema(t)
	up := &Updater{ReturnInputOnNoop: true}
	live := appTyped(t, s, "{}")
	config := appTyped(t, s, "replicas: 1\nports:\n- port: 80\n  targetPort: 1\n")

	obj, managed, err := up.Apply(live, config, "v1", fieldpath.ManagedFields{}, "alice", false)
	if err != nil {
		t.Fatal(err)
	}
	live = obj

	again, managedAgain, err := up.Apply(live, config, "v1", managed, "alice", false)
	if err != nil {
		t.Fatal(err)
	}
	if again != live {
		t.Errorf("noop apply did not hand back the live object")
	}
	if !managedAgain.Equals(managed) {
		t.Errorf("noop apply changed ownership:\n%vvs\n%v", managedAgain, managed)
	}
}

func TestApplyIgnoreFilter(t *testing.T) {
	s := appSchema(t)
	up := &Updater{
		IgnoreFilter: map[fieldpath.APIVersion]*IgnoreFilter{
			"v1": NewPrefixIgnoreFilter(p(fe("labels"))),
		},
	}
	live := appTyped(t, s, "{}")
	config := appTyped(t, s, "replicas: 1\nlabels:\n  a: x\n")

	_, managed, err := up.Apply(live, config, "v1", fieldpath.ManagedFields{}, "alice", false)
	if err != nil {
		t.Fatal(err)
	}
	want := fieldpath.NewSet(p(fe("replicas")))
	if !managed["alice"].Set.Equals(want) {
		t.Errorf("ignored paths recorded:\n%v\nwant:\n%v", managed["alice"].Set, want)
	}
}

func TestExprIgnoreFilter(t *testing.T) {
	f, err := NewExprIgnoreFilter(`hasPrefix(path, ".labels")`)
	if err != nil {
		t.Fatal(err)
	}
	in := fieldpath.NewSet(
		p(fe("labels"), fe("a")),
		p(fe("replicas")),
	)
	got := f.FilterSet(in)
	if want := fieldpath.NewSet(p(fe("replicas"))); !got.Equals(want) {
		t.Errorf("filtered:\n%v\nwant:\n%v", got, want)
	}
	if _, err := NewExprIgnoreFilter(`not an expression`); err == nil {
		t.Errorf("bad expression compiled")
	}
}

func TestExtractApplyIsAdditive(t *testing.T) {
	s := appSchema(t)
	up := &Updater{}
	live := appTyped(t, s, "{}")

	obj, managed, err := up.ExtractApply(live, appTyped(t, s, "replicas: 1\n"), "v1", fieldpath.ManagedFields{}, "alice", false)
	if err != nil {
		t.Fatal(err)
	}
	live = obj

	// the second extract-apply declares different fields; nothing is
	// pruned and ownership accumulates
	obj, managed, err = up.ExtractApply(live, appTyped(t, s, "labels:\n  a: x\n"), "v1", managed, "alice", false)
	if err != nil {
		t.Fatal(err)
	}
	if !obj.AsValue().Equals(appTyped(t, s, "replicas: 1\nlabels:\n  a: x\n").AsValue()) {
		t.Errorf("extract-apply pruned:\n%v", obj.AsValue())
	}
	want := fieldpath.NewSet(
		p(fe("replicas")),
		p(fe("labels"), fe("a")),
	)
	if !managed["alice"].Set.Equals(want) {
		t.Errorf("owned:\n%v\nwant:\n%v", managed["alice"].Set, want)
	}
}

type missingVersionError struct {
	version fieldpath.APIVersion
}

func (e missingVersionError) Error() string {
	return fmt.Sprintf("no such version %q", e.version)
}

// identityConverter serves deployments where every known version shares
// one schema; unknown versions fail as missing.
type identityConverter struct {
	known map[fieldpath.APIVersion]bool
}

func (c identityConverter) Convert(obj *typed.TypedValue, version fieldpath.APIVersion) (*typed.TypedValue, error) {
	if !c.known[version] {
		return nil, missingVersionError{version: version}
	}
	return obj, nil
}

func (c identityConverter) IsMissingVersionError(err error) bool {
	var m missingVersionError
	return errors.As(err, &m)
}

func TestApplyRemovesObsoleteManagers(t *testing.T) {
	s := appSchema(t)
	up := &Updater{Converter: identityConverter{known: map[fieldpath.APIVersion]bool{"v1": true, "v2": true}}}
	live := appTyped(t, s, "name: app\nreplicas: 1\n")
	managed := fieldpath.ManagedFields{
		"old": fieldpath.NewVersionedSet(fieldpath.NewSet(p(fe("replicas"))), "v0", true),
	}

	// old's version no longer converts; its ownership cannot block bob
	obj, managed, err := up.Apply(live, appTyped(t, s, "replicas: 2\n"), "v1", managed, "bob", false)
	if err != nil {
		t.Fatal(err)
	}
	if managed["old"] != nil {
		t.Errorf("obsolete manager still present")
	}
	if !obj.AsValue().Equals(appTyped(t, s, "name: app\nreplicas: 2\n").AsValue()) {
		t.Errorf("object:\n%v", obj.AsValue())
	}
}

func TestApplyCrossVersionConflict(t *testing.T) {
	s := appSchema(t)
	up := &Updater{Converter: identityConverter{known: map[fieldpath.APIVersion]bool{"v1": true, "v2": true}}}
	live := appTyped(t, s, "name: app\nreplicas: 1\n")
	managed := fieldpath.ManagedFields{
		"alice": fieldpath.NewVersionedSet(fieldpath.NewSet(p(fe("replicas"))), "v2", true),
	}

	_, _, err := up.Apply(live, appTyped(t, s, "replicas: 2\n"), "v1", managed, "bob", false)
	var conflicts Conflicts
	if !errors.As(err, &conflicts) {
		t.Fatalf("expected Conflicts, got %v", err)
	}
	want := Conflicts{{Manager: "alice", Path: p(fe("replicas"))}}
	if !conflicts.Equals(want) {
		t.Errorf("conflicts = %v, want %v", conflicts, want)
	}
}

func TestApplyReconcilesSchemaChanges(t *testing.T) {
	s := appSchema(t)
	up := &Updater{}
	live := appTyped(t, s, "name: app\ndata:\n  k: v\n")
	// ownership recorded when data was granular
	managed := fieldpath.ManagedFields{
		"alice": fieldpath.NewVersionedSet(fieldpath.NewSet(p(fe("data"), fe("k"))), "v1", true),
	}

	_, managed, err := up.Apply(live, appTyped(t, s, "name: app\n"), "v1", managed, "bob", false)
	if err != nil {
		t.Fatal(err)
	}
	if want := fieldpath.NewSet(p(fe("data"))); !managed["alice"].Set.Equals(want) {
		t.Errorf("reconciled ownership:\n%v\nwant:\n%v", managed["alice"].Set, want)
	}
}
