package merge

import (
	"fmt"
	"sort"

	"github.com/applyops/structmerge/fieldpath"
	"github.com/applyops/structmerge/typed"
)

// Converter translates an object between schema versions. Translation to
// a version that no longer exists must fail with an error recognized by
// IsMissingVersionError; owners recorded at such versions are obsolete.
type Converter interface {
	Convert(object *typed.TypedValue, version fieldpath.APIVersion) (*typed.TypedValue, error)
	IsMissingVersionError(error) bool
}

// Updater is the multi-manager ownership engine. It orchestrates merge,
// compare and set algebra to apply declared configurations, infer
// ownership from wholesale updates, detect conflicts between managers,
// and keep ownership records coherent as schemas change.
//
// Callers must serialize calls against one (live object, managed fields)
// pair; the updater retains nothing between calls. A conflicting apply
// leaves the caller's managed fields exactly as they were.
type Updater struct {
	// Converter enables cross-version comparison and pruning. Without
	// one, all ownership records must share the operation's version.
	Converter Converter

	// IgnoreFilter drops paths, per version, from every declared or
	// compared field set.
	IgnoreFilter map[fieldpath.APIVersion]*IgnoreFilter

	// ReturnInputOnNoop makes Apply hand back the live object itself
	// when the operation changed nothing.
	ReturnInputOnNoop bool
}

// Apply merges a manager's declared configuration into the live object.
// Fields the manager declared last time but no longer declares are
// removed unless another manager also owns them; fields owned by other
// managers that this apply would change produce Conflicts unless force
// is set, in which case ownership transfers to the applying manager.
func (s *Updater) Apply(liveObject, configObject *typed.TypedValue, version fieldpath.APIVersion, managers fieldpath.ManagedFields, manager string, force bool) (*typed.TypedValue, fieldpath.ManagedFields, error) {
	managers, err := s.reconcileManagedFields(liveObject, managers.Copy())
	if err != nil {
		return nil, nil, err
	}
	merged, err := liveObject.Merge(configObject)
	if err != nil {
		return nil, nil, err
	}
	declared, err := configObject.ToFieldSet()
	if err != nil {
		return nil, nil, err
	}
	declared = s.IgnoreFilter[version].FilterSet(declared)

	previous := managers[manager]
	managers[manager] = fieldpath.NewVersionedSet(declared, version, true)

	newObject, err := s.prune(merged, managers, manager, previous, version)
	if err != nil {
		return nil, nil, err
	}
	conflictSets, err := s.detectConflicts(liveObject, newObject, version, managers, manager)
	if err != nil {
		return nil, nil, err
	}
	if len(conflictSets) > 0 {
		if !force {
			return nil, nil, conflictsFromManaged(conflictSets)
		}
		stripConflicts(managers, conflictSets)
	}
	if declared.Empty() {
		delete(managers, manager)
	}
	if s.ReturnInputOnNoop && newObject.AsValue().Equals(liveObject.AsValue()) {
		return liveObject, managers, nil
	}
	return newObject, managers, nil
}

// Update records a wholesale write. Ownership of every changed or added
// path moves to the writing manager and removed paths are relinquished;
// other managers' conflicting ownership is stripped rather than rejected.
// The object is returned as given: update trusts the caller's object and
// does not merge.
func (s *Updater) Update(liveObject, newObject *typed.TypedValue, version fieldpath.APIVersion, managers fieldpath.ManagedFields, manager string) (*typed.TypedValue, fieldpath.ManagedFields, error) {
	managers, err := s.reconcileManagedFields(liveObject, managers.Copy())
	if err != nil {
		return nil, nil, err
	}
	conflictSets, err := s.detectConflicts(liveObject, newObject, version, managers, manager)
	if err != nil {
		return nil, nil, err
	}
	stripConflicts(managers, conflictSets)

	compare, err := liveObject.Compare(newObject)
	if err != nil {
		return nil, nil, err
	}
	compare = s.filterComparison(version, compare)

	previousSet := fieldpath.NewSet()
	if vs := managers[manager]; vs != nil {
		previousSet = vs.Set
	}
	newSet := previousSet.Union(compare.Modified).Union(compare.Added).Difference(compare.Removed)
	if newSet.Empty() {
		delete(managers, manager)
	} else {
		managers[manager] = fieldpath.NewVersionedSet(newSet, version, false)
	}
	return newObject, managers, nil
}

// ExtractApply is Apply without relinquishment: the manager's ownership
// becomes the union of its previous set and what it declares now, and
// nothing is pruned from the object.
func (s *Updater) ExtractApply(liveObject, configObject *typed.TypedValue, version fieldpath.APIVersion, managers fieldpath.ManagedFields, manager string, force bool) (*typed.TypedValue, fieldpath.ManagedFields, error) {
	managers, err := s.reconcileManagedFields(liveObject, managers.Copy())
	if err != nil {
		return nil, nil, err
	}
	merged, err := liveObject.Merge(configObject)
	if err != nil {
		return nil, nil, err
	}
	declared, err := configObject.ToFieldSet()
	if err != nil {
		return nil, nil, err
	}
	declared = s.IgnoreFilter[version].FilterSet(declared)

	newSet := declared
	if previous := managers[manager]; previous != nil {
		newSet = previous.Set.Union(declared)
	}
	managers[manager] = fieldpath.NewVersionedSet(newSet, version, true)

	conflictSets, err := s.detectConflicts(liveObject, merged, version, managers, manager)
	if err != nil {
		return nil, nil, err
	}
	if len(conflictSets) > 0 {
		if !force {
			return nil, nil, conflictsFromManaged(conflictSets)
		}
		stripConflicts(managers, conflictSets)
	}
	if newSet.Empty() {
		delete(managers, manager)
	}
	return merged, managers, nil
}

// reconcileManagedFields collapses ownership recorded below nodes the
// schema has since made atomic (see typed.ReconcileFieldSetWithSchema).
func (s *Updater) reconcileManagedFields(liveObject *typed.TypedValue, managers fieldpath.ManagedFields) (fieldpath.ManagedFields, error) {
	for name, vs := range managers {
		reconciled, err := typed.ReconcileFieldSetWithSchema(vs.Set, liveObject)
		if err != nil {
			return nil, fmt.Errorf("reconciling fields of manager %q: %w", name, err)
		}
		if reconciled != nil {
			managers[name] = fieldpath.NewVersionedSet(reconciled, vs.APIVersion, vs.Applied)
		}
	}
	return managers, nil
}

// prune removes from the merged object every path the manager declared
// last time, then adds back whatever any manager (including the fresh
// declaration) still owns. The net effect: paths no longer declared and
// owned by nobody disappear from the object.
//
// An applying manager whose recorded version no longer converts is
// obsolete: its old ownership cannot be safely interpreted, so pruning is
// skipped entirely rather than guessed at.
func (s *Updater) prune(merged *typed.TypedValue, managers fieldpath.ManagedFields, applyingManager string, previous *fieldpath.VersionedSet, version fieldpath.APIVersion) (*typed.TypedValue, error) {
	if previous == nil || previous.Set.Empty() {
		return merged, nil
	}
	convertedMerged := merged
	if previous.APIVersion != version {
		var err error
		convertedMerged, err = s.convert(merged, previous.APIVersion)
		if err != nil {
			if s.isMissingVersion(err) {
				return merged, nil
			}
			return nil, ConversionError{Version: previous.APIVersion, Err: err}
		}
	}

	removeSet := previous.Set
	if current := managers[applyingManager]; current != nil && current.APIVersion == previous.APIVersion {
		removeSet = removeSet.Difference(current.Set)
	}
	pruned := convertedMerged.RemoveItems(removeSet)
	pruned, err := s.addBackOwnedItems(convertedMerged, pruned, previous.APIVersion, managers)
	if err != nil {
		return nil, err
	}
	if previous.APIVersion != version {
		pruned, err = s.convert(pruned, version)
		if err != nil {
			return nil, ConversionError{Version: version, Err: err}
		}
	}
	return pruned, nil
}

// addBackOwnedItems reinstates pruned paths that some manager still owns,
// version by version.
func (s *Updater) addBackOwnedItems(merged, pruned *typed.TypedValue, base fieldpath.APIVersion, managers fieldpath.ManagedFields) (*typed.TypedValue, error) {
	byVersion := map[fieldpath.APIVersion]*fieldpath.Set{}
	for _, vs := range managers {
		if owned, ok := byVersion[vs.APIVersion]; ok {
			byVersion[vs.APIVersion] = owned.Union(vs.Set)
		} else {
			byVersion[vs.APIVersion] = vs.Set
		}
	}
	versions := make([]fieldpath.APIVersion, 0, len(byVersion))
	for v := range byVersion {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })

	for _, v := range versions {
		owned := byVersion[v]
		mergedV, prunedV := merged, pruned
		if v != base {
			var err error
			mergedV, err = s.convert(merged, v)
			if err != nil {
				if s.isMissingVersion(err) {
					// obsolete owners add nothing back
					continue
				}
				return nil, ConversionError{Version: v, Err: err}
			}
			prunedV, err = s.convert(pruned, v)
			if err != nil {
				return nil, ConversionError{Version: v, Err: err}
			}
		}
		mergedSet, err := mergedV.ToFieldSet()
		if err != nil {
			return nil, err
		}
		prunedSet, err := prunedV.ToFieldSet()
		if err != nil {
			return nil, err
		}
		addBack := owned.Intersection(mergedSet.Difference(prunedSet))
		if addBack.Empty() {
			continue
		}
		prunedV, err = prunedV.Merge(mergedV.ExtractItems(addBack))
		if err != nil {
			return nil, err
		}
		if v != base {
			prunedV, err = s.convert(prunedV, base)
			if err != nil {
				return nil, ConversionError{Version: base, Err: err}
			}
		}
		pruned = prunedV
	}
	return pruned, nil
}

// detectConflicts compares live and new at every other manager's stored
// version and intersects the changes with that manager's owned set. All
// conflicts are aggregated; managers whose versions no longer convert
// are silently removed instead of reported.
func (s *Updater) detectConflicts(liveObject, newObject *typed.TypedValue, version fieldpath.APIVersion, managers fieldpath.ManagedFields, manager string) (map[string]*fieldpath.Set, error) {
	conflicts := map[string]*fieldpath.Set{}
	comparisons := map[fieldpath.APIVersion]*typed.Comparison{}
	missing := map[fieldpath.APIVersion]bool{}
	var obsolete []string

	names := make([]string, 0, len(managers))
	for name := range managers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == manager {
			continue
		}
		vs := managers[name]
		if missing[vs.APIVersion] {
			obsolete = append(obsolete, name)
			continue
		}
		comp, ok := comparisons[vs.APIVersion]
		if !ok {
			var err error
			comp, err = s.compareAtVersion(liveObject, newObject, version, vs.APIVersion)
			if err != nil {
				if s.isMissingVersion(err) {
					missing[vs.APIVersion] = true
					obsolete = append(obsolete, name)
					continue
				}
				return nil, err
			}
			comp = s.filterComparison(vs.APIVersion, comp)
			comparisons[vs.APIVersion] = comp
		}
		conflictSet := vs.Set.Intersection(comp.Modified.Union(comp.Added))
		if !conflictSet.Empty() {
			conflicts[name] = conflictSet
		}
	}
	for _, name := range obsolete {
		delete(managers, name)
	}
	return conflicts, nil
}

func (s *Updater) compareAtVersion(liveObject, newObject *typed.TypedValue, from, to fieldpath.APIVersion) (*typed.Comparison, error) {
	if from != to {
		var err error
		liveObject, err = s.convert(liveObject, to)
		if err != nil {
			if s.isMissingVersion(err) {
				return nil, err
			}
			return nil, ConversionError{Version: to, Err: err}
		}
		newObject, err = s.convert(newObject, to)
		if err != nil {
			if s.isMissingVersion(err) {
				return nil, err
			}
			return nil, ConversionError{Version: to, Err: err}
		}
	}
	return liveObject.Compare(newObject)
}

func (s *Updater) convert(obj *typed.TypedValue, version fieldpath.APIVersion) (*typed.TypedValue, error) {
	if s.Converter == nil {
		return nil, fmt.Errorf("no converter configured for version %q", version)
	}
	return s.Converter.Convert(obj, version)
}

func (s *Updater) isMissingVersion(err error) bool {
	return s.Converter != nil && s.Converter.IsMissingVersionError(err)
}

func (s *Updater) filterComparison(version fieldpath.APIVersion, comp *typed.Comparison) *typed.Comparison {
	f := s.IgnoreFilter[version]
	if f == nil {
		return comp
	}
	return comp.FilterFields(f.ignores)
}

func stripConflicts(managers fieldpath.ManagedFields, conflictSets map[string]*fieldpath.Set) {
	for name, conflictSet := range conflictSets {
		vs := managers[name]
		if vs == nil {
			continue
		}
		reduced := vs.Set.Difference(conflictSet)
		if reduced.Empty() {
			delete(managers, name)
			continue
		}
		managers[name] = fieldpath.NewVersionedSet(reduced, vs.APIVersion, vs.Applied)
	}
}
