package typed

import (
	"testing"

	"github.com/applyops/structmerge/schema"
)

func testMerge(t *testing.T, s *schema.Schema, lhs, rhs, want string) {
	t.Helper()
	merged, err := mustDeployment(t, s, lhs).Merge(mustDeployment(t, s, rhs))
	if err != nil {
		t.Fatal(err)
	}
	wantValue := mustValue(t, want)
	if !merged.AsValue().Equals(wantValue) {
		t.Errorf("merged:\n%v\nwant:\n%v", merged.AsValue(), wantValue)
	}
}

func TestMergeMaps(t *testing.T) {
	s := deploymentSchema(t)
	testMerge(t, s,
		"name: app\nreplicas: 1\nlabels:\n  a: x\n  b: y\n",
		"replicas: 2\nlabels:\n  b: z\n  c: w\npaused: true\n",
		// lhs fields keep their order, rhs-only fields follow in rhs order
		"name: app\nreplicas: 2\nlabels:\n  a: x\n  b: z\n  c: w\npaused: true\n",
	)
}

func TestMergeNullKeepsOtherSide(t *testing.T) {
	s := deploymentSchema(t)
	// null rhs leaves lhs alone, null lhs adopts rhs
	testMerge(t, s,
		"name: app\nreplicas: 1\n",
		"replicas: null\npaused: true\n",
		"name: app\nreplicas: 1\npaused: true\n",
	)
	testMerge(t, s,
		"labels: null\n",
		"labels:\n  a: x\n",
		"labels:\n  a: x\n",
	)
}

func TestMergeAssociativeListOrder(t *testing.T) {
	s := deploymentSchema(t)
	// lhs-only items first in lhs order, then rhs items in rhs order
	testMerge(t, s,
		"ports:\n- port: 8080\n- port: 80\n  targetPort: 1\n",
		"ports:\n- port: 80\n  targetPort: 2\n- port: 443\n",
		"ports:\n- port: 8080\n- port: 80\n  targetPort: 2\n- port: 443\n",
	)
}

func TestMergeDefaultedKeyIdentity(t *testing.T) {
	s := deploymentSchema(t)
	// an item spelling protocol out and one relying on the default have
	// the same identity
	testMerge(t, s,
		"ports:\n- port: 80\n  protocol: TCP\n  targetPort: 1\n",
		"ports:\n- port: 80\n  targetPort: 2\n",
		"ports:\n- port: 80\n  protocol: TCP\n  targetPort: 2\n",
	)
}

func TestMergeAtomic(t *testing.T) {
	s := deploymentSchema(t)
	// atomic lists and maps replace wholesale
	testMerge(t, s,
		"args:\n- a\n- b\nresources:\n  cpu: \"1\"\n  mem: \"2\"\n",
		"args:\n- c\nresources:\n  cpu: \"3\"\n",
		"args:\n- c\nresources:\n  cpu: \"3\"\n",
	)
}

func TestMergeValueSet(t *testing.T) {
	s := deploymentSchema(t)
	testMerge(t, s,
		"finalizers:\n- a\n- b\n",
		"finalizers:\n- b\n- c\n",
		"finalizers:\n- a\n- b\n- c\n",
	)
}

func TestMergeKindMismatchTakesRhs(t *testing.T) {
	s := deploymentSchema(t)
	// a field switching shape takes the rhs wholesale
	lhs := AsTypedUnvalidated(mustValue(t, "labels:\n  a: x\n"), s, schema.NamedRef("deployment"))
	rhs := AsTypedUnvalidated(mustValue(t, "labels: gone\n"), s, schema.NamedRef("deployment"))
	merged, err := lhs.Merge(rhs)
	if err != nil {
		t.Fatal(err)
	}
	want := mustValue(t, "labels: gone\n")
	if !merged.AsValue().Equals(want) {
		t.Errorf("merged: %v, want %v", merged.AsValue(), want)
	}
}

func TestMergeRequiresSameSchema(t *testing.T) {
	a := deploymentSchema(t)
	b := deploymentSchema(t)
	lhs := mustDeployment(t, a, "name: x\n")
	rhs := mustDeployment(t, b, "name: y\n")
	if _, err := lhs.Merge(rhs); err == nil {
		t.Errorf("merge across schema instances succeeded")
	}
}

func TestMergeIdempotent(t *testing.T) {
	s := deploymentSchema(t)
	doc := "name: app\nports:\n- port: 80\n  targetPort: 1\nlabels:\n  a: x\n"
	tv := mustDeployment(t, s, doc)
	merged, err := tv.Merge(tv)
	if err != nil {
		t.Fatal(err)
	}
	if !merged.AsValue().Equals(tv.AsValue()) {
		t.Errorf("self merge changed the value:\n%v", merged.AsValue())
	}
}
