package typed

import (
	"strings"
	"testing"

	"github.com/applyops/structmerge/schema"
)

func TestValidateValid(t *testing.T) {
	s := deploymentSchema(t)
	docs := []string{
		"name: app\nreplicas: 3\npaused: false\n",
		"replicas: 2.5\n",
		"name: null\nlabels: null\n",
		"labels:\n  a: x\n  b: y\n",
		"ports:\n- port: 80\n- port: 443\n  protocol: UDP\n",
		"args:\n- -v\n- --debug\n",
		"resources:\n  cpu: \"2\"\n",
		"finalizers:\n- a\n- b\n",
		"null",
	}
	for _, doc := range docs {
		if _, err := AsTyped(mustValue(t, doc), s, schema.NamedRef("deployment")); err != nil {
			t.Errorf("doc %q: unexpected error: %v", doc, err)
		}
	}
}

func TestValidateInvalid(t *testing.T) {
	s := deploymentSchema(t)
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"scalar kind", "replicas: three\n", "expected numeric value"},
		{"bool kind", "paused: 1\n", "expected boolean value"},
		{"unknown field", "nosuch: 1\n", "unknown field"},
		{"map value kind", "labels:\n  a: 3\n", "expected string value"},
		{"map where scalar", "name:\n  a: b\n", "got map"},
		{"missing key field", "ports:\n- protocol: TCP\n", `missing key field "port"`},
		{"keyed item not a map", "ports:\n- 3\n", "is not a map"},
		{"atomic list element kind", "args:\n- 1\n", "expected string value"},
		{"duplicate keys", "ports:\n- port: 80\n  protocol: TCP\n- port: 80\n  protocol: TCP\n", "duplicate entries"},
		{"duplicate via default", "ports:\n- port: 80\n- port: 80\n  protocol: TCP\n", "duplicate entries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AsTyped(mustValue(t, tt.doc), s, schema.NamedRef("deployment"))
			if err == nil {
				t.Fatalf("expected error for %q", tt.doc)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	s := deploymentSchema(t)
	_, err := AsTyped(mustValue(t, "replicas: x\npaused: 2\n"), s, schema.NamedRef("deployment"))
	if err == nil {
		t.Fatal("expected errors")
	}
	errs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("error is %T, want ValidationErrors", err)
	}
	if len(errs) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(errs), errs)
	}
}

func TestValidateErrorPaths(t *testing.T) {
	s := deploymentSchema(t)
	_, err := AsTyped(mustValue(t, "labels:\n  a: 3\n"), s, schema.NamedRef("deployment"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), ".labels.a") {
		t.Errorf("error %q does not carry the path", err)
	}
}

func TestAsDeducedAcceptsAnything(t *testing.T) {
	doc := "a:\n  b:\n  - 1\n  - x: true\nc: null\n"
	tv := AsDeduced(mustValue(t, doc))
	if err := tv.Validate(); err != nil {
		t.Errorf("deduced validation failed: %v", err)
	}
}

func TestAsTypedUnvalidated(t *testing.T) {
	s := deploymentSchema(t)
	// invalid data binds without complaint
	tv := AsTypedUnvalidated(mustValue(t, "replicas: x\n"), s, schema.NamedRef("deployment"))
	if err := tv.Validate(); err == nil {
		t.Errorf("Validate() on bad data returned nil")
	}
}
