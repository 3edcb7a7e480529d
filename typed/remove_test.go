package typed

import (
	"testing"

	"github.com/applyops/structmerge/fieldpath"
)

const removeDoc = `
name: app
labels:
  a: x
  b: y
ports:
- port: 80
  targetPort: 1
- port: 443
resources:
  cpu: "1"
`

func TestRemoveItems(t *testing.T) {
	s := deploymentSchema(t)
	tv := mustDeployment(t, s, removeDoc)
	tests := []struct {
		name string
		set  *fieldpath.Set
		want string
	}{
		{
			"leaf",
			fieldpath.NewSet(p(fe("name"))),
			"labels:\n  a: x\n  b: y\nports:\n- port: 80\n  targetPort: 1\n- port: 443\nresources:\n  cpu: \"1\"\n",
		},
		{
			"map key",
			fieldpath.NewSet(p(fe("labels"), fe("a"))),
			"name: app\nlabels:\n  b: y\nports:\n- port: 80\n  targetPort: 1\n- port: 443\nresources:\n  cpu: \"1\"\n",
		},
		{
			"whole list item",
			fieldpath.NewSet(p(fe("ports"), portKey(443, "TCP"))),
			"name: app\nlabels:\n  a: x\n  b: y\nports:\n- port: 80\n  targetPort: 1\nresources:\n  cpu: \"1\"\n",
		},
		{
			"field inside list item",
			fieldpath.NewSet(p(fe("ports"), portKey(80, "TCP"), fe("targetPort"))),
			"name: app\nlabels:\n  a: x\n  b: y\nports:\n- port: 80\n- port: 443\nresources:\n  cpu: \"1\"\n",
		},
		{
			"emptied container stays explicit",
			fieldpath.NewSet(p(fe("labels"), fe("a")), p(fe("labels"), fe("b"))),
			"name: app\nlabels: {}\nports:\n- port: 80\n  targetPort: 1\n- port: 443\nresources:\n  cpu: \"1\"\n",
		},
		{
			"atomic root",
			fieldpath.NewSet(p(fe("resources"))),
			"name: app\nlabels:\n  a: x\n  b: y\nports:\n- port: 80\n  targetPort: 1\n- port: 443\n",
		},
		{
			"empty set removes nothing",
			fieldpath.NewSet(),
			removeDoc,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tv.RemoveItems(tt.set)
			want := mustValue(t, tt.want)
			if !got.AsValue().Equals(want) {
				t.Errorf("removed:\n%v\nwant:\n%v", got.AsValue(), want)
			}
		})
	}
}

func TestExtractItems(t *testing.T) {
	s := deploymentSchema(t)
	tv := mustDeployment(t, s, removeDoc)
	tests := []struct {
		name string
		set  *fieldpath.Set
		want string
	}{
		{
			"leaf",
			fieldpath.NewSet(p(fe("name"))),
			"name: app\n",
		},
		{
			"map key",
			fieldpath.NewSet(p(fe("labels"), fe("a"))),
			"labels:\n  a: x\n",
		},
		{
			"whole list item",
			fieldpath.NewSet(p(fe("ports"), portKey(80, "TCP"))),
			"ports:\n- port: 80\n  targetPort: 1\n",
		},
		{
			"field inside list item",
			fieldpath.NewSet(p(fe("ports"), portKey(80, "TCP"), fe("targetPort"))),
			"ports:\n- targetPort: 1\n",
		},
		{
			"empty set extracts nothing",
			fieldpath.NewSet(),
			"null",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tv.ExtractItems(tt.set)
			want := mustValue(t, tt.want)
			if !got.AsValue().Equals(want) {
				t.Errorf("extracted:\n%v\nwant:\n%v", got.AsValue(), want)
			}
		})
	}
}
