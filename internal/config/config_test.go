package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempDoc(t *testing.T, yamlBody string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))
	return path
}

func TestParseDocumentValidDAG(t *testing.T) {
	path := writeTempDoc(t, `
name: demo
projects:
  - id: lib
  - id: app
    depends_on: [lib]
`)

	doc, err := ParseDocument(path)
	require.NoError(t, err)
	require.Equal(t, "demo", doc.Name)
	require.Len(t, doc.Projects, 2)
}

func TestParseDocumentRejectsMalformedYAML(t *testing.T) {
	path := writeTempDoc(t, "name: [unterminated")

	_, err := ParseDocument(path)
	require.Error(t, err)
}

func TestValidateDocumentRejectsDuplicateID(t *testing.T) {
	doc := &Document{
		Name: "demo",
		Projects: []ProjectSpec{
			{ID: "app"},
			{ID: "app"},
		},
	}
	err := ValidateDocument(doc)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate project id")
}

func TestValidateDocumentRejectsDanglingDependency(t *testing.T) {
	doc := &Document{
		Name: "demo",
		Projects: []ProjectSpec{
			{ID: "app", DependsOn: []string{"missing"}},
		},
	}
	err := ValidateDocument(doc)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown project")
}

func TestValidateDocumentRejectsInvalidProjectID(t *testing.T) {
	doc := &Document{
		Name: "demo",
		Projects: []ProjectSpec{
			{ID: "Not Valid!"},
		},
	}
	err := ValidateDocument(doc)
	require.Error(t, err)
}

func TestValidateDocumentRejectsMalformedDuration(t *testing.T) {
	doc := &Document{
		Name: "demo",
		Projects: []ProjectSpec{
			{ID: "app", StallFor: "not-a-duration"},
		},
	}
	err := ValidateDocument(doc)
	require.Error(t, err)
}

func TestDetectCycleFindsSelfReferentialChain(t *testing.T) {
	specs := []ProjectSpec{
		{ID: "a", DependsOn: []string{"b"}},
		{ID: "b", DependsOn: []string{"c"}},
		{ID: "c", DependsOn: []string{"a"}},
	}
	cycle := detectCycle(specs)
	require.NotEmpty(t, cycle)
}

func TestDetectCycleReturnsNilForDAG(t *testing.T) {
	specs := []ProjectSpec{
		{ID: "lib"},
		{ID: "app", DependsOn: []string{"lib"}},
	}
	require.Empty(t, detectCycle(specs))
}

func TestBuildDagOrdersChildrenBeforeParent(t *testing.T) {
	doc := &Document{
		Name: "demo",
		Projects: []ProjectSpec{
			{ID: "lib"},
			{ID: "app", DependsOn: []string{"lib"}},
		},
	}
	require.NoError(t, ValidateDocument(doc))

	dag, err := BuildDag(doc)
	require.NoError(t, err)
	require.Equal(t, "app", dag.Project().UniqueID)
	require.Len(t, dag.Children(), 1)
	require.Equal(t, "lib", dag.Children()[0].Project().UniqueID)
}

func TestBuildDagFansOutMultipleRootsUnderAggregate(t *testing.T) {
	doc := &Document{
		Name: "demo",
		Projects: []ProjectSpec{
			{ID: "svc-a"},
			{ID: "svc-b"},
		},
	}
	require.NoError(t, ValidateDocument(doc))

	dag, err := BuildDag(doc)
	require.NoError(t, err)
	require.True(t, dag.IsAggregate())
	require.Len(t, dag.Children(), 2)
}

func TestBuildDagSharesDiamondDependencyNode(t *testing.T) {
	doc := &Document{
		Name: "demo",
		Projects: []ProjectSpec{
			{ID: "base"},
			{ID: "left", DependsOn: []string{"base"}},
			{ID: "right", DependsOn: []string{"base"}},
			{ID: "top", DependsOn: []string{"left", "right"}},
		},
	}
	require.NoError(t, ValidateDocument(doc))

	dag, err := BuildDag(doc)
	require.NoError(t, err)
	require.Equal(t, "top", dag.Project().UniqueID)
	require.Same(t, dag.Children()[0].Children()[0], dag.Children()[1].Children()[0])
}
