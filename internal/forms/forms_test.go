package forms

import (
	"testing"

	"github.com/yungbote/notescribe-backend/internal/schema"
)

func TestRegistry_AllFormsPresent(t *testing.T) {
	ids := IDs()
	want := []string{OASISID, HOPEID, VisitID}
	if len(ids) != len(want) {
		t.Fatalf("expected %d registered forms, got %v", len(want), ids)
	}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("registration order changed: %v", ids)
		}
		form, ok := Get(id)
		if !ok {
			t.Fatalf("form %s not registered", id)
		}
		if form.Schema == nil || form.Schema.Kind != schema.KindObject {
			t.Fatalf("form %s has no object schema", id)
		}
		if form.Name == "" || form.ShortName == "" {
			t.Fatalf("form %s missing display names", id)
		}
	}
}

func TestAssessmentForms_CarryCodePrompts(t *testing.T) {
	for _, id := range []string{OASISID, HOPEID} {
		form, _ := Get(id)
		if form.Prompt == "" {
			t.Fatalf("form %s has no code prompt", id)
		}
	}
}

func TestGet_UnknownForm(t *testing.T) {
	if _, ok := Get("no-such-form"); ok {
		t.Fatalf("unknown form id should not resolve")
	}
}

func TestOASIS_SectionGItems(t *testing.T) {
	form, _ := Get(OASISID)
	g := form.Schema.Child("G")
	if g == nil {
		t.Fatalf("OASIS missing section G")
	}
	for _, item := range []string{"M1800", "M1810", "M1820", "M1830", "M1840", "M1845", "M1850", "M1860"} {
		leaf := g.Child(item)
		if leaf == nil {
			t.Fatalf("section G missing %s", item)
		}
		if !leaf.Nullable {
			t.Fatalf("%s must be nullable so unaddressed items stay null", item)
		}
		if leaf.Kind != schema.KindEnum || len(leaf.Values) == 0 {
			t.Fatalf("%s should be a coded enum", item)
		}
	}
}

func TestHOPE_SectionsPresent(t *testing.T) {
	form, _ := Get(HOPEID)
	for _, section := range []string{"I", "J", "M", "N"} {
		if form.Schema.Child(section) == nil {
			t.Fatalf("HOPE missing section %s", section)
		}
	}
}

func TestVisitForm_TopLevelSections(t *testing.T) {
	form, _ := Get(VisitID)
	for _, key := range form.Schema.Keys {
		child := form.Schema.Child(key)
		if child == nil {
			t.Fatalf("visit form child %s missing", key)
		}
	}
	if form.Schema.Child("visitInformation") == nil {
		t.Fatalf("visit form missing visitInformation")
	}
}

func TestSchemas_FiniteAndAcyclic(t *testing.T) {
	// Walking with a generous depth limit terminates for every form; a
	// cycle would blow the limit.
	const maxLevels = 32
	var walk func(n *schema.Node, depth int) int
	walk = func(n *schema.Node, depth int) int {
		if depth > maxLevels {
			t.Fatalf("schema deeper than %d levels, likely cyclic", maxLevels)
		}
		max := depth
		for _, key := range n.Keys {
			if d := walk(n.Children[key], depth+1); d > max {
				max = d
			}
		}
		return max
	}
	for _, form := range All() {
		walk(form.Schema, 0)
	}
}
