// Package forms holds the process-wide registry of clinical assessment
// form definitions. The registry is built at init and read-only afterwards.
package forms

import (
	"encoding/json"

	"github.com/yungbote/notescribe-backend/internal/schema"
)

const (
	OASISID = "home-health-oasis-soc"
	HOPEID  = "hospice-hope-soc"
	VisitID = "visit-form"
)

type Form struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ShortName   string   `json:"shortName"`
	Description string   `json:"description"`
	Sections    []string `json:"sections"`

	// Prompt is the form-specific fragment appended to the shared
	// clinical system prompt for generation.
	Prompt string `json:"-"`

	Schema *schema.Node `json:"-"`
}

var (
	order    []string
	registry = map[string]*Form{}
)

func register(f *Form) {
	if _, dup := registry[f.ID]; dup {
		panic("forms: duplicate form id " + f.ID)
	}
	order = append(order, f.ID)
	registry[f.ID] = f
}

func init() {
	register(&Form{
		ID:          OASISID,
		Name:        "Home Health OASIS Start of Care",
		ShortName:   "OASIS",
		Description: "OASIS-E assessment for home health start of care",
		Sections:    []string{"Section G: Functional Status", "Section GG: Functional Abilities"},
		Prompt:      oasisPrompt(),
		Schema:      oasisSchema(),
	})
	register(&Form{
		ID:          HOPEID,
		Name:        `Hospice "HOPE" Start of Care`,
		ShortName:   "HOPE",
		Description: "HOPE assessment for hospice start of care",
		Sections: []string{
			"Section I: Active Diagnoses",
			"Section J: Health Conditions",
			"Section M: Skin Conditions",
			"Section N: Medications",
		},
		Prompt: hopePrompt(),
		Schema: hopeSchema(),
	})
	register(&Form{
		ID:          VisitID,
		Name:        "Visit Form",
		ShortName:   "Visit Form",
		Description: "Visit form for home health nursing encounters",
		Sections: []string{
			"Visit Information", "Symptom Assessment", "Psychological & Cognitive",
			"Interventions", "Assessment/Impression", "Plan of Care",
			"Patient & Family Education & Response", "Care Coordination",
		},
		Prompt: "",
		Schema: visitSchema(),
	})
}

// Get returns the registered form definition for id.
func Get(id string) (*Form, bool) {
	f, ok := registry[id]
	return f, ok
}

// IDs lists registered form ids in registration order.
func IDs() []string {
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// All lists registered forms in registration order.
func All() []*Form {
	out := make([]*Form, 0, len(order))
	for _, id := range order {
		out = append(out, registry[id])
	}
	return out
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
