package builder

// Template is a visual style for a rendered invoice. It has no effect on totals.
type Template struct {
	ID    string
	Name  string
	Color string // hex accent colour used by renderers
}

const (
	TemplateProfessional = "professional"
	TemplateMinimal      = "minimal"
	TemplateCreative     = "creative"
)

// DefaultTemplateID is selected when a draft is opened without one
const DefaultTemplateID = TemplateProfessional

var templates = []Template{
	{ID: TemplateProfessional, Name: "Professional", Color: "#14b8a6"},
	{ID: TemplateMinimal, Name: "Minimal", Color: "#0ea5e9"},
	{ID: TemplateCreative, Name: "Creative", Color: "#8b5cf6"},
}

// Templates returns the available templates in display order
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// LookupTemplate returns the template with the given ID. Unknown IDs fall
// back to the default template with ok set to false.
func LookupTemplate(id string) (Template, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return templates[0], false
}
