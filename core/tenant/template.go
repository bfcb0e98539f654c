package tenant

// Template selects the rendering template for a tenant's public storefront.
// The set is closed so adding a template is a compile-time-checked extension;
// unknown identifiers fall back to TemplateDefault, never an error.
type Template int

const (
	// TemplateClassic is the original single-page landing layout.
	TemplateClassic Template = iota + 1

	// TemplateCatalog is a product-grid-first layout.
	TemplateCatalog

	// TemplateMinimal is a text-forward layout with no hero section.
	TemplateMinimal
)

// TemplateDefault is used for zero or unrecognized template identifiers.
const TemplateDefault = TemplateClassic

// TemplateFromID maps a stored numeric identifier to a Template.
// Unknown values fall back to TemplateDefault.
func TemplateFromID(id int) Template {
	switch t := Template(id); t {
	case TemplateClassic, TemplateCatalog, TemplateMinimal:
		return t
	default:
		return TemplateDefault
	}
}

func (t Template) String() string {
	switch t {
	case TemplateClassic:
		return "classic"
	case TemplateCatalog:
		return "catalog"
	case TemplateMinimal:
		return "minimal"
	default:
		return "classic"
	}
}
