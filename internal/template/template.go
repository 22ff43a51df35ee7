package template

// Field kinds supported by templates
const (
	KindText    = "text"
	KindDate    = "date"
	KindNumeric = "numeric"
)

// Standard field names produced by extraction. Template fields whose name
// (or legacy alias) maps to one of these land in the invoice record; anything
// else is kept as a nonstandard extra.
const (
	FieldTaxID         = "TaxID"
	FieldInvoiceDate   = "InvoiceDate"
	FieldDueDate       = "DueDate"
	FieldInvoiceNumber = "InvoiceNumber"
	FieldPaymentDate   = "PaymentDate"
	FieldBase          = "Base"
	FieldCommission    = "Commission"
)

// Identification field names recognized by the provider identifier.
const (
	IdentTaxID = "TaxID_Identification"
	IdentName  = "Name_Identification"
)

// fieldAliases maps legacy template field names (older authoring tool
// releases) to the standard names.
var fieldAliases = map[string]string{
	"num-factura":           FieldInvoiceNumber,
	"numero-factura":        FieldInvoiceNumber,
	"NumFactura":            FieldInvoiceNumber,
	"fecha":                 FieldInvoiceDate,
	"fecha-factura":         FieldInvoiceDate,
	"FechaFactura":          FieldInvoiceDate,
	"fecha-vto":             FieldDueDate,
	"fecha-vencimiento":     FieldDueDate,
	"FechaVto":              FieldDueDate,
	"FechaPago":             FieldPaymentDate,
	"base":                  FieldBase,
	"base-imponible":        FieldBase,
	"ComPaypal":             FieldCommission,
	"CIF_Identificacion":    IdentTaxID,
	"Nombre_Identificacion": IdentName,
}

// StandardName resolves a template field name to its standard column name.
// Unknown names are returned unchanged.
func StandardName(name string) string {
	if std, ok := fieldAliases[name]; ok {
		return std
	}
	return name
}

// FieldDefinition describes one positional field in a provider template.
type FieldDefinition struct {
	Name           string    `json:"name"`
	BBox           []float64 `json:"bbox"` // x0, y0, x1, y1, origin bottom-left
	Kind           string    `json:"kind"`
	Page           int       `json:"page,omitempty"`
	Identification bool      `json:"is_identification,omitempty"`
	Optional       bool      `json:"is_optional,omitempty"`
	Auxiliary      bool      `json:"is_auxiliary,omitempty"`
	Target         string    `json:"target,omitempty"` // fold target for auxiliary fields
}

// Template is an operator-authored mapping from named fields to bounding
// boxes for one provider. Immutable once loaded.
type Template struct {
	ProviderName string            `json:"provider_name"`
	TaxID        string            `json:"tax_id,omitempty"`
	Page         int               `json:"page,omitempty"`
	Fields       []FieldDefinition `json:"fields"`
}

// IdentificationFields returns the fields used for provider recognition.
func (t *Template) IdentificationFields() []FieldDefinition {
	var fields []FieldDefinition
	for _, f := range t.Fields {
		if f.Identification {
			fields = append(fields, f)
		}
	}
	return fields
}

// DataFields returns every non-identification field in declaration order.
func (t *Template) DataFields() []FieldDefinition {
	var fields []FieldDefinition
	for _, f := range t.Fields {
		if !f.Identification {
			fields = append(fields, f)
		}
	}
	return fields
}

// Field returns the definition whose standard name matches, if any.
func (t *Template) Field(stdName string) (FieldDefinition, bool) {
	for _, f := range t.Fields {
		if StandardName(f.Name) == stdName {
			return f, true
		}
	}
	return FieldDefinition{}, false
}
