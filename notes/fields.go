// notes/fields.go
package notes

import "github.com/ViniZap4/lumi-estimates/domain"

// FieldMeta classifies a recognized field label.
type FieldMeta struct {
	Label     string
	Group     domain.Group
	MultiLine bool
	// LineItems routes the field's lines to ParsedNote.LineItems instead of
	// producing an entry.
	LineItems bool
}

// fields is keyed by NormalizeKey output and never mutated.
var fields = map[string]FieldMeta{
	"estimate":                {Label: "Estimate", Group: domain.GroupEstimate},
	"estimate number":         {Label: "Estimate #", Group: domain.GroupEstimate},
	"date":                    {Label: "Date", Group: domain.GroupEstimate},
	"name address":            {Label: "Customer", Group: domain.GroupCustomer, MultiLine: true},
	"job location":            {Label: "Job Location", Group: domain.GroupLocation, MultiLine: true},
	"signature":               {Label: "Signature", Group: domain.GroupVendor, MultiLine: true},
	"total":                   {Label: "Total", Group: domain.GroupTotals},
	"subtotal":                {Label: "Subtotal", Group: domain.GroupTotals},
	"sales tax 3 965":         {Label: "Sales Tax (3.965%)", Group: domain.GroupTotals},
	"sales tax":               {Label: "Sales Tax", Group: domain.GroupTotals},
	"line items":              {Label: "Line Items", Group: domain.GroupOther, MultiLine: true},
	"descriptionqtyratetotal": {Label: "Line Items", Group: domain.GroupOther, MultiLine: true, LineItems: true},
}

// LookupField returns the metadata for an already-normalized key.
func LookupField(key string) (FieldMeta, bool) {
	meta, ok := fields[key]
	return meta, ok
}

// Classify normalizes label and looks it up.
func Classify(label string) (FieldMeta, bool) {
	return LookupField(NormalizeKey(label))
}

// isFieldBoundary reports whether line starts a new field: either a
// "label: value" line or a recognized standalone label.
func isFieldBoundary(line string) bool {
	if _, _, ok := splitKeyValue(line); ok {
		return true
	}
	_, ok := Classify(stripTrailingColons(line))
	return ok
}
