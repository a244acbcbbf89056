// domain/note.go
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Group string

const (
	GroupEstimate Group = "estimate"
	GroupCustomer Group = "customer"
	GroupLocation Group = "location"
	GroupVendor   Group = "vendor"
	GroupTotals   Group = "totals"
	GroupOther    Group = "other"
)

// Groups lists every group in output order.
var Groups = []Group{GroupEstimate, GroupCustomer, GroupLocation, GroupVendor, GroupTotals, GroupOther}

// Value is either a single string or a list of lines. It encodes to JSON
// as a string or as an array accordingly.
type Value struct {
	Lines []string
	List  bool
}

func TextValue(s string) Value {
	return Value{Lines: []string{s}}
}

func ListValue(lines ...string) Value {
	return Value{Lines: append([]string{}, lines...), List: true}
}

// Text returns the single value, or the lines joined by newlines for lists.
func (v Value) Text() string {
	if !v.List {
		if len(v.Lines) == 0 {
			return ""
		}
		return v.Lines[0]
	}
	return strings.Join(v.Lines, "\n")
}

func (v Value) IsEmpty() bool {
	if v.List {
		return len(v.Lines) == 0
	}
	return v.Text() == ""
}

func (v Value) String() string {
	if v.List {
		return fmt.Sprintf("%q", v.Lines)
	}
	return v.Text()
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.List {
		lines := v.Lines
		if lines == nil {
			lines = []string{}
		}
		return json.Marshal(lines)
	}
	return json.Marshal(v.Text())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = TextValue(s)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("value must be a string or an array of strings: %w", err)
	}
	*v = ListValue(lines...)
	return nil
}

type Entry struct {
	Label string `json:"label"`
	Value Value  `json:"value"`
}

// ParsedNote is the structured form of a contact's free-text notes.
// Every slice is non-nil once built by NewParsedNote.
type ParsedNote struct {
	Estimate  []Entry  `json:"estimate"`
	Customer  []Entry  `json:"customer"`
	Location  []Entry  `json:"location"`
	Vendor    []Entry  `json:"vendor"`
	Totals    []Entry  `json:"totals"`
	Other     []Entry  `json:"other"`
	LineItems []string `json:"lineItems"`
}

func NewParsedNote() ParsedNote {
	return ParsedNote{
		Estimate:  []Entry{},
		Customer:  []Entry{},
		Location:  []Entry{},
		Vendor:    []Entry{},
		Totals:    []Entry{},
		Other:     []Entry{},
		LineItems: []string{},
	}
}

// Entries returns the entries of a group. Unknown groups have none.
func (p *ParsedNote) Entries(g Group) []Entry {
	switch g {
	case GroupEstimate:
		return p.Estimate
	case GroupCustomer:
		return p.Customer
	case GroupLocation:
		return p.Location
	case GroupVendor:
		return p.Vendor
	case GroupTotals:
		return p.Totals
	case GroupOther:
		return p.Other
	}
	return nil
}

// Add appends an entry to a group. Unknown groups land in other.
func (p *ParsedNote) Add(g Group, e Entry) {
	switch g {
	case GroupEstimate:
		p.Estimate = append(p.Estimate, e)
	case GroupCustomer:
		p.Customer = append(p.Customer, e)
	case GroupLocation:
		p.Location = append(p.Location, e)
	case GroupVendor:
		p.Vendor = append(p.Vendor, e)
	case GroupTotals:
		p.Totals = append(p.Totals, e)
	default:
		p.Other = append(p.Other, e)
	}
}

// Lookup finds the first entry carrying label, searching groups in order.
func (p *ParsedNote) Lookup(label string) (Entry, bool) {
	for _, g := range Groups {
		for _, e := range p.Entries(g) {
			if e.Label == label {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// IsEmpty reports whether nothing was extracted.
func (p *ParsedNote) IsEmpty() bool {
	for _, g := range Groups {
		if len(p.Entries(g)) > 0 {
			return false
		}
	}
	return len(p.LineItems) == 0
}
