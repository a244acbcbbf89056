// notes/parser.go

// Package notes turns the free-text notes stored on a contact (usually OCR'd
// estimate forms) into a domain.ParsedNote.
//
// The parser is a rule-based line scanner. Each line either opens a field
// ("Total: $450.00", "Name Address:" or a bare "Job Location"), or is held in
// a leftover buffer that becomes an "Additional Details" entry once the next
// field starts or the text ends. It never fails and keeps no state between
// calls.
package notes

import (
	"strings"

	"github.com/ViniZap4/lumi-estimates/domain"
)

// LeftoverLabel labels the entry built from unrecognized lines.
const LeftoverLabel = "Additional Details"

// ParseContactNotes parses notes; a nil pointer yields an empty result.
func ParseContactNotes(notes *string) domain.ParsedNote {
	if notes == nil {
		return domain.NewParsedNote()
	}
	return Parse(*notes)
}

// Parse extracts grouped fields and line items from text.
func Parse(text string) domain.ParsedNote {
	lines := SplitLines(text)
	b := newBuilder()

	for i := 0; i < len(lines); {
		line := lines[i]

		if label, inline, ok := splitKeyValue(line); ok {
			b.flushLeftover()
			meta, known := Classify(label)
			if inline != "" {
				b.add(metaOrNil(meta, known), label, []string{inline})
				i++
				continue
			}
			collected, next := collectValues(lines, i+1)
			b.add(metaOrNil(meta, known), label, collected)
			i = next
			continue
		}

		header := stripTrailingColons(line)
		if meta, ok := Classify(header); ok {
			b.flushLeftover()
			collected, next := collectValues(lines, i+1)
			b.add(&meta, header, collected)
			i = next
			continue
		}

		b.leftover = append(b.leftover, line)
		i++
	}

	b.flushLeftover()
	return b.note
}

// collectValues gathers lines from start up to the next field boundary and
// returns them with the index of the first line it did not consume.
func collectValues(lines []string, start int) ([]string, int) {
	var collected []string
	i := start
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if isFieldBoundary(line) {
			break
		}
		collected = append(collected, line)
	}
	return collected, i
}

func metaOrNil(meta FieldMeta, ok bool) *FieldMeta {
	if !ok {
		return nil
	}
	return &meta
}

type builder struct {
	note     domain.ParsedNote
	leftover []string
}

func newBuilder() *builder {
	return &builder{note: domain.NewParsedNote()}
}

func (b *builder) flushLeftover() {
	if len(b.leftover) == 0 {
		return
	}
	b.note.Add(domain.GroupOther, domain.Entry{
		Label: LeftoverLabel,
		Value: domain.ListValue(b.leftover...),
	})
	b.leftover = nil
}

// add records one field. meta is nil for labels outside the field table, in
// which case fallbackLabel is used and the entry goes to the other group.
func (b *builder) add(meta *FieldMeta, fallbackLabel string, values []string) {
	if meta != nil && meta.LineItems {
		b.note.LineItems = append(b.note.LineItems, values...)
		return
	}

	label := fallbackLabel
	group := domain.GroupOther
	multiLine := false
	if meta != nil {
		label = meta.Label
		group = meta.Group
		multiLine = meta.MultiLine
	}
	if label == "" {
		return
	}

	var value domain.Value
	switch {
	case multiLine || len(values) > 1:
		value = domain.ListValue(values...)
	case len(values) == 1:
		value = domain.TextValue(values[0])
	default:
		value = domain.TextValue("")
	}
	if value.IsEmpty() {
		return
	}

	b.note.Add(group, domain.Entry{Label: label, Value: value})
}
