// notes/clean.go
package notes

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var ocrReplacer = strings.NewReplacer(
	"\u00a0", " ", // no-break space
	"\ufeff", "",  // byte order mark
	"\u200b", "",  // zero width space
	"\r\n", "\n",
	"\r", "\n",
)

// Clean folds compatibility characters (full-width digits, ligatures, the
// "№" sign) to their plain forms and strips invisible characters that OCR
// output tends to carry. Parse does not call it; callers opt in.
func Clean(text string) string {
	if text == "" {
		return text
	}
	return ocrReplacer.Replace(norm.NFKC.String(text))
}
