package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reBarcodeJunk    = regexp.MustCompile(`[^0-9A-Za-z-]+`)
	reShelfSeparator = regexp.MustCompile(`[\s._]+`)
	reMultiDash      = regexp.MustCompile(`-+`)
)

func trimAndUpper(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToUpper(s)
	return s
}

func collapseDashes(s string) string {
	s = reMultiDash.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NormalizeBarcode cleans a scanned barcode before lookup. Scanners
// occasionally emit surrounding whitespace or stray separators.
func NormalizeBarcode(input string) string {
	p := Pipeline{
		trimAndUpper,
		func(s string) string { return reBarcodeJunk.ReplaceAllString(s, "") },
	}
	return p.Apply(input)
}

// NormalizeShelfLocation maps "3 . B . 12", "3_b_12" and "3-B-12" to the
// same canonical "3-B-12" form.
func NormalizeShelfLocation(input string) string {
	p := Pipeline{
		trimAndUpper,
		func(s string) string { return reShelfSeparator.ReplaceAllString(s, "-") },
		collapseDashes,
	}
	return p.Apply(input)
}
