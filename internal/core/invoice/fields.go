// Package invoice turns raw OCR or PDF text into invoice records.
//
// Every extractor is best effort: when nothing matches it returns the
// constants.Unknown sentinel (or 0 for amounts) instead of an error.
package invoice

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/invoices-tracker/constants"
)

// matcher is one strategy of a field extractor chain.
type matcher func(text string) (string, bool)

// unicodeSpace is unicode whitespace including NBSP and the line
// separators splitLines breaks on. RE2's \s is ASCII only.
const unicodeSpace = `[\s\v\p{Z}\x{85}\x{1c}-\x{1f}]`

var textClasses = strings.NewReplacer(`\s`, unicodeSpace, `\d`, `\p{Nd}`)

// mustCompileText compiles pattern with \s and \d widened to their unicode
// classes. \s must not appear inside a bracket expression.
func mustCompileText(pattern string) *regexp.Regexp {
	return regexp.MustCompile(textClasses.Replace(pattern))
}

var (
	reHashNumber    = mustCompileText(`#\s*(\d+)`)
	reInvoiceNumber = mustCompileText(`(?i)Invoice\s*no[:\-]?\s*(\d+)`)

	reSellerBlock = mustCompileText(`(?i)Seller:\s*\n(.+)`)

	reDateWords   = mustCompileText(`[A-Za-z]{3}\s\d{1,2}\s\d{4}`)
	reDateNumeric = mustCompileText(`\d{2}/\d{2}/\d{4}`)

	reTotal      = mustCompileText(`Total:\s*\$?([\d,]+\.\d+)`)
	reBalanceDue = mustCompileText(`Balance Due:\s*\$?([\d,]+\.\d+)`)
)

var (
	invoiceNoChain = []matcher{group(reHashNumber, 1), group(reInvoiceNumber, 1)}
	vendorChain    = []matcher{vendorBelowInvoiceHeading, trimmed(group(reSellerBlock, 1))}
	dateChain      = []matcher{group(reDateWords, 0), group(reDateNumeric, 0)}
	totalChain     = []matcher{group(reTotal, 1), group(reBalanceDue, 1)}
)

// group matches re and returns capture group n of the first match.
func group(re *regexp.Regexp, n int) matcher {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		return m[n], true
	}
}

func trimmed(m matcher) matcher {
	return func(text string) (string, bool) {
		v, ok := m(text)
		return strings.TrimSpace(v), ok
	}
}

func firstMatch(text string, chain []matcher) (string, bool) {
	for _, m := range chain {
		if v, ok := m(text); ok {
			return v, true
		}
	}
	return "", false
}

// InvoiceNumber returns the digits after a "#" or an "Invoice no" label.
func InvoiceNumber(text string) string {
	if v, ok := firstMatch(text, invoiceNoChain); ok {
		return v
	}
	return constants.Unknown
}

// Vendor returns the line two below the first "INVOICE" heading, or the line
// after a "Seller:" label. The heading rule wins even when that line is blank.
func Vendor(text string) string {
	if v, ok := firstMatch(text, vendorChain); ok {
		return v
	}
	return constants.Unknown
}

func vendorBelowInvoiceHeading(text string) (string, bool) {
	lines := splitLines(text)
	for i, line := range lines {
		if strings.Contains(strings.ToUpper(line), "INVOICE") && i+2 < len(lines) {
			return strings.TrimSpace(lines[i+2]), true
		}
	}
	return "", false
}

// Date returns the first "Mon D YYYY" or "DD/MM/YYYY" shaped string as written.
func Date(text string) string {
	if v, ok := firstMatch(text, dateChain); ok {
		return v
	}
	return constants.Unknown
}

// Total returns the amount after "Total:" or "Balance Due:", or 0.
func Total(text string) float64 {
	for _, m := range totalChain {
		v, ok := m(text)
		if !ok {
			continue
		}
		if f, err := parseAmount(v); err == nil {
			return f
		}
	}
	return 0
}

// parseAmount parses a dollar amount with comma thousands separators.
func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(asciiDigits(strings.ReplaceAll(s, ",", "")), 64)
}

// asciiDigits maps every unicode decimal digit to its ASCII counterpart.
func asciiDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf {
			return r
		}
		if v, ok := digitValue(r); ok {
			return '0' + v
		}
		return r
	}, s)
}

// digitValue relies on Nd ranges being runs of whole 0..9 sets, so every
// range starts at a zero.
func digitValue(r rune) (rune, bool) {
	for _, rg := range unicode.Nd.R16 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi && rg.Stride == 1 {
			return (r - lo) % 10, true
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi && rg.Stride == 1 {
			return (r - lo) % 10, true
		}
	}
	return 0, false
}

// splitLines splits on every universal line boundary. A trailing boundary
// does not produce an empty last line.
func splitLines(text string) []string {
	var (
		lines []string
		start int
	)
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isLineBreak(r) {
			i += size
			continue
		}
		lines = append(lines, text[start:i])
		i += size
		if r == '\r' && i < len(text) && text[i] == '\n' {
			i++
		}
		start = i
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
