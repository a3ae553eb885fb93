package invoice

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// LineItem is an extracted item before it gets an id and a category.
type LineItem struct {
	Name  string
	Price float64
}

var (
	// <name> <qty> $<unit price> $<gross price>
	reTableRow = mustCompileText(`(.+?)\s+(\d+)\s+\$([\d,]+\.\d+)\s+\$([\d,]+\.\d+)`)

	reItemsMarker   = regexp.MustCompile(`(?i)ITEMS`)
	reSummaryMarker = regexp.MustCompile(`(?i)SUMMARY`)
	reItemNumber    = mustCompileText(`\s\d+\.\s`)
	reDecimal       = mustCompileText(`\d+[.,]\d+`)
	rePercent       = mustCompileText(`\d+%`)
	reNumber        = mustCompileText(`\d+[.,]?\d*`)
	reEach          = regexp.MustCompile(`\beach\b`)
	reSpaces        = mustCompileText(`\s{2,}`)
)

// Items extracts line items. Table rows win; the ITEMS..SUMMARY block is
// only read when no table row matched.
func Items(text string) []LineItem {
	if items := tableRowItems(text); len(items) > 0 {
		return items
	}
	return blockItems(text)
}

func tableRowItems(text string) []LineItem {
	var items []LineItem
	for _, m := range reTableRow.FindAllStringSubmatch(text, -1) {
		price, err := parseAmount(m[4])
		if err != nil {
			continue
		}
		items = append(items, LineItem{Name: strings.TrimSpace(m[1]), Price: price})
	}
	return items
}

// blockItems reads free running OCR text between the ITEMS and SUMMARY
// markers, one item per "N. " marker. The last decimal of each chunk is its
// gross price.
func blockItems(text string) []LineItem {
	start := reItemsMarker.FindStringIndex(text)
	end := reSummaryMarker.FindStringIndex(text)
	if start == nil || end == nil {
		return nil
	}
	var block string
	if start[1] <= end[0] {
		block = text[start[1]:end[0]]
	}
	block = collapseSpace(block)

	var items []LineItem
	for _, chunk := range reItemNumber.Split(block, -1) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		numbers := reDecimal.FindAllString(chunk, -1)
		if len(numbers) == 0 {
			continue
		}
		price, err := strconv.ParseFloat(asciiDigits(strings.ReplaceAll(numbers[len(numbers)-1], ",", ".")), 64)
		if err != nil {
			continue
		}
		items = append(items, LineItem{Name: cleanItemName(chunk), Price: price})
	}
	return items
}

func cleanItemName(chunk string) string {
	name := rePercent.ReplaceAllString(chunk, "")
	name = reNumber.ReplaceAllString(name, "")
	name = reEach.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	return reSpaces.ReplaceAllString(name, " ")
}

// collapseSpace replaces every run of unicode whitespace with one space.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
