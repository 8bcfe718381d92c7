package render

import (
	"regexp"
	"strconv"
	"strings"
)

// Private-use runes delimit protected slots inside the document text.
// Input is stripped of them before any stage runs.
const (
	slotOpen  = '\uE000'
	slotClose = '\uE001'

	slotBlock  = 'B'
	slotInline = 'I'
)

var slotPattern = regexp.MustCompile("\uE000([BI])(\\d+)\uE001")

// document is the text flowing through the pipeline plus the HTML
// fragments that later stages must not touch.
type document struct {
	text  string
	slots []string
}

// protect stores fragment and returns the placeholder that stands for it.
func (d *document) protect(kind rune, fragment string) string {
	d.slots = append(d.slots, fragment)

	var sb strings.Builder
	sb.WriteRune(slotOpen)
	sb.WriteRune(kind)
	sb.WriteString(strconv.Itoa(len(d.slots) - 1))
	sb.WriteRune(slotClose)
	return sb.String()
}

func isBlockPlaceholder(s string) bool {
	m := slotPattern.FindStringSubmatchIndex(s)
	return m != nil && m[0] == 0 && m[1] == len(s) && s[m[2]] == slotBlock
}

func normalize(d *document) {
	text := strings.ReplaceAll(d.text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	d.text = strings.Map(func(r rune) rune {
		if r == slotOpen || r == slotClose {
			return -1
		}
		return r
	}, text)
}

func restore(d *document) {
	d.text = slotPattern.ReplaceAllStringFunc(d.text, func(m string) string {
		sub := slotPattern.FindStringSubmatch(m)
		idx, err := strconv.Atoi(sub[2])
		if err != nil || idx >= len(d.slots) {
			return ""
		}
		return d.slots[idx]
	})
}
