package render

import (
	"regexp"
	"strings"
)

var (
	fencedCodePattern  = regexp.MustCompile("(?s)```([A-Za-z0-9_+#.-]*)[ \t]*\n(.*?)\n?```")
	inlineCodePattern  = regexp.MustCompile("`([^`\n]+)`")
	boldPattern        = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicPattern      = regexp.MustCompile(`\*([^\s*][^*\n]*?)\*`)
	headingPattern     = regexp.MustCompile(`(?m)^(#{1,3})[ \t]+(.+?)[ \t]*$`)
	unorderedItem      = regexp.MustCompile(`^[ \t]*[-*][ \t]+(.+)$`)
	orderedItem        = regexp.MustCompile(`^[ \t]*\d+\.[ \t]+(.+)$`)
	paragraphSeparator = regexp.MustCompile(`\n\s*\n`)
)

// blockTags open every block produced before the paragraph stage.
var blockTags = []string{"<h1>", "<h2>", "<h3>", "<ul>", "<ol>", "<pre>"}

func fencedCode(d *document) {
	d.text = fencedCodePattern.ReplaceAllStringFunc(d.text, func(m string) string {
		sub := fencedCodePattern.FindStringSubmatch(m)
		open := "<code>"
		if sub[1] != "" {
			open = `<code class="language-` + sub[1] + `">`
		}
		return "\n\n" + d.protect(slotBlock, "<pre>"+open+sub[2]+"</code></pre>") + "\n\n"
	})
}

func inlineCode(d *document) {
	d.text = inlineCodePattern.ReplaceAllStringFunc(d.text, func(m string) string {
		sub := inlineCodePattern.FindStringSubmatch(m)
		return d.protect(slotInline, "<code>"+sub[1]+"</code>")
	})
}

func bold(d *document) {
	d.text = boldPattern.ReplaceAllString(d.text, "<strong>$1</strong>")
}

func italic(d *document) {
	d.text = italicPattern.ReplaceAllString(d.text, "<em>$1</em>")
}

func headings(d *document) {
	d.text = headingPattern.ReplaceAllStringFunc(d.text, func(m string) string {
		sub := headingPattern.FindStringSubmatch(m)
		tag := "h" + string(rune('0'+len(sub[1])))
		return "\n\n<" + tag + ">" + sub[2] + "</" + tag + ">\n\n"
	})
}

func unorderedLists(d *document) {
	d.text = wrapList(d.text, unorderedItem, "ul")
}

func orderedLists(d *document) {
	d.text = wrapList(d.text, orderedItem, "ol")
}

// wrapList turns runs of consecutive item lines into one list block,
// separated from the surrounding text by blank lines.
func wrapList(text string, item *regexp.Regexp, tag string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	var items []string

	flush := func() {
		if len(items) == 0 {
			return
		}
		out = append(out, "", "<"+tag+">"+strings.Join(items, "")+"</"+tag+">", "")
		items = nil
	}

	for _, line := range lines {
		if sub := item.FindStringSubmatch(line); sub != nil {
			items = append(items, "<li>"+strings.TrimSpace(sub[1])+"</li>")
			continue
		}
		flush()
		out = append(out, line)
	}
	flush()

	return strings.Join(out, "\n")
}

func paragraphs(d *document) {
	blocks := paragraphSeparator.Split(d.text, -1)
	out := make([]string, 0, len(blocks))

	for _, block := range blocks {
		block = strings.Trim(block, " \t\n")
		if block == "" {
			continue
		}
		if isBlock(block) {
			out = append(out, block)
			continue
		}
		out = append(out, "<p>"+strings.ReplaceAll(block, "\n", "<br>")+"</p>")
	}

	d.text = strings.Join(out, "\n")
}

func isBlock(block string) bool {
	if isBlockPlaceholder(block) {
		return true
	}
	for _, tag := range blockTags {
		if strings.HasPrefix(block, tag) {
			return true
		}
	}
	return false
}
