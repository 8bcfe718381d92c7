package render

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// htmlPolicy allows exactly the tags the pipeline produces.
var htmlPolicy = newHTMLPolicy()

func newHTMLPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "em", "code", "pre", "h1", "h2", "h3", "ul", "ol", "li")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[A-Za-z0-9_+#.-]+$`)).OnElements("code")
	return p
}

func sanitize(d *document) {
	d.text = htmlPolicy.Sanitize(d.text)
}
