package render

import (
	"strings"
	"testing"

	"github.com/diogo/finking/internal/models"
)

func TestMessageUserIsEscaped(t *testing.T) {
	input := `<script>alert("x")</script> & 'quotes' **not bold**`
	got := Message(models.RoleUser, input)

	want := "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt; &amp; &#39;quotes&#39; **not bold**"
	if got != want {
		t.Errorf("Message(user) = %q, want %q", got, want)
	}
	for _, bad := range []string{"<", ">", `"`, "'"} {
		if strings.Contains(got, bad) {
			t.Errorf("user output contains %q: %s", bad, got)
		}
	}
}

func TestMessageAssistantNeverEmitsInputMarkup(t *testing.T) {
	inputs := []string{
		`<script>alert(1)</script>`,
		`<img src=x onerror=alert(1)>`,
		"**<b>bold</b>**",
		"```\n<iframe></iframe>\n```",
		"`<a href=\"javascript:x\">`",
		"# <h1>title</h1>",
	}

	for _, input := range inputs {
		got := Message(models.RoleAssistant, input)
		for _, bad := range []string{"<script", "<img", "<b>", "<iframe", "<a ", "<h1><h1>"} {
			if strings.Contains(got, bad) {
				t.Errorf("HTML(%q) = %q contains %q", input, got, bad)
			}
		}
	}
}

func TestHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "whitespace only", input: "  \n\n ", want: ""},
		{name: "plain text", input: "Hello world", want: "<p>Hello world</p>"},
		{name: "bold", input: "**bold**", want: "<p><strong>bold</strong></p>"},
		{name: "italic", input: "an *italic* word", want: "<p>an <em>italic</em> word</p>"},
		{name: "unmatched star", input: "a * b", want: "<p>a * b</p>"},
		{name: "single star", input: "5*3", want: "<p>5*3</p>"},
		{name: "unterminated bold", input: "**open", want: "<p>**open</p>"},
		{name: "inline code", input: "use `go test` now", want: "<p>use <code>go test</code> now</p>"},
		{name: "bold inside code is literal", input: "`**x**`", want: "<p><code>**x**</code></p>"},
		{name: "heading 1", input: "# Title", want: "<h1>Title</h1>"},
		{name: "heading 2", input: "## Sub", want: "<h2>Sub</h2>"},
		{name: "heading 3", input: "### Small", want: "<h3>Small</h3>"},
		{name: "heading 4 is not a heading", input: "#### Tiny", want: "<p>#### Tiny</p>"},
		{name: "line breaks", input: "one\ntwo", want: "<p>one<br>two</p>"},
		{name: "paragraphs", input: "one\n\ntwo", want: "<p>one</p>\n<p>two</p>"},
		{name: "crlf", input: "one\r\n\r\ntwo", want: "<p>one</p>\n<p>two</p>"},
		{
			name:  "unordered list",
			input: "- a\n* b",
			want:  "<ul><li>a</li><li>b</li></ul>",
		},
		{
			name:  "ordered list",
			input: "1. first\n2. second",
			want:  "<ol><li>first</li><li>second</li></ol>",
		},
		{
			name:  "list after text",
			input: "Points:\n- **one**\n- two\nDone",
			want:  "<p>Points:</p>\n<ul><li><strong>one</strong></li><li>two</li></ul>\n<p>Done</p>",
		},
		{
			name:  "fenced code",
			input: "```go\nfmt.Println(\"*hi*\")\n```",
			want:  "<pre><code class=\"language-go\">fmt.Println(&#34;*hi*&#34;)</code></pre>",
		},
		{
			name:  "fenced code keeps blank lines",
			input: "```\na\n\n- b\n```",
			want:  "<pre><code>a\n\n- b</code></pre>",
		},
		{
			name:  "fenced code between text",
			input: "Run:\n```\nmake\n```\nthen wait",
			want:  "<p>Run:</p>\n<pre><code>make</code></pre>\n<p>then wait</p>",
		},
		{
			name:  "unterminated fence stays literal",
			input: "```go\nno end",
			want:  "<p>```go<br>no end</p>",
		},
		{
			name:  "marker text",
			input: "⚠️ Message cannot be empty.",
			want:  "<p>⚠️ Message cannot be empty.</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTML(tt.input); got != tt.want {
				t.Errorf("HTML(%q) =\n%q\nwant\n%q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHTMLStripsSlotRunes(t *testing.T) {
	// Placeholder runes in the input must not reach the restore stage.
	got := HTML("a\uE000B0\uE001b")
	if got != "<p>aB0b</p>" {
		t.Errorf("HTML() = %q, want %q", got, "<p>aB0b</p>")
	}
}

func TestStagesOrder(t *testing.T) {
	names := Stages()
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}

	order := [][2]string{
		{"escape", "fenced-code"},
		{"fenced-code", "inline-code"},
		{"inline-code", "bold"},
		{"bold", "italic"},
		{"italic", "headings"},
		{"headings", "unordered-lists"},
		{"unordered-lists", "paragraphs"},
		{"ordered-lists", "paragraphs"},
		{"paragraphs", "restore"},
		{"restore", "sanitize"},
	}
	for _, pair := range order {
		if index[pair[0]] >= index[pair[1]] {
			t.Errorf("stage %s must run before %s", pair[0], pair[1])
		}
	}
}

func TestFencedCodeStage(t *testing.T) {
	d := &document{text: "x\n```py\nprint(1)\n```\ny"}
	fencedCode(d)

	if len(d.slots) != 1 {
		t.Fatalf("expected 1 protected slot, got %d", len(d.slots))
	}
	if d.slots[0] != `<pre><code class="language-py">print(1)</code></pre>` {
		t.Errorf("slot = %q", d.slots[0])
	}
	if strings.Contains(d.text, "print") {
		t.Errorf("code should be replaced by a placeholder, got %q", d.text)
	}
}

func TestInlineCodeStage(t *testing.T) {
	d := &document{text: "a `b` c `d`"}
	inlineCode(d)

	if len(d.slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(d.slots))
	}
	restore(d)
	if d.text != "a <code>b</code> c <code>d</code>" {
		t.Errorf("text = %q", d.text)
	}
}

func TestWrapList(t *testing.T) {
	got := wrapList("- a\n- b\ntext\n- c", unorderedItem, "ul")
	want := "\n<ul><li>a</li><li>b</li></ul>\n\ntext\n\n<ul><li>c</li></ul>\n"
	if got != want {
		t.Errorf("wrapList() = %q, want %q", got, want)
	}
}

func TestParagraphStageSkipsBlocks(t *testing.T) {
	d := &document{text: "<h2>T</h2>\n\nbody\n\n<ol><li>x</li></ol>"}
	paragraphs(d)

	want := "<h2>T</h2>\n<p>body</p>\n<ol><li>x</li></ol>"
	if d.text != want {
		t.Errorf("paragraphs() = %q, want %q", d.text, want)
	}
}

func TestEscape(t *testing.T) {
	if got := Escape(""); got != "" {
		t.Errorf("Escape(\"\") = %q", got)
	}
	if got := Escape("a<b"); got != "a&lt;b" {
		t.Errorf("Escape() = %q", got)
	}
}
