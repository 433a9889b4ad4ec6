package htmldoc

import (
	"strings"
	"testing"
)

func TestRenderEscapesText(t *testing.T) {
	doc := NewDocument("A <title>", "style.css")
	div := NewNode("div").AddClass("container")
	div.AppendChild(NewNode("p").SetText(`3 < 4 & "quoted"`))
	doc.AppendChild(div)

	out := string(doc.Render())
	if !strings.Contains(out, "<title>A &lt;title&gt;</title>") {
		t.Fatalf("title not escaped:\n%s", out)
	}
	if !strings.Contains(out, "3 &lt; 4 &amp; &#34;quoted&#34;") {
		t.Fatalf("text not escaped:\n%s", out)
	}
	if !strings.Contains(out, `<link rel="stylesheet" href="style.css">`) {
		t.Fatalf("stylesheet link missing:\n%s", out)
	}
}

func TestSetHTMLRendersVerbatim(t *testing.T) {
	doc := NewDocument("t")
	doc.AppendChild(NewNode("p").SetHTML("a &rsquo; b"))
	if out := string(doc.Render()); !strings.Contains(out, "a &rsquo; b") {
		t.Fatalf("raw markup was escaped:\n%s", out)
	}
}

func TestByClassFindsNestedNodes(t *testing.T) {
	doc := NewDocument("t")
	header := NewNode("div").AddClass("header")
	doc.AppendChild(header)
	outer := NewNode("div").AddClass("container")
	inner := NewNode("div").AddClass("chat selected")
	outer.AppendChild(inner)
	doc.AppendChild(outer)

	if got := doc.ByClass("header"); len(got) != 1 || got[0] != header {
		t.Fatalf("expected the header node, got %v", got)
	}
	if got := doc.ByClass("chat"); len(got) != 1 || got[0] != inner {
		t.Fatalf("class list match failed, got %v", got)
	}
	if got := doc.ByClass("missing"); len(got) != 0 {
		t.Fatalf("expected no match, got %d", len(got))
	}
}

func TestAddClassDoesNotDuplicate(t *testing.T) {
	n := NewNode("div").AddClass("nav").AddClass("nav")
	if got := n.Attr("class"); got != "nav" {
		t.Fatalf("class duplicated: %q", got)
	}
}

func TestVoidTagsSelfClose(t *testing.T) {
	doc := NewDocument("t")
	doc.AppendChild(NewNode("img").SetAttr("src", "x.png"))
	out := string(doc.Render())
	if strings.Contains(out, "</img>") {
		t.Fatalf("img should not have a closing tag:\n%s", out)
	}
}
