package checks

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"webcheck/internal/htmldoc"
	"webcheck/internal/outline"
	"webcheck/internal/report"
)

var (
	semanticTags     = []string{"nav", "article", "aside", "figure", "blockquote", "q", "cite", "address"}
	validationAttrs  = []string{"required", "minlength", "maxlength", "min", "max", "step", "pattern"}
	utfCharset       = regexp.MustCompile(`(?i)^utf-`)
	wordChar         = regexp.MustCompile(`\w`)
	formInputsSelect = "input, select, textarea"
)

type htmlCheck struct {
	doc  *htmldoc.Document
	q    *goquery.Document
	file string
	out  []report.Finding
}

func (c *htmlCheck) add(check, severity string, n *html.Node, subject, msg string) {
	line := 0
	if n != nil {
		line = c.doc.Line(n)
	}
	c.out = append(c.out, report.NewFinding(c.file, report.CategoryHTML, check, severity, line, 0, subject, msg))
}

func node(sel *goquery.Selection) *html.Node {
	if len(sel.Nodes) == 0 {
		return nil
	}
	return sel.Nodes[0]
}

// checkHTML runs the convention checks of one HTML document. The
// informational checks only run when full is set.
func checkHTML(file string, doc *htmldoc.Document, full bool) []report.Finding {
	c := &htmlCheck{doc: doc, q: doc.Query(), file: file}

	htmlSel := c.q.Find("html").First()
	bodySel := htmlSel.Find("body").First()
	root := node(htmlSel)
	head := node(htmlSel.Find("head").First())
	body := node(bodySel)
	if !c.baseStructure(root, head, body) {
		return c.out
	}

	c.outsideBody(root)
	c.main()
	c.nestedArticles()
	c.tags("forbidden-tags", report.SeverityError, "b, i, u, hr", "<%s> is not allowed")
	c.tags("semi-forbidden-tags", report.SeverityInfo, "div, span, br", "<%s> has no semantic meaning")
	c.imageScaling()

	if full {
		c.pageTitleAndH1(head, bodySel)
		c.imageAlt()
		c.formInputTypes()
		c.formInputName()
		c.formInputValidation()
	}
	return c.out
}

// baseStructure reports whether html, head and body are all present.
func (c *htmlCheck) baseStructure(root, head, body *html.Node) bool {
	const check = "base-structure"
	switch {
	case root == nil:
		c.add(check, report.SeverityError, nil, "html", "missing <html> element")
		return false
	case head == nil:
		c.add(check, report.SeverityError, root, "head", "missing <head> element")
		return false
	case body == nil:
		c.add(check, report.SeverityError, root, "body", "missing <body> element")
		return false
	}

	if _, ok := htmldoc.Attr(root, "lang"); !ok {
		c.add(check, report.SeverityError, root, "lang", "lang attribute missing on <html>")
	}
	hasCharset := false
	for n := head.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != html.ElementNode || n.Data != "meta" {
			continue
		}
		charset, ok := htmldoc.Attr(n, "charset")
		if !ok {
			continue
		}
		hasCharset = true
		if !utfCharset.MatchString(charset) {
			c.add(check, report.SeverityError, n, "charset", fmt.Sprintf("charset %q is not UTF", charset))
		}
	}
	if !hasCharset {
		c.add(check, report.SeverityError, head, "charset", "charset missing")
	}
	return true
}

func (c *htmlCheck) outsideBody(root *html.Node) {
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.Data != "head" && n.Data != "body" {
			c.add("outside-body", report.SeverityError, n, n.Data, htmldoc.StartTag(n)+" outside <head> and <body>")
		}
	}
}

func (c *htmlCheck) main() {
	mains := c.q.Find("main")
	if mains.Length() == 0 {
		c.add("main", report.SeverityError, nil, "main", "missing <main>")
		return
	}
	mains.Each(func(i int, s *goquery.Selection) {
		if i == 0 {
			return
		}
		c.add("main", report.SeverityError, s.Nodes[0], "main", "multiple <main> elements")
	})
}

func (c *htmlCheck) nestedArticles() {
	c.q.Find("article article").Each(func(_ int, s *goquery.Selection) {
		c.add("nested-articles", report.SeverityError, s.Nodes[0], "article", "<article> nested in another <article>")
	})
}

func (c *htmlCheck) tags(check, severity, selector, format string) {
	c.q.Find(selector).Each(func(_ int, s *goquery.Selection) {
		n := s.Nodes[0]
		c.add(check, severity, n, n.Data, fmt.Sprintf(format, n.Data))
	})
}

func (c *htmlCheck) imageScaling() {
	seen := map[int]bool{}
	c.q.Find("img[width], img[height]").Each(func(_ int, s *goquery.Selection) {
		n := s.Nodes[0]
		line := c.doc.Line(n)
		if seen[line] {
			return
		}
		seen[line] = true
		c.add("image-scaling", report.SeverityError, n, "img", htmldoc.StartTag(n)+" is scaled in HTML")
	})
}

func (c *htmlCheck) formInputName() {
	c.q.Find(formInputsSelect).Each(func(_ int, s *goquery.Selection) {
		n := s.Nodes[0]
		if n.Data == "input" {
			if t, _ := htmldoc.Attr(n, "type"); t == "submit" || t == "reset" {
				return
			}
		}
		if name, _ := htmldoc.Attr(n, "name"); name == "" {
			c.add("form-input-name", report.SeverityWarning, n, n.Data, htmldoc.StartTag(n)+" has no name")
		}
	})
}

func (c *htmlCheck) pageTitleAndH1(head *html.Node, body *goquery.Selection) {
	const check = "page-title-h1"
	for n := head.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.Data == "title" {
			c.add(check, report.SeverityInfo, n, "title", htmldoc.Render(n))
			break
		}
	}
	if h1 := node(body.Find("h1").First()); h1 != nil {
		c.add(check, report.SeverityInfo, h1, "h1", htmldoc.Render(h1))
	}
}

func (c *htmlCheck) imageAlt() {
	c.q.Find("img").Each(func(_ int, s *goquery.Selection) {
		n := s.Nodes[0]
		c.add("image-alt", report.SeverityInfo, n, "img", htmldoc.StartTag(n))
	})
}

func (c *htmlCheck) formInputTypes() {
	counts := newCounter()
	c.q.Find(formInputsSelect).Each(func(_ int, s *goquery.Selection) {
		n := s.Nodes[0]
		key := n.Data
		if key == "input" {
			t, ok := htmldoc.Attr(n, "type")
			if !ok {
				t = "text"
			}
			key = "input_" + strings.ToLower(t)
		}
		counts.add(key)
	})
	counts.each(func(key string, n int) {
		c.add("form-input-types", report.SeverityInfo, nil, key, fmt.Sprintf("%s: %d", key, n))
	})
}

func (c *htmlCheck) formInputValidation() {
	counts := newCounter()
	c.q.Find(formInputsSelect).Each(func(_ int, s *goquery.Selection) {
		for _, attr := range validationAttrs {
			if _, ok := htmldoc.Attr(s.Nodes[0], attr); ok {
				counts.add(attr)
			}
		}
	})
	counts.each(func(key string, n int) {
		c.add("form-input-validation", report.SeverityInfo, nil, key, fmt.Sprintf("%s: %d", key, n))
	})
}

// counter counts keys in first-seen order.
type counter struct {
	keys   []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key]++
}

func (c *counter) each(fn func(key string, n int)) {
	for _, k := range c.keys {
		fn(k, c.counts[k])
	}
}

var outlineMessages = map[outline.ErrorKind]string{
	outline.Untitled:         "sectioning element without a heading of its own",
	outline.LevelConflict:    "heading level does not match the sectioning depth",
	outline.MultipleHeadings: "sectioning element with more than one heading",
}

func checkOutline(file string, doc *htmldoc.Document) []report.Finding {
	var out []report.Finding
	for _, e := range outline.Validate(outline.Skeleton(doc)).Errors() {
		out = append(out, report.NewFinding(file, report.CategoryOutline, e.Kind.String(), report.SeverityError,
			e.Line, 0, "", outlineMessages[e.Kind]))
	}
	return out
}

// checkInlineScripts reports inline <script> code and on* event attributes.
func checkInlineScripts(file string, doc *htmldoc.Document) []report.Finding {
	var out []report.Finding
	q := doc.Query()

	q.Find("script").Each(func(_ int, s *goquery.Selection) {
		n := s.Nodes[0]
		if wordChar.MatchString(htmldoc.Text(n)) {
			out = append(out, report.NewFinding(file, report.CategoryJS, "intern-script", report.SeverityWarning,
				doc.Line(n), 0, "script", "inline <script> code"))
		}
	})

	q.Find("*").Each(func(_ int, s *goquery.Selection) {
		n := s.Nodes[0]
		var attrs []string
		for _, a := range n.Attr {
			if strings.HasPrefix(a.Key, "on") {
				attrs = append(attrs, fmt.Sprintf("%s=%q", a.Key, a.Val))
			}
		}
		if len(attrs) > 0 {
			out = append(out, report.NewFinding(file, report.CategoryJS, "event-attribute", report.SeverityWarning,
				doc.Line(n), 0, n.Data, "<"+n.Data+" "+strings.Join(attrs, " ")+">"))
		}
	})
	return out
}
