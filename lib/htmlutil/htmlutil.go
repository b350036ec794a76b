package htmlutil

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"spotifier-core/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText concatenates the raw text nodes under node.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// Text returns the collapsed text content of every node in sel.
func Text(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		getTextRecursive(n, &buffer)
		buffer.WriteByte(' ')
	}
	return textutil.CollapseSpace(buffer.String())
}

// Attr returns the trimmed value of the attribute on the first node of sel.
func Attr(sel *goquery.Selection, name string) string {
	value, _ := sel.Attr(name)
	return strings.TrimSpace(value)
}

// TrailingSegment returns the last non-empty path segment of href, so both
// "/mhs/topik/12/34" and "/mhs/topik/12/34/" yield "34".
func TrailingSegment(href string) string {
	link, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	segment := path.Base(strings.TrimRight(link.Path, "/"))
	if segment == "." || segment == "/" {
		return ""
	}
	return segment
}

// Resolve makes href absolute against base. an unparseable href is
// returned unchanged.
func Resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	link, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(link).String()
}
