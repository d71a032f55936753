// Package document wraps the HTML engine behind the narrow tree-handle
// contract the pipeline needs: query by selector, attribute read/write,
// child manipulation, node replacement, and full-document serialization.
// Method names map into the script runtime with a lowercased first
// letter (find, setText, attr, ...).
package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is an opaque mutable tree handle for one parsed HTML document.
type Document struct {
	doc *goquery.Document
}

// Parse builds a Document from raw markup.
func Parse(markup string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Find returns the selection matching a CSS selector.
func (d *Document) Find(selector string) *Selection {
	return &Selection{sel: d.doc.Find(selector)}
}

// Html serializes the full document tree back to markup, including the
// doctype when one was parsed.
func (d *Document) Html() (string, error) {
	var buf bytes.Buffer
	for _, node := range d.doc.Nodes {
		if err := html.Render(&buf, node); err != nil {
			return "", fmt.Errorf("failed to serialize document: %w", err)
		}
	}
	return buf.String(), nil
}

// Selection is a set of matched nodes within a Document.
type Selection struct {
	sel *goquery.Selection
}

// Find narrows the selection with a CSS selector.
func (s *Selection) Find(selector string) *Selection {
	return &Selection{sel: s.sel.Find(selector)}
}

// First returns a selection holding only the first matched node.
func (s *Selection) First() *Selection {
	return &Selection{sel: s.sel.First()}
}

// Eq returns a selection holding only the node at index i.
func (s *Selection) Eq(i int) *Selection {
	return &Selection{sel: s.sel.Eq(i)}
}

// Children returns the child elements of each matched node.
func (s *Selection) Children() *Selection {
	return &Selection{sel: s.sel.Children()}
}

// Length reports the number of matched nodes.
func (s *Selection) Length() int {
	return s.sel.Length()
}

// Text returns the combined text contents of the matched nodes.
func (s *Selection) Text() string {
	return s.sel.Text()
}

// SetText replaces the content of the matched nodes with escaped text.
func (s *Selection) SetText(text string) *Selection {
	s.sel.SetText(text)
	return s
}

// Html returns the inner markup of the first matched node.
func (s *Selection) Html() (string, error) {
	return s.sel.Html()
}

// SetHtml replaces the content of the matched nodes with markup.
func (s *Selection) SetHtml(markup string) *Selection {
	s.sel.SetHtml(markup)
	return s
}

// Attr returns the named attribute of the first matched node, or the
// empty string when absent.
func (s *Selection) Attr(name string) string {
	return s.sel.AttrOr(name, "")
}

// HasAttr reports whether the first matched node carries the attribute.
func (s *Selection) HasAttr(name string) bool {
	_, ok := s.sel.Attr(name)
	return ok
}

// SetAttr sets the named attribute on all matched nodes.
func (s *Selection) SetAttr(name, value string) *Selection {
	s.sel.SetAttr(name, value)
	return s
}

// RemoveAttr removes the named attribute from all matched nodes.
func (s *Selection) RemoveAttr(name string) *Selection {
	s.sel.RemoveAttr(name)
	return s
}

// AddClass adds the given class names to all matched nodes.
func (s *Selection) AddClass(names string) *Selection {
	s.sel.AddClass(names)
	return s
}

// RemoveClass removes the given class names from all matched nodes.
func (s *Selection) RemoveClass(names string) *Selection {
	s.sel.RemoveClass(names)
	return s
}

// Append appends the given markup to the content of each matched node.
func (s *Selection) Append(markup string) *Selection {
	s.sel.AppendHtml(markup)
	return s
}

// Prepend prepends the given markup to the content of each matched node.
func (s *Selection) Prepend(markup string) *Selection {
	s.sel.PrependHtml(markup)
	return s
}

// Remove detaches the matched nodes from the tree.
func (s *Selection) Remove() *Selection {
	return &Selection{sel: s.sel.Remove()}
}

// ReplaceWith replaces the matched nodes with the given markup.
func (s *Selection) ReplaceWith(markup string) *Selection {
	return &Selection{sel: s.sel.ReplaceWithHtml(markup)}
}

// CopyAttributes copies every attribute of the first node in src onto
// all nodes in dst. Existing attributes with the same name are
// overwritten.
func CopyAttributes(src, dst *Selection) {
	if src == nil || dst == nil || len(src.sel.Nodes) == 0 {
		return
	}
	for _, attr := range src.sel.Nodes[0].Attr {
		dst.sel.SetAttr(attr.Key, attr.Val)
	}
}

// MigrateChildren moves the child nodes of the first node in src to the
// end of dst's content. The children are detached from src.
func MigrateChildren(src, dst *Selection) {
	if src == nil || dst == nil {
		return
	}
	children := src.sel.Children().Remove()
	dst.sel.AppendSelection(children)
}

// ReplaceElement swaps the matched nodes of target for the given markup.
func ReplaceElement(target *Selection, markup string) {
	if target == nil {
		return
	}
	target.sel.ReplaceWithHtml(markup)
}
