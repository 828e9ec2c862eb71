// Package dom turns a presenter.RenderTree into HTML and attaches it below
// the comment header of a watch page.
package dom

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/raysh454/commentlens/internal/presenter"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Class names shared with the page stylesheet.
const (
	classText          = "analyser-text"
	classHeaderText    = "analyser-header-text"
	classContentText   = "analyser-content-text"
	classDataContainer = "analysis-data-container"
	classHFlex         = "analysis-horizontal-flex"
	classRingContainer = "analysis-circle-container"
	classRing          = "analysis-ring"
	classCircle        = "analysis-circle"
	classBar           = "analysis-emotion-bar"
	classBarFill       = "analysis-emotion-bar-fill"
	classProgress      = "analysis-sarcasm-progress-bar"
	classProgressFill  = "analysis-sarcasm-filler"
	classRoot          = "style-scope ytd-comments-header-renderer"
)

const dashArray = "251.2"

// BuildNode converts the tree into a detached *html.Node.
func BuildNode(t *presenter.RenderTree) (*html.Node, error) {
	if t == nil || t.Root == nil {
		return nil, fmt.Errorf("dom: empty render tree")
	}
	return build(t.Root, true)
}

// RenderHTML serializes the tree.
func RenderHTML(t *presenter.RenderTree) (string, error) {
	n, err := BuildNode(t)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("dom: render: %w", err)
	}
	return buf.String(), nil
}

func build(n *presenter.Node, root bool) (*html.Node, error) {
	switch n.Kind {
	case presenter.KindContainer:
		el := element(atom.Div, attrs(n.ID, containerClass(n, root))...)
		for _, c := range n.Children {
			child, err := build(c, false)
			if err != nil {
				return nil, err
			}
			el.AppendChild(child)
		}
		return el, nil

	case presenter.KindText:
		class := classText + " " + classContentText
		if n.ID == presenter.HeaderID {
			class = classText + " " + classHeaderText
		}
		tag := atom.Span
		if n.ID == presenter.SarcasmHeaderID || n.ID == presenter.MessageID {
			tag = atom.Div
		}
		el := element(tag, attrs(n.ID, class)...)
		el.AppendChild(text(n.Label))
		return el, nil

	case presenter.KindRing:
		return ring(n), nil

	case presenter.KindBar:
		return gauge(n, classBar, classBarFill), nil

	case presenter.KindProgress:
		return gauge(n, classProgress, classProgressFill), nil

	default:
		return nil, fmt.Errorf("dom: unknown node kind %q", n.Kind)
	}
}

func containerClass(n *presenter.Node, root bool) string {
	switch {
	case root:
		return classRoot
	case n.ID == presenter.BodyID:
		return classHFlex
	default:
		return classDataContainer
	}
}

func ring(n *presenter.Node) *html.Node {
	div := element(atom.Div, attrs(n.ID, classRingContainer)...)
	div.Attr = append(div.Attr, html.Attribute{Key: "title", Val: n.Title})
	if n.Caption != "" {
		div.Attr = append(div.Attr, html.Attribute{Key: "data-caption", Val: n.Caption})
	}

	label := element(atom.Span)
	label.AppendChild(text(n.Label))
	div.AppendChild(label)

	svg := element(atom.Svg, html.Attribute{Key: "class", Val: classRing})
	svg.Namespace = "svg"
	circle := &html.Node{
		Type:      html.ElementNode,
		Data:      "circle",
		Namespace: "svg",
		Attr: []html.Attribute{
			{Key: "class", Val: classCircle + " " + classCircle + "-" + n.Color},
			{Key: "cx", Val: "50%"},
			{Key: "cy", Val: "50%"},
			{Key: "r", Val: "40%"},
			{Key: "stroke-dasharray", Val: dashArray},
			{Key: "style", Val: "stroke-dashoffset: " + strconv.FormatFloat(n.DashOffset, 'f', 2, 64)},
		},
	}
	svg.AppendChild(circle)
	div.AppendChild(svg)
	return div
}

func gauge(n *presenter.Node, outerClass, fillClass string) *html.Node {
	wrap := element(atom.Div, attrs(n.ID, classDataContainer)...)

	label := element(atom.Div, html.Attribute{Key: "class", Val: classText})
	label.AppendChild(text(n.Label))

	outer := element(atom.Div, html.Attribute{Key: "class", Val: outerClass})
	fill := element(atom.Div,
		html.Attribute{Key: "class", Val: fillClass},
		html.Attribute{Key: "style", Val: fmt.Sprintf("width: %d%%", n.Percentage)},
	)
	outer.AppendChild(fill)

	wrap.AppendChild(label)
	wrap.AppendChild(outer)
	return wrap
}

func attrs(id, class string) []html.Attribute {
	var out []html.Attribute
	if id != "" {
		out = append(out, html.Attribute{Key: "id", Val: id})
	}
	if class != "" {
		out = append(out, html.Attribute{Key: "class", Val: class})
	}
	return out
}

func element(a atom.Atom, attr ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attr}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
