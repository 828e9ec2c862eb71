package presenter

import (
	"fmt"
	"strings"
)

// RenderText writes the tree as indented plain text for terminals.
func RenderText(t *RenderTree) string {
	var b strings.Builder
	t.Walk(func(n *Node, depth int) {
		indent := strings.Repeat("  ", depth)
		switch n.Kind {
		case KindText:
			fmt.Fprintf(&b, "%s%s\n", indent, n.Label)
		case KindRing:
			fmt.Fprintf(&b, "%s(%s) %s %s\n", indent, n.Color, n.Title, n.Label)
		case KindBar, KindProgress:
			fmt.Fprintf(&b, "%s[%s] %s\n", indent, bar(n.Percentage, 20), n.Label)
		}
	})
	return b.String()
}

func bar(pct, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := (pct*width + 50) / 100
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}
