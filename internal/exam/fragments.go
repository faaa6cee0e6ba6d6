package exam

import (
	"iter"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type FragmentKind int

const (
	FragmentText FragmentKind = iota
	FragmentImage
	FragmentBreak
)

// Fragment is one flat piece of rich text as the native builders see it.
type Fragment struct {
	Kind FragmentKind
	Text string
	Bold bool
	Src  string
	Math bool
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Pre: true, atom.Table: true, atom.Ul: true, atom.Ol: true,
}

// Fragments flattens an HTML fragment into text runs, images and breaks.
// Whitespace is collapsed and consecutive breaks are merged.
func Fragments(fragment string) iter.Seq[Fragment] {
	return func(yield func(Fragment) bool) {
		root, err := parseFragment(fragment)
		if err != nil {
			yield(Fragment{Kind: FragmentText, Text: fragment})
			return
		}
		w := &fragmentWalker{yield: yield, lastBreak: true}
		w.walk(root, false)
	}
}

type fragmentWalker struct {
	yield     func(Fragment) bool
	stopped   bool
	lastBreak bool
}

func (w *fragmentWalker) emit(f Fragment) {
	if w.stopped {
		return
	}
	if f.Kind == FragmentBreak {
		if w.lastBreak {
			return
		}
		w.lastBreak = true
	} else {
		w.lastBreak = false
	}
	if !w.yield(f) {
		w.stopped = true
	}
}

func (w *fragmentWalker) walk(n *html.Node, bold bool) {
	for c := n.FirstChild; c != nil && !w.stopped; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			text := collapseSpace(c.Data)
			if w.lastBreak {
				text = strings.TrimLeft(text, " ")
			}
			if text != "" {
				w.emit(Fragment{Kind: FragmentText, Text: text, Bold: bold})
			}
		case html.ElementNode:
			switch c.DataAtom {
			case atom.Script, atom.Style, atom.Head:
				continue
			case atom.Br:
				w.emit(Fragment{Kind: FragmentBreak})
				continue
			case atom.Img:
				if src := attr(c, "src"); src != "" {
					w.emit(Fragment{Kind: FragmentImage, Src: src, Math: attr(c, "alt") == "math"})
				}
				continue
			}
			strong := bold || c.DataAtom == atom.Strong || c.DataAtom == atom.B
			block := blockElements[c.DataAtom]
			if block {
				w.emit(Fragment{Kind: FragmentBreak})
			}
			w.walk(c, strong)
			if block {
				w.emit(Fragment{Kind: FragmentBreak})
			}
		}
	}
}

func collapseSpace(s string) string {
	if s == "" {
		return s
	}
	lead := isSpace(s[0])
	trail := isSpace(s[len(s)-1])
	body := strings.Join(strings.Fields(s), " ")
	if body == "" {
		return " "
	}
	if lead {
		body = " " + body
	}
	if trail {
		body += " "
	}
	return body
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r' || b == '\f'
}
