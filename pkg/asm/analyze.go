package asm

// Result bundles everything the presentation needs for one render.
type Result struct {
	Lines     []string     // original lines
	View      View         // filtered display lines
	Original  HighlightSet // original indices for the source line
	Highlight []int        // display positions to highlight
	Scroll    int          // display position to bring into view, -1 for none
}

// Analyze runs the whole pipeline on a fresh copy of text. Any panic is
// turned into an empty result so that a caller rendering on every keystroke
// keeps working on degenerate input.
func Analyze(d *Dialect, text string, cfg ViewConfig, sourceLine int) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Scroll: -1}
		}
	}()

	d = table(d)
	lines := SplitLines(text)
	view := d.Filter(lines, cfg)
	set := d.Correlate(lines, sourceLine)
	highlight := Project(set, view.IndexMap)

	return Result{
		Lines:     lines,
		View:      view,
		Original:  set,
		Highlight: highlight,
		Scroll:    d.ScrollTarget(lines, view, highlight, sourceLine),
	}
}

// Highlighted reports whether display position i is highlighted.
func (r Result) Highlighted(i int) bool {
	for _, h := range r.Highlight {
		if h == i {
			return true
		}
		if h > i {
			break
		}
	}
	return false
}
