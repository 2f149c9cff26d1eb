package asm

// Correlate correlates using the GNU table.
func Correlate(lines []string, sourceLine int) HighlightSet {
	return GNU.Correlate(lines, sourceLine)
}

// Correlate finds the original lines generated for sourceLine (1-based).
//
// The first line carrying a marker for sourceLine is the anchor. The span
// runs from the anchor up to, but excluding, the next boundary line. No
// anchor gives an empty set, which is common for optimized builds.
func (d *Dialect) Correlate(lines []string, sourceLine int) HighlightSet {
	d = table(d)
	var set HighlightSet
	if sourceLine < 1 || len(lines) == 0 {
		return set
	}

	anchor := firstMatch(lines, compileMarkers(d.anchors, sourceLine))
	if anchor < 0 {
		return set
	}

	for i := anchor + 1; i < len(lines); i++ {
		if d.boundary.MatchString(lines[i]) {
			break
		}
		set.Add(i)
	}
	set.Add(anchor)
	return set
}

// ScrollTarget picks the display position to bring into view for
// sourceLine: the first highlighted line if any, otherwise the display line
// nearest to a loosely matching marker, otherwise the one nearest to the last
// line marker in the text. It returns -1 when the view is empty or the text
// has no markers at all.
func (d *Dialect) ScrollTarget(lines []string, view View, highlight []int, sourceLine int) int {
	d = table(d)
	if len(highlight) > 0 {
		return highlight[0]
	}

	orig := -1
	if sourceLine >= 1 {
		orig = firstMatch(lines, compileMarkers(d.loose, sourceLine))
	}
	if orig < 0 {
		for i := len(lines) - 1; i >= 0; i-- {
			if d.fallback.MatchString(lines[i]) {
				orig = i
				break
			}
		}
	}
	if orig < 0 {
		return -1
	}
	return view.nearest(orig)
}
