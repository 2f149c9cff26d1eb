package color

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"liveasm/pkg/asm"
)

var renderer = lipgloss.NewRenderer(os.Stdout)

var (
	errorStyle   = renderer.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = renderer.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle    = renderer.NewStyle().Foreground(lipgloss.Color("12"))
	statusStyle  = renderer.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)

	gutterStyle    = renderer.NewStyle().Foreground(lipgloss.Color("240"))
	markerStyle    = renderer.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	highlightStyle = renderer.NewStyle().Background(lipgloss.Color("58"))

	classStyles = map[asm.Class]lipgloss.Style{
		asm.Label:            renderer.NewStyle().Foreground(lipgloss.Color("81")).Bold(true),
		asm.BoilerplateLabel: renderer.NewStyle().Foreground(lipgloss.Color("242")),
		asm.Directive:        renderer.NewStyle().Foreground(lipgloss.Color("246")),
		asm.Comment:          renderer.NewStyle().Foreground(lipgloss.Color("108")).Italic(true),
		asm.Instruction:      renderer.NewStyle().Foreground(lipgloss.Color("255")),
	}
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		EnableColor(false)
	}
}

// EnableColor turns styling on or off for everything rendered by this package.
func EnableColor(enable bool) {
	if enable {
		renderer.SetColorProfile(termenv.EnvColorProfile())
		return
	}
	renderer.SetColorProfile(termenv.Ascii)
}

// IsColorEnabled reports whether output carries escape sequences.
func IsColorEnabled() bool {
	return renderer.ColorProfile() != termenv.Ascii
}

func Error(message string) string {
	return errorStyle.Render("Error:") + " " + message
}

func Warning(message string) string {
	return warningStyle.Render("Warning:") + " " + message
}

func Info(message string) string {
	return infoStyle.Render("Info:") + " " + message
}

// Status renders the build status line, usually the compiler command.
func Status(message string) string {
	return statusStyle.Render(message)
}

// Listing renders the display lines of res, one per row, with the original
// line number in the gutter. Highlighted rows are marked and shaded.
func Listing(w io.Writer, d *asm.Dialect, res asm.Result) error {
	width := len(fmt.Sprint(len(res.Lines)))
	highlighted := make(map[int]bool, len(res.Highlight))
	for _, i := range res.Highlight {
		highlighted[i] = true
	}

	var b strings.Builder
	for i, line := range res.View.Lines {
		text := expandTabs(line.Text)
		marker := " "
		if highlighted[i] {
			marker = markerStyle.Render(">")
			text = highlightStyle.Render(text)
		} else if style, ok := classStyles[d.Classify(line.Text)]; ok {
			text = style.Render(text)
		}
		b.WriteString(marker)
		b.WriteString(gutterStyle.Render(fmt.Sprintf(" %*d ", width, line.OriginalIndex+1)))
		b.WriteString(text)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := 8 - col%8
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}
