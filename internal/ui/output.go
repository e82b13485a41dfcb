package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

// Printer writes user-facing status lines.
type Printer struct {
	w io.Writer
}

// NewPrinter returns a Printer writing to w, or stdout when w is nil.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{w: w}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.w
}

func (p *Printer) line(style lipgloss.Style, symbol, msg string) {
	if msg == "" {
		fmt.Fprintln(p.w)
		return
	}
	fmt.Fprintln(p.w, style.Render(symbol)+" "+msg)
}

func (p *Printer) Success(msg string) { p.line(successStyle, "✓", msg) }
func (p *Printer) Done(msg string)    { p.line(successStyle, "✔", msg) }
func (p *Printer) Info(msg string)    { p.line(infoStyle, "•", msg) }
func (p *Printer) Warning(msg string) { p.line(warningStyle, "!", msg) }
func (p *Printer) Error(msg string)   { p.line(errorStyle, "✗", msg) }

// Hint prints dimmed guidance, one line per entry.
func (p *Printer) Hint(lines ...string) {
	for _, l := range lines {
		fmt.Fprintln(p.w, dimStyle.Render("  "+l))
	}
}

// Header prints a bold section title preceded by a blank line.
func (p *Printer) Header(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, headerStyle.Render(title))
}

// Command shows a command line the user may want to copy.
func (p *Printer) Command(line string) {
	fmt.Fprintln(p.w, commandStyle.Render("$ "+line))
}

// Block prints pre-rendered multi-line output as is.
func (p *Printer) Block(s string) {
	if s == "" {
		return
	}
	fmt.Fprint(p.w, s)
	if !strings.HasSuffix(s, "\n") {
		fmt.Fprintln(p.w)
	}
}

var std = NewPrinter(os.Stdout)

// SetOutput redirects the package-level Print helpers.
func SetOutput(w io.Writer) {
	std = NewPrinter(w)
}

// Default returns the printer behind the package-level Print helpers.
func Default() *Printer {
	return std
}

func PrintSuccess(msg string) { std.Success(msg) }
func PrintDone(msg string)    { std.Done(msg) }
func PrintInfo(msg string)    { std.Info(msg) }
func PrintWarning(msg string) { std.Warning(msg) }
func PrintError(msg string)   { std.Error(msg) }
