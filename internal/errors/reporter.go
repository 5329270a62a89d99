package errors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/fatih/color"

	"lazy/internal/object"
	"lazy/internal/util/errwrap"
)

// ErrorLevel represents the severity of a diagnostic
type ErrorLevel string

const (
	Error   ErrorLevel = "error"
	Warning ErrorLevel = "warning"
	Note    ErrorLevel = "note"
	Help    ErrorLevel = "help"
)

// CompilerError is a diagnostic produced by the front end. It satisfies
// error so several of them can be aggregated with errwrap.Append.
type CompilerError struct {
	Level       ErrorLevel
	Code        string
	Message     string
	Position    lexer.Position
	Length      int // length of the highlighted region
	Suggestions []string
	Notes       []string
	HelpText    string
}

func (e CompilerError) Error() string {
	loc := ""
	if e.Position.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d: ", e.Position.Filename, e.Position.Line, e.Position.Column)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s%s[%s]: %s", loc, e.Level, e.Code, e.Message)
	}
	return fmt.Sprintf("%s%s: %s", loc, e.Level, e.Message)
}

// Diagnostics flattens err into compiler errors. Errors that are not
// CompilerErrors become code-less entries so nothing is dropped.
func Diagnostics(err error) []CompilerError {
	var out []CompilerError
	for _, e := range errwrap.Errors(err) {
		switch ce := errwrap.Cause(e).(type) {
		case CompilerError:
			out = append(out, ce)
		case *CompilerError:
			out = append(out, *ce)
		default:
			if d, ok := FromParseError(e); ok {
				out = append(out, d)
				continue
			}
			out = append(out, CompilerError{Level: Error, Message: e.Error()})
		}
	}
	return out
}

// ErrorReporter renders diagnostics against the source they refer to.
type ErrorReporter struct {
	filename string
	source   string
	lines    []string
}

func NewErrorReporter(filename, source string) *ErrorReporter {
	return &ErrorReporter{
		filename: filename,
		source:   source,
		lines:    strings.Split(source, "\n"),
	}
}

// FormatAll renders every diagnostic contained in err.
func (er *ErrorReporter) FormatAll(err error) string {
	var b strings.Builder
	for _, d := range Diagnostics(err) {
		b.WriteString(er.FormatError(d))
	}
	return b.String()
}

// FormatError renders one diagnostic: a header, the offending line between
// its neighbours with a caret marker, then suggestions, notes and help.
func (er *ErrorReporter) FormatError(err CompilerError) string {
	var b strings.Builder

	header := paint(levelAttributes(err.Level)...)(string(err.Level))
	if err.Code != "" {
		header += "[" + err.Code + "]"
	}
	fmt.Fprintf(&b, "%s: %s\n", header, err.Message)

	line := err.Position.Line
	if line <= 0 {
		b.WriteString("\n")
		return b.String()
	}

	width := max(3, len(strconv.Itoa(line+1)))
	gutter := strings.Repeat(" ", width) + " " + dim("│")
	filename := err.Position.Filename
	if filename == "" {
		filename = er.filename
	}
	fmt.Fprintf(&b, "%s %s %s:%d:%d\n", strings.Repeat(" ", width), dim("-->"), filename, line, err.Position.Column)
	b.WriteString(gutter + "\n")

	for n := line - 1; n <= line+1; n++ {
		if n < 1 || n > len(er.lines) {
			continue
		}
		number := fmt.Sprintf("%*d", width, n)
		if n != line {
			fmt.Fprintf(&b, "%s %s %s\n", dim(number), dim("│"), er.lines[n-1])
			continue
		}
		fmt.Fprintf(&b, "%s %s %s\n", paint(color.Bold)(number), dim("│"), er.lines[n-1])
		fmt.Fprintf(&b, "%s %s\n", gutter, marker(err.Position.Column, err.Length, err.Level))
	}

	if len(err.Suggestions) > 0 {
		cyan := paint(color.FgCyan)
		b.WriteString(gutter + "\n")
		for i, suggestion := range err.Suggestions {
			label := cyan("    ")
			if i == 0 {
				label = cyan("help") + " " + cyan("try:")
			}
			fmt.Fprintf(&b, "%s %s %s\n", strings.Repeat(" ", width), label, suggestion)
		}
	}
	for _, note := range err.Notes {
		fmt.Fprintf(&b, "%s %s %s\n", gutter, paint(color.FgBlue)("note:"), note)
	}
	if err.HelpText != "" {
		fmt.Fprintf(&b, "%s %s %s\n", gutter, paint(color.FgGreen)("help:"), err.HelpText)
	}

	b.WriteString("\n")
	return b.String()
}

// Report renders any error produced while compiling or running source.
// Host exceptions print as a single line; everything else goes through
// FormatAll.
func (er *ErrorReporter) Report(err error) string {
	if _, ok := object.AsException(err); ok {
		return paint(color.FgRed)(err.Error()) + "\n"
	}
	return er.FormatAll(err)
}

func levelAttributes(level ErrorLevel) []color.Attribute {
	switch level {
	case Warning:
		return []color.Attribute{color.FgYellow, color.Bold}
	case Note:
		return []color.Attribute{color.FgBlue, color.Bold}
	case Help:
		return []color.Attribute{color.FgGreen, color.Bold}
	}
	return []color.Attribute{color.FgRed, color.Bold}
}

// marker underlines length columns starting at column. Warnings keep
// their own colour; everything else is marked in red.
func marker(column, length int, level ErrorLevel) string {
	attrs := []color.Attribute{color.FgRed, color.Bold}
	if level == Warning {
		attrs = levelAttributes(level)
	}
	return strings.Repeat(" ", max(0, column-1)) + paint(attrs...)(strings.Repeat("^", max(1, length)))
}

func paint(attrs ...color.Attribute) func(...any) string {
	return color.New(attrs...).SprintFunc()
}

func dim(s string) string {
	return paint(color.Faint)(s)
}
