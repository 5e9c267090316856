// Package formatting handles result formatting and output display
package formatting

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/blairham/hookrun/pkg/hook/execution"
)

// Color modes accepted by --color
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ColorModes lists the valid --color values
var ColorModes = []string{ColorAuto, ColorAlways, ColorNever}

const lineWidth = 79

// Color definitions for hook output
var (
	PassedColor  = color.New(color.BgGreen, color.FgBlack)
	FailedColor  = color.New(color.BgRed, color.FgWhite)
	SkippedColor = color.New(color.BgCyan, color.FgBlack)

	// DetailColor dims the "- key: value" lines
	DetailColor = color.New(color.Faint, color.FgWhite)
)

// Summary counts results by outcome
type Summary struct {
	Passed  int
	Failed  int
	Skipped int
}

// Summarize counts the outcomes in results
func Summarize(results []execution.Result) Summary {
	var s Summary
	for _, r := range results {
		switch {
		case r.Skipped:
			s.Skipped++
		case r.Success:
			s.Passed++
		default:
			s.Failed++
		}
	}
	return s
}

// String renders the summary without styling
func (s Summary) String() string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped", s.Passed, s.Failed, s.Skipped)
}

// Formatter handles formatting and displaying hook execution results
type Formatter struct {
	out       io.Writer
	colorMode string
	verbose   bool
}

// NewFormatter creates a new result formatter writing to out
func NewFormatter(out io.Writer, colorMode string, verbose bool) *Formatter {
	return &Formatter{
		out:       out,
		colorMode: colorMode,
		verbose:   verbose,
	}
}

// PrintResults prints one status line per result, the details of failed
// (or verbose) hooks and a closing summary line
func (f *Formatter) PrintResults(results []execution.Result) {
	useColor := f.shouldEnableColor()
	color.NoColor = !useColor

	for _, result := range results {
		hookName := result.Hook.DisplayName()
		switch {
		case result.Skipped:
			f.printSkippedResult(result, hookName)
		case result.Success:
			f.printSuccessResult(result, hookName)
		default:
			f.printFailureResult(result, hookName)
		}
	}

	if len(results) > 0 {
		f.printSummary(Summarize(results), useColor)
	}
}

// dots pads the given texts to lineWidth terminal cells
func dots(texts ...string) string {
	used := 0
	for _, text := range texts {
		used += lipgloss.Width(text)
	}
	return strings.Repeat(".", max(lineWidth-used, 1))
}

func (f *Formatter) printSuccessResult(result execution.Result, hookName string) {
	fmt.Fprintf(f.out, "%s%s%s\n", hookName, dots(hookName, "Passed"), PassedColor.Sprint("Passed"))

	if !f.verbose && !result.Hook.Verbose {
		return
	}

	f.printDetail("- hook id: %s", result.Hook.ID)
	f.printDetail("- duration: %s", formatDuration(result.Duration))

	if result.Output != "" {
		fmt.Fprintf(f.out, "\n%s\n\n", strings.TrimSpace(result.Output))
	}
}

func (f *Formatter) printFailureResult(result execution.Result, hookName string) {
	statusText := "Failed"
	if result.Timeout {
		statusText = "Failed (timeout)"
	}
	fmt.Fprintf(f.out, "%s%s%s\n", hookName, dots(hookName, statusText), FailedColor.Sprint(statusText))

	f.printDetail("- hook id: %s", result.Hook.ID)
	if f.verbose || result.Hook.Verbose {
		f.printDetail("- duration: %s", formatDuration(result.Duration))
	}
	if result.ExitCode != 0 {
		f.printDetail("- exit code: %d", result.ExitCode)
	}
	if result.Modified {
		f.printDetail("- files were modified by this hook")
	}
	if result.Error != "" {
		f.printDetail("- error: %s", result.Error)
	}

	if output := strings.TrimRight(result.Output, "\n\r\t "); output != "" {
		fmt.Fprintf(f.out, "\n%s\n\n", output)
	}
}

// printSkippedResult prints "(reason)Skipped" with only "Skipped" coloured
func (f *Formatter) printSkippedResult(result execution.Result, hookName string) {
	reason := result.SkipReason
	if reason == "" {
		reason = execution.SkipNoFiles
	}
	prefix := "(" + reason + ")"
	const skippedText = "Skipped"

	fmt.Fprintf(f.out, "%s%s%s%s\n",
		hookName, dots(hookName, prefix, skippedText), prefix, SkippedColor.Sprint(skippedText))

	if f.verbose {
		f.printDetail("- hook id: %s", result.Hook.ID)
	}
}

func (f *Formatter) printDetail(format string, args ...any) {
	fmt.Fprintln(f.out, DetailColor.Sprintf(format, args...))
}

func (f *Formatter) printSummary(s Summary, useColor bool) {
	if !useColor {
		fmt.Fprintln(f.out, s.String())
		return
	}

	r := lipgloss.NewRenderer(f.out)
	r.SetColorProfile(termenv.ANSI)

	part := func(n int, label string, c lipgloss.Color) string {
		style := r.NewStyle()
		if n > 0 {
			style = style.Foreground(c).Bold(true)
		}
		return style.Render(fmt.Sprintf("%d %s", n, label))
	}

	fmt.Fprintln(f.out, strings.Join([]string{
		part(s.Passed, "passed", lipgloss.Color("2")),
		part(s.Failed, "failed", lipgloss.Color("1")),
		part(s.Skipped, "skipped", lipgloss.Color("6")),
	}, ", "))
}

// shouldEnableColor resolves the colour mode. auto colours only when the
// output is a terminal and NO_COLOR is unset.
func (f *Formatter) shouldEnableColor() bool {
	switch f.colorMode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		file, ok := f.out.(*os.File)
		if !ok {
			return false
		}
		return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
	}
}

// formatDuration rounds very fast runs to "0s" and shows longer ones with
// a precision that shrinks as they grow
func formatDuration(duration time.Duration) string {
	seconds := duration.Seconds()

	switch {
	case seconds < 0.005:
		return "0s"
	case seconds < 1.0:
		return fmt.Sprintf("%.2fs", seconds)
	case seconds < 60.0:
		return fmt.Sprintf("%.1fs", seconds)
	default:
		minutes := int(seconds) / 60
		remainingSeconds := int(seconds) % 60
		return fmt.Sprintf("%dm%ds", minutes, remainingSeconds)
	}
}
