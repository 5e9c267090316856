package commands

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/blairham/hookrun/pkg/config"
)

// BuiltinResult is the outcome of a hook evaluated in-process
type BuiltinResult struct {
	Output   string
	ExitCode int
}

// RunBuiltin evaluates a fail or pygrep hook over files relative to root
func RunBuiltin(hook config.Hook, root string, files []string) (BuiltinResult, error) {
	switch hook.Language {
	case config.LanguageFail:
		return runFail(hook, files), nil
	case config.LanguagePygrep:
		return runPygrep(hook, root, files)
	default:
		return BuiltinResult{}, fmt.Errorf("language %s is not a builtin", hook.Language)
	}
}

// runFail always fails, printing the entry as the message followed by the files
func runFail(hook config.Hook, files []string) BuiltinResult {
	var out strings.Builder
	out.WriteString(strings.TrimSpace(hook.Entry))
	out.WriteString("\n\n")
	for _, file := range files {
		out.WriteString(file)
		out.WriteString("\n")
	}
	return BuiltinResult{Output: out.String(), ExitCode: 1}
}

type pygrepOptions struct {
	ignoreCase bool
	multiline  bool
	negate     bool
}

func parsePygrepArgs(args []string) (pygrepOptions, error) {
	var opts pygrepOptions
	for _, arg := range args {
		switch arg {
		case "-i", "--ignore-case":
			opts.ignoreCase = true
		case "--multiline":
			opts.multiline = true
		case "--negate":
			opts.negate = true
		default:
			return opts, fmt.Errorf("unsupported pygrep argument %q", arg)
		}
	}
	return opts, nil
}

// runPygrep fails when the entry regex matches any file, or with --negate when
// a file has no match
func runPygrep(hook config.Hook, root string, files []string) (BuiltinResult, error) {
	opts, err := parsePygrepArgs(hook.Args)
	if err != nil {
		return BuiltinResult{}, fmt.Errorf("hook %s: %w", hook.ID, err)
	}

	flags := regexp2.None
	if opts.ignoreCase {
		flags |= regexp2.IgnoreCase
	}
	if opts.multiline {
		// . crosses newlines and ^/$ anchor at every line
		flags |= regexp2.Multiline | regexp2.Singleline
	}

	re, err := regexp2.Compile(hook.Entry, flags)
	if err != nil {
		return BuiltinResult{}, fmt.Errorf("hook %s: invalid pattern %q: %w", hook.ID, hook.Entry, err)
	}

	var out strings.Builder
	result := BuiltinResult{}

	for _, file := range files {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, file)
		}

		content, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return BuiltinResult{}, fmt.Errorf("hook %s: %w", hook.ID, err)
		}

		var matches []string
		if opts.multiline {
			matches, err = multilineMatch(re, file, content)
		} else {
			matches, err = lineMatches(re, file, content)
		}
		if err != nil {
			return BuiltinResult{}, fmt.Errorf("hook %s: %w", hook.ID, err)
		}

		switch {
		case opts.negate && len(matches) == 0:
			result.ExitCode = 1
			out.WriteString(file + "\n")
		case !opts.negate && len(matches) > 0:
			result.ExitCode = 1
			for _, match := range matches {
				out.WriteString(match + "\n")
			}
		}
	}

	result.Output = out.String()
	return result, nil
}

func lineMatches(re *regexp2.Regexp, file string, content []byte) ([]string, error) {
	var matches []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64<<10), 16<<20)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		ok, err := re.MatchString(line)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, fmt.Sprintf("%s:%d:%s", file, lineNo, line))
		}
	}
	return matches, scanner.Err()
}

// multilineMatch reports the first match in the whole file, starting from the
// full line the match begins on
func multilineMatch(re *regexp2.Regexp, file string, content []byte) ([]string, error) {
	text := string(content)
	m, err := re.FindStringMatch(text)
	if err != nil || m == nil {
		return nil, err
	}

	start := runeOffset(text, m.Index)
	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	lineNo := strings.Count(text[:start], "\n") + 1

	matched := strings.Split(m.String(), "\n")
	firstLine, _, _ := strings.Cut(text[lineStart:], "\n")
	matched[0] = firstLine

	return []string{fmt.Sprintf("%s:%d:%s", file, lineNo, strings.Join(matched, "\n"))}, nil
}

// runeOffset converts regexp2's rune index into a byte offset
func runeOffset(s string, runeIndex int) int {
	i := 0
	for offset := range s {
		if i == runeIndex {
			return offset
		}
		i++
	}
	return len(s)
}
