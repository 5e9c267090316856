// Package matching handles filtering and type matching for hooks
package matching

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/blairham/hookrun/pkg/config"
)

// matchTimeout bounds a single regex evaluation
const matchTimeout = time.Second

// Matcher selects the files a hook applies to. It caches compiled patterns and
// file classifications, and is safe for concurrent use.
type Matcher struct {
	root     string
	mu       sync.Mutex
	patterns map[string]*regexp2.Regexp
	tags     map[string]TagSet
}

// NewMatcher creates a matcher that resolves relative paths against root
func NewMatcher(root string) *Matcher {
	return &Matcher{
		root:     root,
		patterns: make(map[string]*regexp2.Regexp),
		tags:     make(map[string]TagSet),
	}
}

// Classify returns the type tags for a repository-relative path
func (m *Matcher) Classify(file string) TagSet {
	m.mu.Lock()
	tags, ok := m.tags[file]
	m.mu.Unlock()
	if ok {
		return tags
	}

	path := file
	if m.root != "" && !filepath.IsAbs(file) {
		path = filepath.Join(m.root, file)
	}
	tags = ClassifyPath(path)

	m.mu.Lock()
	m.tags[file] = tags
	m.mu.Unlock()
	return tags
}

// FilterFiles keeps files matching include (when set) and not matching exclude (when set)
func (m *Matcher) FilterFiles(files []string, include, exclude string) ([]string, error) {
	includeRe, err := m.compile(include)
	if err != nil {
		return nil, err
	}
	excludeRe, err := m.compile(exclude)
	if err != nil {
		return nil, err
	}

	matched := make([]string, 0, len(files))
	for _, file := range files {
		if includeRe != nil {
			ok, err := includeRe.MatchString(file)
			if err != nil {
				return nil, fmt.Errorf("matching %q against %q: %w", file, include, err)
			}
			if !ok {
				continue
			}
		}
		if excludeRe != nil {
			ok, err := excludeRe.MatchString(file)
			if err != nil {
				return nil, fmt.Errorf("matching %q against %q: %w", file, exclude, err)
			}
			if ok {
				continue
			}
		}
		matched = append(matched, file)
	}
	return matched, nil
}

// FilterTypes keeps files carrying every tag in types, at least one tag in
// typesOr (when set) and no tag in excludeTypes
func (m *Matcher) FilterTypes(files, types, typesOr, excludeTypes []string) []string {
	if len(types) == 0 && len(typesOr) == 0 && len(excludeTypes) == 0 {
		return files
	}

	matched := make([]string, 0, len(files))
	for _, file := range files {
		tags := m.Classify(file)
		if !tags.HasAll(types) {
			continue
		}
		if len(typesOr) > 0 && !tags.HasAny(typesOr) {
			continue
		}
		if tags.HasAny(excludeTypes) {
			continue
		}
		matched = append(matched, file)
	}
	return matched
}

// FilesForHook returns the files that satisfy every filter the hook declares
func (m *Matcher) FilesForHook(hook config.Hook, files []string) ([]string, error) {
	matched, err := m.FilterFiles(files, hook.Files, hook.ExcludeRegex)
	if err != nil {
		return nil, fmt.Errorf("hook %s: %w", hook.ID, err)
	}
	return m.FilterTypes(matched, hook.Types, hook.TypesOr, hook.ExcludeTypes), nil
}

func (m *Matcher) compile(pattern string) (*regexp2.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if re, ok := m.patterns[pattern]; ok {
		return re, nil
	}

	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	re.MatchTimeout = matchTimeout
	m.patterns[pattern] = re
	return re, nil
}
