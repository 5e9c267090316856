package matching

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Tags that are not derived from a file's name
const (
	TagFile          = "file"
	TagSymlink       = "symlink"
	TagExecutable    = "executable"
	TagNonExecutable = "non-executable"
	TagText          = "text"
	TagBinary        = "binary"
)

// sniffSize is how much of a file is read when deciding text or binary
const sniffSize = 8 << 10

// extensionTags maps a lower-cased extension to its tags
var extensionTags = map[string][]string{
	".py":       {TagText, "python"},
	".pyi":      {TagText, "pyi"},
	".pyx":      {TagText, "cython"},
	".pxd":      {TagText, "cython"},
	".ipynb":    {TagText, "jupyter", "json"},
	".cfg":      {TagText, "ini"},
	".ini":      {TagText, "ini"},
	".toml":     {TagText, "toml"},
	".yaml":     {TagText, "yaml"},
	".yml":      {TagText, "yaml"},
	".json":     {TagText, "json"},
	".md":       {TagText, "markdown"},
	".markdown": {TagText, "markdown"},
	".rst":      {TagText, "rst"},
	".txt":      {TagText, "plain-text"},
	".sh":       {TagText, "shell", "sh"},
	".bash":     {TagText, "shell", "bash"},
	".zsh":      {TagText, "shell", "zsh"},
	".go":       {TagText, "go"},
	".mod":      {TagText, "go-mod"},
	".js":       {TagText, "javascript"},
	".jsx":      {TagText, "javascript", "jsx"},
	".ts":       {TagText, "ts"},
	".tsx":      {TagText, "tsx"},
	".css":      {TagText, "css"},
	".scss":     {TagText, "scss"},
	".html":     {TagText, "html"},
	".xml":      {TagText, "xml"},
	".sql":      {TagText, "sql"},
	".rs":       {TagText, "rust"},
	".rb":       {TagText, "ruby"},
	".c":        {TagText, "c"},
	".h":        {TagText, "c", "header"},
	".cpp":      {TagText, "c++"},
	".java":     {TagText, "java"},
	".proto":    {TagText, "proto"},
	".csv":      {TagText, "csv"},
	".png":      {TagBinary, "image", "png"},
	".jpg":      {TagBinary, "image", "jpeg"},
	".jpeg":     {TagBinary, "image", "jpeg"},
	".gif":      {TagBinary, "image", "gif"},
	".pdf":      {TagBinary, "pdf"},
	".zip":      {TagBinary, "zip"},
	".gz":       {TagBinary, "gzip"},
	".whl":      {TagBinary, "wheel", "zip"},
	".pkl":      {TagBinary, "pickle"},
	".h5":       {TagBinary, "hdf5"},
	".hdf5":     {TagBinary, "hdf5"},
}

// nameTags maps well-known file names to their tags
var nameTags = map[string][]string{
	"dockerfile":  {TagText, "dockerfile"},
	"makefile":    {TagText, "makefile"},
	"gnumakefile": {TagText, "makefile"},
	"pipfile":     {TagText, "toml"},
	"license":     {TagText, "plain-text"},
	"readme":      {TagText, "plain-text"},
}

// interpreterTags maps a shebang interpreter to its tags
var interpreterTags = map[string][]string{
	"python":  {"python"},
	"python3": {"python", "python3"},
	"sh":      {"shell", "sh"},
	"bash":    {"shell", "bash"},
	"zsh":     {"shell", "zsh"},
	"node":    {"javascript"},
	"ruby":    {"ruby"},
}

// TagSet is the set of type tags that describe a file
type TagSet map[string]struct{}

// NewTagSet builds a set from the given tags
func NewTagSet(tags ...string) TagSet {
	set := make(TagSet, len(tags))
	set.add(tags...)
	return set
}

// Has reports whether the set contains tag
func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// HasAll reports whether every tag is present
func (s TagSet) HasAll(tags []string) bool {
	for _, tag := range tags {
		if !s.Has(tag) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one tag is present
func (s TagSet) HasAny(tags []string) bool {
	for _, tag := range tags {
		if s.Has(tag) {
			return true
		}
	}
	return false
}

func (s TagSet) add(tags ...string) {
	for _, tag := range tags {
		s[tag] = struct{}{}
	}
}

// ClassifyPath derives tags for path, reading it from disk when it exists.
// A path that cannot be stat'ed is classified by name alone and treated as a
// regular, non-executable file.
func ClassifyPath(path string) TagSet {
	tags := NewTagSet(tagsForName(filepath.Base(path))...)

	info, err := os.Lstat(path)
	if err != nil {
		tags.add(TagFile, TagNonExecutable)
		return tags
	}

	if info.Mode()&os.ModeSymlink != 0 {
		tags.add(TagSymlink)
		return tags
	}

	tags.add(TagFile)
	executable := info.Mode().Perm()&0o111 != 0
	if executable {
		tags.add(TagExecutable)
	} else {
		tags.add(TagNonExecutable)
	}

	if tags.Has(TagText) || tags.Has(TagBinary) {
		if executable {
			tags.add(parseShebang(readHead(path))...)
		}
		return tags
	}

	head := readHead(path)
	if bytes.IndexByte(head, 0) >= 0 {
		tags.add(TagBinary)
		return tags
	}
	tags.add(TagText)
	tags.add(parseShebang(head)...)
	return tags
}

func tagsForName(name string) []string {
	lower := strings.ToLower(name)
	if tags, ok := nameTags[lower]; ok {
		return tags
	}
	if strings.HasPrefix(lower, "dockerfile.") {
		return nameTags["dockerfile"]
	}
	return extensionTags[strings.ToLower(filepath.Ext(name))]
}

func readHead(path string) []byte {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only handle

	buf := make([]byte, sniffSize)
	n, _ := io.ReadFull(f, buf)
	return buf[:n]
}

// parseShebang returns tags for the interpreter named on a #! line
func parseShebang(head []byte) []string {
	if !bytes.HasPrefix(head, []byte("#!")) {
		return nil
	}

	line, _, _ := bytes.Cut(head[2:], []byte("\n"))
	fields := strings.Fields(string(line))
	if len(fields) == 0 {
		return nil
	}

	interpreter := filepath.Base(fields[0])
	if interpreter == "env" {
		interpreter = ""
		for _, field := range fields[1:] {
			if !strings.HasPrefix(field, "-") {
				interpreter = field
				break
			}
		}
	}
	return interpreterTags[interpreter]
}
