package filter

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultExcludeDirs are directory names skipped at any depth unless the
// caller supplies its own list.
var DefaultExcludeDirs = []string{
	".git",
	".hg",
	".svn",
	"__pycache__",
	"node_modules",
	".venv",
	"venv",
}

// Rule represents a single include or exclude filter rule.
type Rule struct {
	Pattern *compiledPattern
	Include bool // true=include, false=exclude
}

// Chain holds an ordered list of glob rules plus the size, extension and
// directory-name filters used to decide which files are scanned.
type Chain struct {
	rules       []Rule
	minSize     int64
	maxSize     int64
	extensions  map[string]struct{}
	excludeDirs map[string]struct{}
}

// NewChain creates a chain that excludes the default directory names and
// accepts every file size and extension.
func NewChain() *Chain {
	c := &Chain{}
	c.SetExcludeDirs(DefaultExcludeDirs)
	return c
}

// AddExclude adds an exclude rule for the given pattern.
func (c *Chain) AddExclude(pattern string) error {
	cp, err := compilePattern(pattern)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, Rule{Pattern: cp, Include: false})
	return nil
}

// AddInclude adds an include rule for the given pattern.
func (c *Chain) AddInclude(pattern string) error {
	cp, err := compilePattern(pattern)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, Rule{Pattern: cp, Include: true})
	return nil
}

// SetMinSize sets the minimum file size filter.
func (c *Chain) SetMinSize(n int64) {
	c.minSize = n
}

// SetMaxSize sets the maximum file size filter. Zero means unbounded.
func (c *Chain) SetMaxSize(n int64) {
	c.maxSize = n
}

// SetExtensions replaces the extension allow-list. Extensions are compared
// case-insensitively with any leading dot stripped. An empty list accepts all.
func (c *Chain) SetExtensions(exts []string) {
	c.extensions = nil
	for _, ext := range exts {
		ext = normalizeExt(ext)
		if ext == "" {
			continue
		}
		if c.extensions == nil {
			c.extensions = make(map[string]struct{}, len(exts))
		}
		c.extensions[ext] = struct{}{}
	}
}

// SetExcludeDirs replaces the set of excluded directory names.
func (c *Chain) SetExcludeDirs(names []string) {
	c.excludeDirs = make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		c.excludeDirs[name] = struct{}{}
	}
}

// Extensions returns the allow-list in sorted order.
func (c *Chain) Extensions() []string {
	out := make([]string, 0, len(c.extensions))
	for ext := range c.extensions {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}

// ExcludeDir reports whether a directory with the given base name is skipped.
// Only the name is compared, so a match applies at any nesting depth.
func (c *Chain) ExcludeDir(name string) bool {
	_, ok := c.excludeDirs[name]
	return ok
}

// Include reports whether the file at path should be scanned. Non-regular
// files (including symlinks) and anything that cannot be stat'ed are excluded.
// Glob rules see path as given, so callers pass it relative to the scan root.
func (c *Chain) Include(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return c.IncludeInfo(filepath.ToSlash(path), info)
}

// IncludeInfo is Include for callers that already hold the file's Lstat
// result, such as the walker.
func (c *Chain) IncludeInfo(relPath string, info os.FileInfo) bool {
	return info.Mode().IsRegular() && c.Match(relPath, false, info.Size())
}

// Match reports whether relPath (slash-separated, relative to the scan root)
// passes the chain. Size and extension filters apply to files only; callers
// check that the file is regular before asking.
func (c *Chain) Match(relPath string, isDir bool, size int64) bool {
	if !isDir {
		if !c.matchSize(size) || !c.matchExt(relPath) {
			return false
		}
	}

	// Walk rules in order; first match wins.
	for _, rule := range c.rules {
		if rule.Pattern.match(relPath, isDir) {
			return rule.Include
		}
	}

	// No match → include (default).
	return true
}
