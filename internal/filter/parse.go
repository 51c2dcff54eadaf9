package filter

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// AddExcludeDir adds a directory name to the exclusion set.
func (c *Chain) AddExcludeDir(name string) {
	if name == "" {
		return
	}
	if c.excludeDirs == nil {
		c.excludeDirs = make(map[string]struct{})
	}
	c.excludeDirs[name] = struct{}{}
}

// AddExtension adds an extension to the allow-list.
func (c *Chain) AddExtension(ext string) {
	ext = normalizeExt(ext)
	if ext == "" {
		return
	}
	if c.extensions == nil {
		c.extensions = make(map[string]struct{})
	}
	c.extensions[ext] = struct{}{}
}

// LoadFile reads filter rules from a file and adds them to the chain.
// Format:
//   - pattern    → exclude
//   + pattern    → include
//   dir NAME     → exclude directories named NAME at any depth
//   ext EXT      → add EXT to the extension allow-list
//   # comment    → skip
//   blank line   → skip
//   no prefix    → exclude (rsync default)
func (c *Chain) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open filter file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := c.addRuleLine(line); err != nil {
			return fmt.Errorf("filter file %s line %d: %w", path, lineNum, err)
		}
	}

	return scanner.Err()
}

func (c *Chain) addRuleLine(line string) error {
	switch {
	case strings.HasPrefix(line, "+ "):
		return c.AddInclude(strings.TrimSpace(line[2:]))
	case strings.HasPrefix(line, "- "):
		return c.AddExclude(strings.TrimSpace(line[2:]))
	case strings.HasPrefix(line, "dir "):
		c.AddExcludeDir(strings.TrimSpace(line[4:]))
		return nil
	case strings.HasPrefix(line, "ext "):
		for _, ext := range strings.Fields(line[4:]) {
			c.AddExtension(ext)
		}
		return nil
	default:
		return c.AddExclude(line)
	}
}
