package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// compiledPattern is an rsync-style glob compiled to a regular expression.
//
//	*.log      matches the basename at any depth
//	/top.txt   anchored to the scan root
//	a/b/*.txt  anchored (contains a slash)
//	build/     directories only
//	**/x       any number of leading path segments
type compiledPattern struct {
	re       *regexp.Regexp
	original string
	dirOnly  bool
}

func compilePattern(pattern string) (*compiledPattern, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("empty filter pattern")
	}

	cp := &compiledPattern{original: pattern}

	body := pattern
	if strings.HasSuffix(body, "/") {
		cp.dirOnly = true
		body = strings.TrimSuffix(body, "/")
	}

	anchored := strings.Contains(body, "/")
	body = strings.TrimPrefix(body, "/")

	prefix := "(^|/)"
	if anchored {
		prefix = "^"
	}

	re, err := regexp.Compile(prefix + globToRegex(body) + "$")
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	cp.re = re
	return cp, nil
}

func (cp *compiledPattern) match(relPath string, isDir bool) bool {
	if cp.dirOnly && !isDir {
		return false
	}
	return cp.re.MatchString(relPath)
}

func (cp *compiledPattern) String() string {
	return cp.original
}

// globToRegex translates glob syntax into an unanchored regex body.
func globToRegex(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); {
		switch {
		case strings.HasPrefix(glob[i:], "**/"):
			b.WriteString("(.*/)?")
			i += 3
		case strings.HasPrefix(glob[i:], "**"):
			b.WriteString(".*")
			i += 2
		case glob[i] == '*':
			b.WriteString("[^/]*")
			i++
		case glob[i] == '?':
			b.WriteString("[^/]")
			i++
		case glob[i] == '[':
			class, n := bracketClass(glob[i:])
			b.WriteString(class)
			i += n
		default:
			b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
			i++
		}
	}
	return b.String()
}

// bracketClass converts a leading [...] class; an unterminated bracket is
// treated as a literal '['. It returns the regex text and bytes consumed.
func bracketClass(s string) (string, int) {
	j := 1
	if j < len(s) && s[j] == '!' {
		j++
	}
	if j < len(s) && s[j] == ']' {
		j++
	}
	end := strings.IndexByte(s[j:], ']')
	if end < 0 {
		return regexp.QuoteMeta("["), 1
	}
	end += j

	class := s[1:end]
	if strings.HasPrefix(class, "!") {
		class = "^" + class[1:]
	}
	return "[" + class + "]", end + 1
}
