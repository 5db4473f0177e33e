package secrets

import (
	"regexp"
	"sort"
	"strings"
)

var shellNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SecretSet maps secret names to their resolved values.
type SecretSet map[string]string

// Names returns the secret names in sorted order.
func (s SecretSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithoutPrefix returns a copy of s without names starting with prefix.
// An empty prefix keeps everything.
func (s SecretSet) WithoutPrefix(prefix string) SecretSet {
	out := make(SecretSet, len(s))
	for name, value := range s {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			continue
		}
		out[name] = value
	}
	return out
}

// ShellExports renders one `export NAME='VALUE'` line per secret, sorted by name.
func (s SecretSet) ShellExports() []byte {
	var b strings.Builder
	for _, name := range s.Names() {
		b.WriteString("export ")
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(QuoteShell(s[name]))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// QuoteShell wraps v in single quotes. An embedded quote closes the string,
// emits an escaped quote and reopens it: it's -> 'it'\''s'.
func QuoteShell(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}

// ValidName reports whether name can be used as a POSIX shell variable.
func ValidName(name string) bool {
	return shellNameRegex.MatchString(name)
}
