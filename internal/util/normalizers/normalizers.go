package normalizers

import (
	"fmt"
	"strings"

	"github.com/clientctl/clientctl/internal/meta"
)

const Indentation = `  `

// LongDesc trims a command's long description.
func LongDesc(s string) string {
	return strings.TrimSpace(s)
}

// Examples trims each example line and indents it. Blank lines stay blank.
// Occurrences of %[1]s are replaced with the CLI name.
func Examples(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if strings.Contains(s, "%[1]s") {
		s = fmt.Sprintf(s, meta.CLIName)
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines[i] = Indentation + trimmed
		} else {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}
