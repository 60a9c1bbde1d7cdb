package commands

import "strings"

// indentation is the indentation of the examples in the help output.
const indentation = `  `

// longDesc trims a command's long description.
func longDesc(s string) string {
	return strings.TrimSpace(s)
}

// examples trims a command's examples and indents every line.
func examples(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	lines := make([]string, 0, strings.Count(s, "\n")+1)
	for line := range strings.SplitSeq(s, "\n") {
		lines = append(lines, indentation+strings.TrimSpace(line))
	}

	return strings.Join(lines, "\n")
}
