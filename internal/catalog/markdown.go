package catalog

import (
	"bufio"
	"strings"
)

const abstractHeading = "## Abstract"

// AbstractFromMarkdown extracts the abstract section from a rendered paper.
//
// Notes:
//   - The section starts after the first line containing "## Abstract" and
//     ends at the next line starting with "## ".
//   - Blank lines inside the section are preserved; surrounding whitespace is
//     trimmed.
//   - When no abstract heading exists the trimmed document is returned.
func AbstractFromMarkdown(md string) string {
	sc := bufio.NewScanner(strings.NewReader(md))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var b strings.Builder
	inAbstract := false
	found := false
	for sc.Scan() {
		line := sc.Text()
		if !inAbstract {
			if strings.Contains(line, abstractHeading) {
				inAbstract = true
				found = true
			}
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "## ") {
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if !found {
		return strings.TrimSpace(md)
	}
	return strings.TrimSpace(b.String())
}
