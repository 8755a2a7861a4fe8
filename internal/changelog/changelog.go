// Package changelog pulls the newest release notes out of a plain-text
// changelog. Versions are separated by lines containing "##"; lines that
// start with "#" are headings and never part of the notes.
package changelog

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// SectionMarker separates version sections.
const SectionMarker = "##"

// ErrNoChanges is returned when no release notes can be extracted.
var ErrNoChanges = errors.New("no changes found in changelog")

// Latest reads the changelog at path and returns the newest section.
func Latest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoChanges, err)
	}
	changes := Extract(string(data))
	if changes == "" {
		return "", fmt.Errorf("%w: %s", ErrNoChanges, path)
	}
	return changes, nil
}

// Extract returns the body of the newest section of doc.
//
// Heading lines before any content are skipped, including the "##" header
// of the newest section. Only one "##" header may be skipped: a second one
// ends the newest section even when it is empty. Both of these yield "Fix A":
//
//	"# Title\n## v2\nFix A\n## v1\nFix B"
//	"Fix A\n## v1\nFix B"
func Extract(doc string) string {
	doc = strings.ReplaceAll(doc, "\r\n", "\n")

	var kept []string
	seenContent, seenHeader := false, false
	for _, line := range strings.Split(doc, "\n") {
		if strings.Contains(line, SectionMarker) {
			if seenContent || seenHeader {
				break
			}
			seenHeader = true
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.TrimSpace(line) != "" {
			seenContent = true
		}
		if seenContent {
			kept = append(kept, line)
		}
	}
	return strings.TrimRight(strings.Join(kept, "\n"), "\n")
}
