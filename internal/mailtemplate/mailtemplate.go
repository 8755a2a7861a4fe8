// Package mailtemplate turns a release email template into a subject and a
// body.
//
// A template is plain text. Placeholders are written {name}; "{{" and "}}"
// produce literal braces. After substitution, a line whose first word is
// #subject starts the subject section and a line whose first word is #body
// starts the body section. Lines before the first marker are ignored.
package mailtemplate

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Placeholder names understood by Render.
const (
	KeyDownloadURL = "app_download_url"
	KeyChangeLog   = "change_log"
	KeyAppName     = "app_name"
	KeyAppVersion  = "app_version"
)

const (
	subjectMarker = "#subject"
	bodyMarker    = "#body"
)

// ErrTemplate is returned when a template cannot be read or rendered.
var ErrTemplate = errors.New("template error")

// Values are the data substituted into a template.
type Values struct {
	AppName     string
	AppVersion  string
	DownloadURL string
	ChangeLog   string
}

func (v Values) lookup() map[string]string {
	return map[string]string{
		KeyDownloadURL: v.DownloadURL,
		KeyChangeLog:   v.ChangeLog,
		KeyAppName:     v.AppName,
		KeyAppVersion:  v.AppVersion,
	}
}

// Email is a rendered message.
type Email struct {
	Subject string
	Body    string
}

// Render loads the template at path, substitutes values and splits the
// result into subject and body.
func Render(path string, values Values) (Email, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Email{}, fmt.Errorf("%w: read %s: %v", ErrTemplate, path, err)
	}
	text, err := Substitute(string(data), values)
	if err != nil {
		return Email{}, err
	}
	subject, body := Split(text)
	return Email{Subject: subject, Body: body}, nil
}

// Substitute replaces every {name} placeholder in text. Unknown names and
// unbalanced braces are errors.
func Substitute(text string, values Values) (string, error) {
	lookup := values.lookup()

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed '{' at offset %d", ErrTemplate, i)
			}
			name := text[i+1 : i+1+end]
			value, ok := lookup[name]
			if !ok {
				return "", fmt.Errorf("%w: unknown placeholder {%s}", ErrTemplate, name)
			}
			b.WriteString(value)
			i += end + 1
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("%w: single '}' at offset %d", ErrTemplate, i)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

type section int

const (
	sectionNone section = iota
	sectionSubject
	sectionBody
)

// Split scans rendered text line by line and collects the #subject and
// #body sections. Both results are right-trimmed. A missing section yields
// an empty string.
func Split(text string) (subject, body string) {
	var subj, bod strings.Builder
	target := sectionNone

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		switch markerOf(line) {
		case subjectMarker:
			target = sectionSubject
			continue
		case bodyMarker:
			target = sectionBody
			continue
		}

		switch target {
		case sectionSubject:
			subj.WriteString(line)
			subj.WriteByte('\n')
		case sectionBody:
			bod.WriteString(line)
			bod.WriteByte('\n')
		}
	}
	return strings.TrimRight(subj.String(), " \t\r\n"), strings.TrimRight(bod.String(), " \t\r\n")
}

// markerOf returns the section marker on line, or "" when the line is content.
// Markers start at the beginning of the line; "#subject-en", "#subjective"
// and an indented "  #subject" are content, not markers.
func markerOf(line string) string {
	if !strings.HasPrefix(line, "#") {
		return ""
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case subjectMarker, bodyMarker:
		return fields[0]
	}
	return ""
}
