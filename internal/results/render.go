package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// Format selects how a view is rendered.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat validates a format name. The empty string means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatText, nil
	case FormatText, FormatMarkdown, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("unknown format: %q", s)
}

var md = goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps()))

// Render renders v in the given format. Empty views render as "".
func Render(v View, f Format) (string, error) {
	switch f {
	case FormatText, "":
		return RenderText(v), nil
	case FormatMarkdown:
		return RenderMarkdown(v), nil
	case FormatHTML:
		return RenderHTML(v)
	}
	return "", fmt.Errorf("unknown format: %q", f)
}

// RenderText renders v as plain text.
func RenderText(v View) string {
	if v.Empty() {
		return ""
	}
	var b strings.Builder
	b.WriteString(v.Heading)
	b.WriteString("\n")
	for _, it := range v.Items {
		b.WriteString("\n")
		writeTextItem(&b, it, 0)
	}
	return b.String()
}

func writeTextItem(b *strings.Builder, it Item, depth int) {
	indent := strings.Repeat("  ", depth)
	switch {
	case it.Title != "" && it.Body != "" && depth > 0:
		fmt.Fprintf(b, "%s- %s: %s\n", indent, it.Title, it.Body)
	case it.Title != "":
		if depth > 0 {
			fmt.Fprintf(b, "%s- %s\n", indent, it.Title)
		} else {
			fmt.Fprintf(b, "%s\n", it.Title)
		}
		if it.Body != "" {
			fmt.Fprintf(b, "%s\n", it.Body)
		}
	case it.Body != "":
		if depth > 0 {
			fmt.Fprintf(b, "%s- %s\n", indent, it.Body)
		} else {
			fmt.Fprintf(b, "%s\n", it.Body)
		}
	}
	for _, c := range it.Children {
		writeTextItem(b, c, depth+1)
	}
}

// RenderMarkdown renders v as CommonMark. Text from the response is escaped
// so it is never interpreted as markup.
func RenderMarkdown(v View) string {
	if v.Empty() {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", escapeMarkdown(v.Heading))
	for _, it := range v.Items {
		if len(it.Children) == 0 && it.Title != "" {
			fmt.Fprintf(&b, "### %s\n\n", escapeMarkdown(it.Title))
			if it.Body != "" {
				fmt.Fprintf(&b, "%s\n\n", escapeMarkdown(it.Body))
			}
			continue
		}
		writeMarkdownItem(&b, it, 0)
		b.WriteString("\n")
	}
	return b.String()
}

func writeMarkdownItem(b *strings.Builder, it Item, depth int) {
	indent := strings.Repeat("  ", depth)
	line := ""
	switch {
	case it.Title != "" && it.Body != "":
		line = "**" + escapeMarkdown(it.Title) + "**: " + escapeMarkdown(it.Body)
	case it.Title != "":
		line = "**" + escapeMarkdown(it.Title) + "**"
	default:
		line = escapeMarkdown(it.Body)
	}
	fmt.Fprintf(b, "%s- %s\n", indent, strings.ReplaceAll(line, "\n", "\n"+indent+"  "))
	for _, c := range it.Children {
		writeMarkdownItem(b, c, depth+1)
	}
}

// RenderHTML renders v as an HTML fragment via goldmark.
func RenderHTML(v View) (string, error) {
	src := RenderMarkdown(v)
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering %s view: %w", v.Tab, err)
	}
	return buf.String(), nil
}

// escapeMarkdown backslash-escapes every ASCII punctuation character, which
// CommonMark always treats as a literal.
func escapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 && strings.ContainsRune("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(out)
}
