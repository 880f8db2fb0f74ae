// Package results turns a processing response into the four tabbed views the
// uploader shows after a successful submission.
package results

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/journal-ai/uploader/internal/models"
)

// Tab names one of the result views.
type Tab string

const (
	TabTranscription Tab = "transcription"
	TabThemes        Tab = "themes"
	TabInsights      Tab = "insights"
	TabOrganization  Tab = "organization"
)

// Tabs lists the views in display order.
var Tabs = []Tab{TabTranscription, TabThemes, TabInsights, TabOrganization}

var tabTitles = map[Tab]string{
	TabTranscription: "Transcription",
	TabThemes:        "Themes & Topics",
	TabInsights:      "Insights",
	TabOrganization:  "Organization",
}

var viewHeadings = map[Tab]string{
	TabTranscription: "Transcribed Journal Pages",
	TabThemes:        "Themes & Topics",
	TabInsights:      "Insights",
	TabOrganization:  "Organization",
}

// resultFields maps each view to its key under "results".
var resultFields = map[Tab]string{
	TabTranscription: "texts",
	TabThemes:        "analysis",
	TabInsights:      "insights",
	TabOrganization:  "organization",
}

// Title is the label of the tab button.
func (t Tab) Title() string {
	return tabTitles[t]
}

// ParseTab validates a tab name.
func ParseTab(s string) (Tab, error) {
	t := Tab(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tabTitles[t]; !ok {
		return "", fmt.Errorf("unknown tab: %q", s)
	}
	return t, nil
}

// Item is one entry of a view. Items nest for structured analysis output.
type Item struct {
	Title    string `json:"title,omitempty" msgpack:"title,omitempty"`
	Body     string `json:"body,omitempty" msgpack:"body,omitempty"`
	Children []Item `json:"children,omitempty" msgpack:"children,omitempty"`
}

// View is the content of one tab. A view without items renders empty.
type View struct {
	Tab     Tab    `json:"tab" msgpack:"tab"`
	Title   string `json:"title" msgpack:"title"`
	Heading string `json:"heading" msgpack:"heading"`
	Items   []Item `json:"items" msgpack:"items"`
}

// Empty reports whether the view has nothing to show.
func (v View) Empty() bool {
	return len(v.Items) == 0
}

// Presenter holds the views built from one response and the active tab.
// Switching tabs never touches the response again.
type Presenter struct {
	mu     sync.RWMutex
	views  map[Tab]View
	active Tab
	resp   *models.ProcessResponse
}

// New builds the views of resp. A nil response yields four empty views.
func New(resp *models.ProcessResponse) *Presenter {
	p := &Presenter{
		views:  make(map[Tab]View, len(Tabs)),
		active: TabTranscription,
		resp:   resp,
	}
	for _, t := range Tabs {
		v := View{Tab: t, Title: t.Title(), Heading: viewHeadings[t], Items: []Item{}}
		raw := resp.Field(resultFields[t])
		if t == TabTranscription {
			v.Items = append(v.Items, transcriptionItems(raw)...)
		} else {
			v.Items = append(v.Items, itemsFrom(raw)...)
		}
		p.views[t] = v
	}
	return p
}

// Response returns the payload the views were built from.
func (p *Presenter) Response() *models.ProcessResponse {
	return p.resp
}

// Active returns the visible tab.
func (p *Presenter) Active() Tab {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active
}

// Select makes tab the single visible tab.
func (p *Presenter) Select(tab Tab) error {
	if _, ok := tabTitles[tab]; !ok {
		return fmt.Errorf("unknown tab: %q", tab)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = tab
	return nil
}

// View returns the content of tab.
func (p *Presenter) View(tab Tab) View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.views[tab]
}

// ActiveView returns the content of the visible tab.
func (p *Presenter) ActiveView() View {
	return p.View(p.Active())
}

// Views returns every view in display order.
func (p *Presenter) Views() []View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]View, 0, len(Tabs))
	for _, t := range Tabs {
		out = append(out, p.views[t])
	}
	return out
}

func transcriptionItems(raw any) []Item {
	texts, ok := raw.([]any)
	if !ok {
		return nil
	}
	items := make([]Item, 0, len(texts))
	for i, t := range texts {
		items = append(items, Item{Title: fmt.Sprintf("Page %d", i+1), Body: scalarText(t)})
	}
	return items
}

// titleKeys and bodyKeys name the fields used to label an object in a list.
var (
	titleKeys = []string{"title", "name", "theme", "topic", "label", "category"}
	bodyKeys  = []string{"description", "summary", "text", "content", "detail"}
)

// itemsFrom converts arbitrary decoded JSON into items. Nothing here fails:
// unknown shapes degrade to their JSON text.
func itemsFrom(raw any) []Item {
	switch v := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]Item, 0, len(keys))
		for _, k := range keys {
			items = append(items, keyedItem(humanize(k), v[k]))
		}
		return items
	case []any:
		items := make([]Item, 0, len(v))
		for _, el := range v {
			if obj, ok := el.(map[string]any); ok {
				items = append(items, objectItem(obj))
				continue
			}
			if el == nil {
				continue
			}
			items = append(items, keyedItem("", el))
		}
		return items
	default:
		return []Item{{Body: scalarText(v)}}
	}
}

func keyedItem(title string, v any) Item {
	switch v.(type) {
	case map[string]any, []any:
		return Item{Title: title, Children: itemsFrom(v)}
	}
	return Item{Title: title, Body: scalarText(v)}
}

func objectItem(obj map[string]any) Item {
	item := Item{}
	rest := make(map[string]any, len(obj))
	for k, v := range obj {
		rest[k] = v
	}
	for _, k := range titleKeys {
		if s, ok := obj[k].(string); ok && s != "" {
			item.Title = s
			delete(rest, k)
			break
		}
	}
	for _, k := range bodyKeys {
		if s, ok := obj[k].(string); ok && s != "" {
			item.Body = s
			delete(rest, k)
			break
		}
	}
	item.Children = itemsFrom(rest)
	return item
}

func humanize(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
