package results

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/journal-ai/uploader/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func response(t *testing.T, body string) *models.ProcessResponse {
	t.Helper()
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	return &models.ProcessResponse{Raw: raw}
}

func TestPresenter_Transcription(t *testing.T) {
	p := New(response(t, `{"processed_pages":1,"results":{"texts":["hello"]}}`))

	v := p.View(TabTranscription)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "Page 1", v.Items[0].Title)
	assert.Equal(t, "hello", v.Items[0].Body)
	assert.Equal(t, "Transcribed Journal Pages", v.Heading)

	for _, tab := range []Tab{TabThemes, TabInsights, TabOrganization} {
		assert.True(t, p.View(tab).Empty(), "tab %s", tab)
	}
}

func TestPresenter_MissingData(t *testing.T) {
	tests := []struct {
		name string
		resp *models.ProcessResponse
	}{
		{name: "nil response", resp: nil},
		{name: "no results", resp: response(t, `{"processed_pages":0}`)},
		{name: "results not an object", resp: response(t, `{"results":"oops"}`)},
		{name: "texts not a list", resp: response(t, `{"results":{"texts":"hello"}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.resp)
			views := p.Views()
			require.Len(t, views, 4)
			for _, v := range views {
				assert.True(t, v.Empty(), "tab %s", v.Tab)
				assert.Equal(t, "", RenderText(v))
				out, err := RenderHTML(v)
				assert.NoError(t, err)
				assert.Equal(t, "", out)
			}
		})
	}
}

func TestPresenter_StructuredViews(t *testing.T) {
	p := New(response(t, `{
		"results": {
			"texts": ["a", "b"],
			"analysis": {"themes": [{"name": "Work", "description": "deadlines"}, "Family"], "sentiment": "positive"},
			"insights": ["Sleep more", {"title": "Mood", "summary": "improving", "score": 0.8}],
			"organization": {"by_topic": {"work": [1, 2]}}
		}
	}`))

	themes := p.View(TabThemes)
	require.Len(t, themes.Items, 2)
	assert.Equal(t, "Sentiment", themes.Items[0].Title)
	assert.Equal(t, "positive", themes.Items[0].Body)
	assert.Equal(t, "Themes", themes.Items[1].Title)
	require.Len(t, themes.Items[1].Children, 2)
	assert.Equal(t, "Work", themes.Items[1].Children[0].Title)
	assert.Equal(t, "deadlines", themes.Items[1].Children[0].Body)
	assert.Empty(t, themes.Items[1].Children[0].Children)
	assert.Equal(t, "Family", themes.Items[1].Children[1].Body)

	insights := p.View(TabInsights)
	require.Len(t, insights.Items, 2)
	assert.Equal(t, "Sleep more", insights.Items[0].Body)
	assert.Equal(t, "Mood", insights.Items[1].Title)
	require.Len(t, insights.Items[1].Children, 1)
	assert.Equal(t, "Score", insights.Items[1].Children[0].Title)
	assert.Equal(t, "0.8", insights.Items[1].Children[0].Body)

	org := p.View(TabOrganization)
	require.Len(t, org.Items, 1)
	assert.Equal(t, "By Topic", org.Items[0].Title)
}

func TestPresenter_Select(t *testing.T) {
	resp := response(t, `{"results":{"texts":["x"]}}`)
	p := New(resp)

	assert.Equal(t, TabTranscription, p.Active())
	require.NoError(t, p.Select(TabInsights))
	assert.Equal(t, TabInsights, p.Active())
	assert.Equal(t, TabInsights, p.ActiveView().Tab)

	assert.Error(t, p.Select("summary"))
	assert.Equal(t, TabInsights, p.Active())

	// switching tabs is presentation only
	resp.Raw["results"] = map[string]any{"texts": []any{"changed"}}
	require.NoError(t, p.Select(TabTranscription))
	assert.Equal(t, "x", p.ActiveView().Items[0].Body)
}

func TestParseTab(t *testing.T) {
	tab, err := ParseTab(" Themes ")
	require.NoError(t, err)
	assert.Equal(t, TabThemes, tab)
	assert.Equal(t, "Themes & Topics", tab.Title())

	_, err = ParseTab("bogus")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	p := New(response(t, `{"results":{"texts":["dear diary\nline two", "<b>bold</b> & *stars*"]}}`))
	v := p.View(TabTranscription)

	t.Run("text", func(t *testing.T) {
		out := RenderText(v)
		assert.Equal(t, "Transcribed Journal Pages\n\nPage 1\ndear diary\nline two\n\nPage 2\n<b>bold</b> & *stars*\n", out)
	})

	t.Run("markdown escapes response text", func(t *testing.T) {
		out := RenderMarkdown(v)
		assert.True(t, strings.HasPrefix(out, "## Transcribed Journal Pages\n\n### Page 1\n\n"))
		assert.Contains(t, out, `\<b\>bold\<\/b\> \& \*stars\*`)
	})

	t.Run("html", func(t *testing.T) {
		out, err := RenderHTML(v)
		require.NoError(t, err)
		assert.Contains(t, out, "<h2>Transcribed Journal Pages</h2>")
		assert.Contains(t, out, "<h3>Page 1</h3>")
		assert.Regexp(t, `dear diary<br ?/?>\nline two`, out)
		assert.Contains(t, out, "&lt;b&gt;bold&lt;/b&gt; &amp; *stars*")
		assert.NotContains(t, out, "<b>bold</b>")
	})

	t.Run("by format", func(t *testing.T) {
		f, err := ParseFormat("")
		require.NoError(t, err)
		out, err := Render(v, f)
		require.NoError(t, err)
		assert.Equal(t, RenderText(v), out)

		_, err = ParseFormat("pdf")
		assert.Error(t, err)
	})
}

func TestRenderText_Nested(t *testing.T) {
	v := View{Heading: "Insights", Items: []Item{
		{Title: "Mood", Children: []Item{{Title: "Trend", Body: "up"}, {Body: "note"}}},
	}}
	assert.Equal(t, "Insights\n\nMood\n  - Trend: up\n  - note\n", RenderText(v))
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "By Topic", humanize("by_topic"))
	assert.Equal(t, "Mood Trends", humanize("mood-trends"))
	assert.Equal(t, "Émotions", humanize("émotions"))
}
