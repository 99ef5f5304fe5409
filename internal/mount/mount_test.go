package mount

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/htmlx/internal/sandbox"
)

const page = `<!DOCTYPE html>
<html>
<body>
  <template id="card"><p class="name">{{ name }}</p>{{{ extra }}}</template>
  <div id="app">loading</div>
  <div class="out"></div>
</body>
</html>`

func loadPage(t *testing.T) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func TestMount(t *testing.T) {
	doc := loadPage(t)

	target, err := New(nil).Mount(doc, "card", "#app", sandbox.Context{
		"name":  "A&B",
		"extra": "<em>hi</em>",
	})
	require.NoError(t, err)

	html, err := target.Html()
	require.NoError(t, err)
	assert.Equal(t, `<p class="name">A&amp;B</p><em>hi</em>`, html)
	assert.Equal(t, "A&B", doc.Find("#app p.name").Text())
}

func TestMountXPathTarget(t *testing.T) {
	doc := loadPage(t)

	_, err := New(nil).Mount(doc, "card", "//div[@class='out']", sandbox.Context{"name": "x", "extra": ""})
	require.NoError(t, err)
	assert.Equal(t, "x", doc.Find("div.out p").Text())
	assert.Equal(t, "loading", doc.Find("#app").Text())
}

func TestMountSanitizes(t *testing.T) {
	doc := loadPage(t)
	m := New(nil).WithPolicy(bluemonday.UGCPolicy())

	_, err := m.Mount(doc, "card", "#app", sandbox.Context{
		"name":  "ok",
		"extra": `<script>alert(1)</script><b>bold</b>`,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Find("#app script").Length())
	assert.Equal(t, "bold", doc.Find("#app b").Text())
}

func TestMountErrors(t *testing.T) {
	tests := []struct {
		name     string
		template string
		target   string
		want     error
	}{
		{name: "missing template", template: "nope", target: "#app", want: ErrTemplateNotFound},
		{name: "empty template id", template: "", target: "#app", want: ErrInvalidRef},
		{name: "missing target", template: "card", target: "#missing", want: ErrTargetNotFound},
		{name: "invalid selector", template: "card", target: "div[", want: ErrInvalidRef},
		{name: "invalid xpath", template: "card", target: "//div[", want: ErrInvalidRef},
		{name: "xpath without match", template: "card", target: "//section", want: ErrTargetNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil).Mount(loadPage(t), tt.template, tt.target, sandbox.Context{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
		})
	}
}

func TestMountErrorNamesRef(t *testing.T) {
	_, err := New(nil).Mount(loadPage(t), "sidebar", "#app", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"sidebar"`)
}

func TestMountRenderErrorLeavesTarget(t *testing.T) {
	doc := loadPage(t)

	_, err := New(nil).Mount(doc, "card", "#app", sandbox.Context{"name": "x"})
	require.Error(t, err)
	assert.Equal(t, sandbox.KindRuntime, sandbox.Kind(err))
	assert.Equal(t, "loading", doc.Find("#app").Text())
}

func TestNewRenderer(t *testing.T) {
	doc := loadPage(t)
	update := New(nil).NewRenderer(doc, "card", "#app")

	for _, name := range []string{"first", "second"} {
		_, err := update(sandbox.Context{"name": name, "extra": nil})
		require.NoError(t, err)
		assert.Equal(t, name, doc.Find("#app").Text())
	}
}

func TestMountSelectionRequiresElements(t *testing.T) {
	doc := loadPage(t)

	_, err := New(nil).MountSelection(doc.Find("#none"), doc.Find("#app"), nil)
	assert.ErrorIs(t, err, ErrInvalidRef)

	_, err = New(nil).MountSelection(doc.Find("#card"), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidRef)
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "1.0.0", Version)
}
