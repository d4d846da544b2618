package static

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const formPage = `<html><head><title>Contact</title></head><body>
<form id="contact">
  <input id="email" name="email" type="email" value="old@example.com">
  <input id="age" name="age" type="number">
  <textarea id="msg" name="msg">hi</textarea>
  <select id="topic" name="topic"><option value="a">A</option><option value="b">B</option></select>
  <input type="radio" name="size" value="s" checked><input type="radio" name="size" value="m">
  <input type="checkbox" name="news">
  <input id="locked" name="locked" readonly value="x">
</form>
<iframe src="inner.html" name="inner"></iframe>
</body></html>`

func newTestSite() *Site {
	return NewSite("https://example.com/index.html", map[string]string{
		"https://example.com/index.html": formPage,
		"inner.html":                     `<html><head><title>Inner</title></head><body><input id="q" name="q"></body></html>`,
	})
}

func TestFrame_ContentAndChildren(t *testing.T) {
	site := newTestSite()
	ctx := context.Background()

	root := site.Root()
	content, err := root.Content(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Contact", content.Title)
	assert.Equal(t, "example.com", content.Domain)
	assert.Contains(t, content.HTML, `<form id="contact">`)

	children, err := root.Children(ctx)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "inner.html", children[0].Src())
	assert.Equal(t, "inner", children[0].Name())
}

func TestFrame_DeniedAndDelayed(t *testing.T) {
	site := newTestSite()
	site.Deny("inner.html")
	site.Delay("https://example.com/index.html", time.Second)

	children, err := site.Root().Children(context.Background())
	require.NoError(t, err)
	_, err = children[0].Content(context.Background())
	assert.ErrorIs(t, err, entity.ErrAccessDenied)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = site.Root().Content(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFrame_FailPings(t *testing.T) {
	site := newTestSite()
	site.FailPings("inner.html", 1)
	children, err := site.Root().Children(context.Background())
	require.NoError(t, err)

	assert.Error(t, children[0].Ping(context.Background()))
	assert.NoError(t, children[0].Ping(context.Background()))
}

func TestTarget_Elements(t *testing.T) {
	site := newTestSite()
	ctx := context.Background()
	target, err := site.Target(ctx, "")
	require.NoError(t, err)

	t.Run("input", func(t *testing.T) {
		el, err := target.BySelector(ctx, "#email")
		require.NoError(t, err)
		assert.Equal(t, output.KindInput, el.Kind())
		v, _ := el.Value(ctx)
		assert.Equal(t, "old@example.com", v)
		require.NoError(t, el.SetValue(ctx, "new@example.com"))
		v, _ = el.Value(ctx)
		assert.Equal(t, "new@example.com", v)
	})

	t.Run("number drops text", func(t *testing.T) {
		el, err := target.BySelector(ctx, "#age")
		require.NoError(t, err)
		require.NoError(t, el.SetValue(ctx, "thirty"))
		v, _ := el.Value(ctx)
		assert.Equal(t, "", v)
	})

	t.Run("textarea", func(t *testing.T) {
		el, err := target.BySelector(ctx, "#msg")
		require.NoError(t, err)
		require.NoError(t, el.SetValue(ctx, "hello there"))
		v, _ := el.Value(ctx)
		assert.Equal(t, "hello there", v)
	})

	t.Run("select", func(t *testing.T) {
		el, err := target.BySelector(ctx, "#topic")
		require.NoError(t, err)
		v, _ := el.Value(ctx)
		assert.Equal(t, "a", v)
		require.NoError(t, el.SelectOption(ctx, "b"))
		v, _ = el.Value(ctx)
		assert.Equal(t, "b", v)
		assert.Error(t, el.SelectOption(ctx, "z"))
	})

	t.Run("radio group", func(t *testing.T) {
		el, err := target.BySelector(ctx, `input[name="size"]`)
		require.NoError(t, err)
		assert.Equal(t, output.KindRadio, el.Kind())
		require.NoError(t, el.Check(ctx, []string{"m"}))
		v, _ := el.Value(ctx)
		assert.Equal(t, "m", v)
	})

	t.Run("checkbox without value", func(t *testing.T) {
		el, err := target.BySelector(ctx, `input[name="news"]`)
		require.NoError(t, err)
		require.NoError(t, el.Check(ctx, []string{"on"}))
		v, _ := el.Value(ctx)
		assert.Equal(t, "on", v)
	})

	t.Run("readonly", func(t *testing.T) {
		el, err := target.BySelector(ctx, "#locked")
		require.NoError(t, err)
		assert.Error(t, el.SetValue(ctx, "y"))
	})

	t.Run("xpath", func(t *testing.T) {
		el, err := target.ByXPath(ctx, "/html/body/form/textarea")
		require.NoError(t, err)
		assert.Equal(t, output.KindTextarea, el.Kind())
	})

	t.Run("missing", func(t *testing.T) {
		_, err := target.BySelector(ctx, "#nope")
		assert.ErrorIs(t, err, entity.ErrFieldNotFound)
	})
}

func TestTarget_IframePath(t *testing.T) {
	site := newTestSite()
	ctx := context.Background()

	target, err := site.Target(ctx, "0")
	require.NoError(t, err)
	el, err := target.BySelector(ctx, "#q")
	require.NoError(t, err)
	require.NoError(t, el.SetValue(ctx, "query"))
	require.NoError(t, el.Highlight(ctx))

	rendered, err := site.Render("inner.html")
	require.NoError(t, err)
	assert.Contains(t, rendered, `value="query"`)
	assert.Contains(t, rendered, highlightAttr)

	_, err = site.Target(ctx, "3")
	assert.ErrorIs(t, err, entity.ErrFieldNotFound)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "frames"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"),
		[]byte(`<html><body><iframe src="frames/a.html"></iframe></body></html>`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frames", "a.html"),
		[]byte(`<html><body>A</body></html>`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644))

	site, err := LoadDir(dir, "index.html")
	require.NoError(t, err)
	assert.Equal(t, "index.html", site.RootSrc())

	children, err := site.Root().Children(context.Background())
	require.NoError(t, err)
	require.Len(t, children, 1)
	content, err := children[0].Content(context.Background())
	require.NoError(t, err)
	assert.Contains(t, content.HTML, "A")

	_, err = LoadDir(dir, "missing.html")
	assert.Error(t, err)
}
