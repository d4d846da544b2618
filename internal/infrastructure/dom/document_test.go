package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pathsHTML = `<html><body>
<div><p>one</p></div>
<div><form><input name="a"><input name="b"></form></div>
</body></html>`

func TestDocument_QueryAndMutate(t *testing.T) {
	doc, err := Parse(`<html><body><div id="x" onclick="f()" style="c">Hello</div><span>bye</span></body></html>`)
	require.NoError(t, err)

	nodes := doc.Query("#x")
	require.Len(t, nodes, 1)
	assert.Equal(t, "Hello", doc.Text(nodes[0]))

	doc.RemoveAttribute(nodes[0], "onclick")
	v, ok := doc.Attr(nodes[0], "style")
	assert.True(t, ok)
	assert.Equal(t, "c", v)

	doc.Replace(doc.Query("span")[0], "<em>new</em>")
	out, err := doc.Render()
	require.NoError(t, err)
	assert.NotContains(t, out, "onclick")
	assert.Contains(t, out, "<em>new</em>")
	assert.NotContains(t, out, "bye")
}

func TestDocument_QueryWithin(t *testing.T) {
	doc, err := Parse(pathsHTML)
	require.NoError(t, err)

	forms := doc.Query("form")
	require.Len(t, forms, 1)
	assert.Len(t, doc.QueryWithin(forms[0], "input"), 2)
}

func TestXPathRoundTrip(t *testing.T) {
	doc, err := Parse(pathsHTML)
	require.NoError(t, err)

	inputs := doc.Query("input")
	require.Len(t, inputs, 2)

	xp := XPath(inputs[1])
	assert.Equal(t, "/html/body/div[2]/form/input[2]", xp)
	assert.Same(t, inputs[1], FindXPath(doc.Root(), xp))
	assert.Nil(t, FindXPath(doc.Root(), "/html/body/div[3]"))
	assert.Nil(t, FindXPath(doc.Root(), "relative/path"))
}

func TestCSSPathSelectsSameNode(t *testing.T) {
	doc, err := Parse(pathsHTML)
	require.NoError(t, err)

	target := doc.Query("input")[1]
	sel := CSSPath(target)
	assert.True(t, strings.HasPrefix(sel, "html > body > div:nth-of-type(2)"))

	found := doc.Query(sel)
	require.Len(t, found, 1)
	assert.Same(t, target, found[0])
}
