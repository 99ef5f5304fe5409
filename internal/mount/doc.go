/*
Package mount renders templates that live inside an HTML document.

A template is any element with an id, usually a <template>. Its inner HTML,
as serialised by golang.org/x/net/html, is rendered with the render package
and written into the target element, replacing the target's children. Targets
are addressed with a CSS selector or an XPath expression.

Serialisation escapes text the same way a browser's innerHTML does, so an
expression written in template text as {{ a && b }} reaches the evaluator as
{{ a &amp;&amp; b }}. Keep such operators out of template elements, or render
the template string directly with the render package.

Usage:

	doc, _ := goquery.NewDocumentFromReader(r)
	m := mount.New(nil).WithPolicy(bluemonday.UGCPolicy())
	update := m.NewRenderer(doc, "card", "#app")
	if _, err := update(sandbox.Context{"name": "Ada"}); err != nil {
		return err
	}
	html, _ := doc.Html()
*/
package mount
