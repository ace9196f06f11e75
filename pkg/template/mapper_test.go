package template

import (
	"reflect"
	"testing"

	"github.com/loom-ui/loom/pkg/dom"
)

type opaque struct{ name string }

func build(t *testing.T, markup string, values ...any) *View {
	t.Helper()
	f := mustInterp(t, markup, values...)
	v, err := f.Build(func(name string) bool {
		return name == "w-if" || name == "w-each"
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return v
}

func TestBuildPlaceholder(t *testing.T) {
	val := &opaque{name: "body"}
	v := build(t, `<div>{}</div>`, val)

	if len(v.Placeholders) != 1 {
		t.Fatalf("placeholders = %d", len(v.Placeholders))
	}
	p := v.Placeholders[0]
	if p.Index != 0 || p.Value != any(val) {
		t.Errorf("placeholder = %+v", p)
	}
	if p.Node.Data != MarkerTag {
		t.Errorf("marker node = %q", p.Node.Data)
	}
	if _, ok := dom.Attr(p.Node, MarkerIndexAttr); ok {
		t.Error("marker attr not removed")
	}
	if p.Site.Context != SiteContent || p.Site.Enclosing != "div" {
		t.Errorf("site = %+v", p.Site)
	}
}

func TestBuildPlaceholderInTableRow(t *testing.T) {
	v := build(t, `<table><tbody>{}</tbody></table>`, &opaque{})

	if len(v.Placeholders) != 1 {
		t.Fatalf("placeholders = %d", len(v.Placeholders))
	}
	p := v.Placeholders[0]
	if p.Node.Data != "tr" {
		t.Errorf("marker node = %q, want tr", p.Node.Data)
	}
	if p.Node.Parent == nil || p.Node.Parent.Data != "tbody" {
		t.Error("marker ejected from tbody")
	}
}

func TestBuildTagBinding(t *testing.T) {
	val := &opaque{name: "handler"}
	v := build(t, `<button {}>Go</button>`, val)

	if len(v.TagBindings) != 1 {
		t.Fatalf("tag bindings = %d", len(v.TagBindings))
	}
	tb := v.TagBindings[0]
	if tb.Index != 0 || tb.Node.Data != "button" || tb.Value != any(val) {
		t.Errorf("tag binding = %+v", tb)
	}
	if len(tb.Node.Attr) != 0 {
		t.Errorf("marker attr not removed: %v", tb.Node.Attr)
	}
}

func TestBuildReactiveAttr(t *testing.T) {
	v := build(t, `<div class="{} panel" id="fixed">x</div>`, &opaque{})

	if len(v.ReactiveAttrs) != 1 {
		t.Fatalf("reactive attrs = %d", len(v.ReactiveAttrs))
	}
	ra := v.ReactiveAttrs[0]
	if ra.Name != "class" || ra.Template != "loom://0 panel" {
		t.Errorf("attr site = %+v", ra)
	}
	if !reflect.DeepEqual(ra.Indices, []int{0}) {
		t.Errorf("indices = %v", ra.Indices)
	}
}

func TestBuildDirective(t *testing.T) {
	v := build(t, `<div w-if="{}">shown</div>`, &opaque{})

	if len(v.Directives) != 1 {
		t.Fatalf("directives = %d", len(v.Directives))
	}
	d := v.Directives[0]
	if d.Name != "w-if" || d.Raw != "loom://0" {
		t.Errorf("directive = %+v", d)
	}
	if len(v.ReactiveAttrs) != 0 {
		t.Error("directive double-bucketed as reactive attr")
	}
}

func TestBuildRefs(t *testing.T) {
	v := build(t, `<form><input w-ref="email"><input w-ref="login.pass"></form>`)

	if v.Refs["email"] == nil || v.Refs["email"].Data != "input" {
		t.Errorf("refs = %v", v.Refs)
	}
	if v.Groups["login"] == nil || v.Groups["login"]["pass"] == nil {
		t.Errorf("groups = %v", v.Groups)
	}
	for name, n := range v.Refs {
		if dom.HasAttr(n, RefAttr) {
			t.Errorf("ref attr left on %q", name)
		}
	}
}

func TestBuildCollectedRefs(t *testing.T) {
	v := build(t, `<ul><li w-refs="items">a</li><li w-refs="items">b</li></ul>`)

	if len(v.Collected["items"]) != 2 {
		t.Fatalf("collected = %v", v.Collected)
	}
	if got := dom.TextContent(v.Collected["items"][0]); got != "a" {
		t.Errorf("first collected = %q", got)
	}
}

func TestBuildMultipleBucketsOneNode(t *testing.T) {
	// One element can carry a ref, a directive, and a reactive attribute
	// at the same time.
	v := build(t, `<input w-ref="q" w-if="{}" class="{}">`, &opaque{}, &opaque{})

	if v.Refs["q"] == nil {
		t.Error("ref missing")
	}
	if len(v.Directives) != 1 || len(v.ReactiveAttrs) != 1 {
		t.Errorf("directives=%d reactive=%d", len(v.Directives), len(v.ReactiveAttrs))
	}
	if v.Directives[0].Node != v.Refs["q"] || v.ReactiveAttrs[0].Node != v.Refs["q"] {
		t.Error("buckets disagree on node identity")
	}
}

func TestTokenIndices(t *testing.T) {
	got := TokenIndices("a loom://3 b loom://12loom://0")
	if !reflect.DeepEqual(got, []int{3, 12, 0}) {
		t.Errorf("indices = %v", got)
	}
	if TokenIndices("no tokens here") != nil {
		t.Error("expected nil for token-free string")
	}
}

func TestExpandTokens(t *testing.T) {
	got := ExpandTokens("x loom://1-loom://0", func(i int) string {
		return []string{"zero", "one"}[i]
	})
	if got != "x one-zero" {
		t.Errorf("expanded = %q", got)
	}
}

func TestSoleIndex(t *testing.T) {
	if SoleIndex("loom://4") != 4 {
		t.Error("single token")
	}
	if SoleIndex("loom://1 loom://2") != -1 {
		t.Error("two tokens should yield -1")
	}
	if SoleIndex("static") != -1 {
		t.Error("no token should yield -1")
	}
}
