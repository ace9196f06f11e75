package engine

import (
	"strings"
	"testing"

	"github.com/loom-ui/loom/internal/errors"
	"github.com/loom-ui/loom/pkg/dom"
	"github.com/loom-ui/loom/pkg/list"
	"github.com/loom-ui/loom/pkg/loop"
	"github.com/loom-ui/loom/pkg/reactive"
	"github.com/loom-ui/loom/pkg/template"
)

func render(t *testing.T, e *Engine, markup string, values ...any) *Instance {
	t.Helper()
	f, err := template.Interp(markup, values...)
	if err != nil {
		t.Fatalf("Interp: %v", err)
	}
	inst, err := e.Render(f)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return inst
}

func mustHTML(t *testing.T, inst *Instance) string {
	t.Helper()
	s, err := inst.HTML()
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	return s
}

func TestRenderPrimitiveAndContentBinding(t *testing.T) {
	e := New(loop.NewManual())
	title := reactive.NewCell("Loom")

	inst := render(t, e, `<div><h1>{}</h1><p>{}</p></div>`, "Welcome", title)

	html := mustHTML(t, inst)
	if !strings.Contains(html, "<h1>Welcome</h1>") {
		t.Errorf("html = %q", html)
	}
	if !strings.Contains(html, "Loom") {
		t.Errorf("html = %q", html)
	}

	title.Set("Weaver")
	html = mustHTML(t, inst)
	if !strings.Contains(html, "Weaver") || strings.Contains(html, "Loom") {
		t.Errorf("html after set = %q", html)
	}
}

func TestRenderReactiveAttr(t *testing.T) {
	e := New(loop.NewManual())
	theme := reactive.NewCell("dark")

	inst := render(t, e, `<div class="{}">x</div>`, theme)

	root := inst.Roots[0]
	if got, _ := dom.Attr(root, "class"); got != "dark" {
		t.Errorf("class = %q", got)
	}
	theme.Set("light")
	if got, _ := dom.Attr(root, "class"); got != "light" {
		t.Errorf("class = %q", got)
	}
}

func TestRenderCompositeAttr(t *testing.T) {
	e := New(loop.NewManual())
	theme := reactive.NewCell("dark")

	inst := render(t, e, `<div class="panel {} wide">x</div>`, theme)

	root := inst.Roots[0]
	if got, _ := dom.Attr(root, "class"); got != "panel dark wide" {
		t.Errorf("class = %q", got)
	}
	theme.Set("light")
	if got, _ := dom.Attr(root, "class"); got != "panel light wide" {
		t.Errorf("class = %q", got)
	}
}

func TestRenderDeferredValueAttr(t *testing.T) {
	sched := loop.NewManual()
	e := New(sched)
	text := reactive.NewCell("draft")

	inst := render(t, e, `<input value="{}">`, text)

	root := inst.Roots[0]
	if dom.HasAttr(root, "value") {
		t.Fatal("form-control value rendered before the next turn")
	}
	sched.Flush()
	if got, _ := dom.Attr(root, "value"); got != "draft" {
		t.Errorf("value = %q", got)
	}
}

func TestRenderConditionalChain(t *testing.T) {
	e := New(loop.NewManual())
	a := reactive.NewCell(false)
	b := reactive.NewCell(true)

	inst := render(t, e,
		`<div><section w-if="{}">A</section><section w-elif="{}">B</section><section w-else>C</section></div>`,
		a, b)

	visible := func() string {
		var out []string
		for _, el := range dom.ChildElements(inst.Roots[0]) {
			out = append(out, dom.TextContent(el))
		}
		return strings.Join(out, "")
	}

	if got := visible(); got != "B" {
		t.Fatalf("visible = %q", got)
	}
	b.Set(false)
	if got := visible(); got != "C" {
		t.Errorf("visible = %q", got)
	}
	a.Set(true)
	if got := visible(); got != "A" {
		t.Errorf("visible = %q", got)
	}
}

func TestRenderInlineOr(t *testing.T) {
	e := New(loop.NewManual())
	primary := reactive.NewCell(false)
	fallback := reactive.NewCell(true)

	inst := render(t, e, `<div><section w-if="{}" w-or="{}">S</section></div>`, primary, fallback)

	if got := dom.TextContent(inst.Roots[0]); got != "S" {
		t.Fatalf("secondary condition ignored: %q", got)
	}
	fallback.Set(false)
	if got := dom.TextContent(inst.Roots[0]); got != "" {
		t.Errorf("block still visible: %q", got)
	}
}

func TestRenderOrphanChainBlockIsolated(t *testing.T) {
	e := New(loop.NewManual())
	b := reactive.NewCell(true)

	// No establishing sibling before the elif: the node is marked
	// errored, the rest renders.
	inst := render(t, e, `<div><p>lead</p><section w-elif="{}">B</section><p>tail</p></div>`, b)

	if !inst.Errored(dom.ChildElements(inst.Roots[0])[1]) {
		t.Error("orphan block not marked errored")
	}
	if got := dom.TextContent(inst.Roots[0]); !strings.Contains(got, "tail") {
		t.Errorf("siblings affected: %q", got)
	}
}

func TestRenderEachDirective(t *testing.T) {
	sched := loop.NewManual()
	e := New(sched)
	items := reactive.NewCollection("a", "b", "c")

	inst := render(t, e, `<ul w-each="{}"></ul>`, Each{
		List: items,
		Compose: func(item any) any {
			el := dom.Element("li")
			dom.SetTextContent(el, item.(string))
			return el
		},
	})

	if got := dom.TextContent(inst.Roots[0]); got != "abc" {
		t.Fatalf("list = %q", got)
	}

	items.Append("d")
	sched.Flush()
	if got := dom.TextContent(inst.Roots[0]); got != "abcd" {
		t.Errorf("list after append = %q", got)
	}

	if len(inst.Lists()) != 1 {
		t.Fatalf("reconcilers = %d", len(inst.Lists()))
	}
	if err := inst.Lists()[0].SetWindow(&list.Window{Start: 1, End: 3}); err != nil {
		t.Fatalf("SetWindow: %v", err)
	}
	if got := dom.TextContent(inst.Roots[0]); got != "bc" {
		t.Errorf("windowed list = %q", got)
	}
}

func TestRenderEachConstructionErrorPropagates(t *testing.T) {
	e := New(loop.NewManual())

	f, err := template.Interp(`<ul w-each="{}"></ul>`, Each{
		List:    "not a collection",
		Compose: func(any) any { return dom.Element("li") },
	})
	if err != nil {
		t.Fatalf("Interp: %v", err)
	}
	if _, err := e.Render(f); !errors.IsConstruction(err) {
		t.Fatalf("err = %v, want construction error", err)
	}
}

func TestRenderEachMissingFields(t *testing.T) {
	e := New(loop.NewManual())

	f, _ := template.Interp(`<ul w-each="{}"></ul>`, Each{List: reactive.NewCollection("x")})
	if _, err := e.Render(f); !errors.IsConstruction(err) {
		t.Fatalf("missing compose: err = %v", err)
	}
}

func TestEventDispatch(t *testing.T) {
	sched := loop.NewManual()
	e := New(sched)

	var clicks []Event
	inst := render(t, e, `<button on-click="{}">Go</button>`, func(ev Event) {
		clicks = append(clicks, ev)
	})

	id, ok := dom.Attr(inst.Roots[0], NodeIDAttr)
	if !ok {
		t.Fatal("handler node has no id")
	}

	if err := inst.Dispatch(id, "click", map[string]any{"x": 4}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(clicks) != 0 {
		t.Fatal("handler ran off the loop")
	}
	sched.Flush()
	if len(clicks) != 1 || clicks[0].Type != "click" || clicks[0].Data["x"] != 4 {
		t.Errorf("clicks = %+v", clicks)
	}
}

func TestDispatchUnknownTarget(t *testing.T) {
	e := New(loop.NewManual())
	inst := render(t, e, `<p>static</p>`)

	err := inst.Dispatch("n99", "click", nil)
	if !errors.IsCategory(err, errors.CategoryProtocol) {
		t.Fatalf("err = %v, want protocol error", err)
	}
}

func TestEventBadValueIsolated(t *testing.T) {
	e := New(loop.NewManual())

	inst := render(t, e, `<div><button on-click="{}">x</button><p>{}</p></div>`, 42, "ok")

	kids := dom.ChildElements(inst.Roots[0])
	if !inst.Errored(kids[0]) {
		t.Error("bad handler value not marked errored")
	}
	if got := dom.TextContent(kids[1]); got != "ok" {
		t.Errorf("sibling = %q", got)
	}
}

func TestTagBindingHandlerAndMap(t *testing.T) {
	sched := loop.NewManual()
	e := New(sched)
	cls := reactive.NewCell("hot")

	fired := 0
	inst := render(t, e, `<div><button {}>A</button><span {}>B</span></div>`,
		func(Event) { fired++ },
		map[string]any{"class": cls, "title": "plain"},
	)

	kids := dom.ChildElements(inst.Roots[0])
	id, _ := dom.Attr(kids[0], NodeIDAttr)
	if err := inst.Dispatch(id, "click", nil); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	sched.Flush()
	if fired != 1 {
		t.Errorf("fired = %d", fired)
	}

	if got, _ := dom.Attr(kids[1], "class"); got != "hot" {
		t.Errorf("class = %q", got)
	}
	if got, _ := dom.Attr(kids[1], "title"); got != "plain" {
		t.Errorf("title = %q", got)
	}
	cls.Set("cold")
	if got, _ := dom.Attr(kids[1], "class"); got != "cold" {
		t.Errorf("class after set = %q", got)
	}
}

func TestRefsExposed(t *testing.T) {
	e := New(loop.NewManual())

	inst := render(t, e,
		`<form><input w-ref="email"><input w-ref="login.pass"><li w-refs="rows">1</li><li w-refs="rows">2</li></form>`)

	if inst.Refs["email"] == nil {
		t.Error("single ref missing")
	}
	if inst.Groups["login"] == nil || inst.Groups["login"]["pass"] == nil {
		t.Error("grouped ref missing")
	}
	if len(inst.Collected["rows"]) != 2 {
		t.Errorf("collected = %v", inst.Collected)
	}
}

func TestNestedFragment(t *testing.T) {
	e := New(loop.NewManual())
	name := reactive.NewCell("inner")

	child, err := template.Interp(`<em>{}</em>`, name)
	if err != nil {
		t.Fatalf("Interp: %v", err)
	}
	inst := render(t, e, `<div>before {} after</div>`, child)

	html := mustHTML(t, inst)
	if !strings.Contains(html, "<em>inner</em>") {
		t.Fatalf("html = %q", html)
	}

	// The child's bindings stay live inside the parent tree.
	name.Set("nested")
	if html := mustHTML(t, inst); !strings.Contains(html, "<em>nested</em>") {
		t.Errorf("html = %q", html)
	}
}

func TestCustomDirective(t *testing.T) {
	e := New(loop.NewManual())

	var seen []string
	err := e.Register("w-track", func(ctx *DirectiveContext) error {
		// Primitive values substitute into the raw attribute text.
		seen = append(seen, ctx.Node.Data+":"+ctx.Raw)
		return nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	render(t, e, `<div w-track="{}"><p w-track="{}">x</p></div>`, "outer", "inner")

	if len(seen) != 2 || seen[0] != "div:outer" || seen[1] != "p:inner" {
		t.Errorf("seen = %v", seen)
	}
}

func TestRegisterRejectsBuiltinNames(t *testing.T) {
	e := New(loop.NewManual())

	ran := false
	for _, name := range []string{DirIf, DirElif, DirElse, DirOr, DirEach} {
		err := e.Register(name, func(ctx *DirectiveContext) error {
			ran = true
			return nil
		})
		if err == nil {
			t.Fatalf("Register(%q) accepted a built-in name", name)
		}
		var le *errors.Error
		if !errors.As(err, &le) || le.Code != "L007" {
			t.Fatalf("Register(%q) = %v, want L007", name, err)
		}
	}

	// The built-in behavior must be untouched by the rejected handler.
	a := reactive.NewCell(true)
	inst := render(t, e, `<div><p w-if="{}">shown</p></div>`, a)
	if html := mustHTML(t, inst); !strings.Contains(html, "shown") {
		t.Errorf("html = %q", html)
	}
	if ran {
		t.Error("rejected handler was invoked")
	}
}

func TestDisposeStopsUpdates(t *testing.T) {
	e := New(loop.NewManual())
	title := reactive.NewCell("alive")

	inst := render(t, e, `<p>{}</p>`, title)
	inst.Dispose()

	title.Set("dead")
	if html := mustHTML(t, inst); !strings.Contains(html, "alive") {
		t.Errorf("html = %q", html)
	}
	if n := title.Subscribers(); n != 0 {
		t.Errorf("subscribers after dispose = %d", n)
	}
}
