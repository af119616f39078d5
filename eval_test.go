package fastache

import (
	"errors"
	"testing"
)

func render(t *testing.T, src string, params *Param) string {
	t.Helper()
	chain, err := Parse([]byte(src), HeapAllocator{})
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	out := make([]byte, 1024)
	n, err := Evaluate(chain, []byte(src), out, params, NewScopeStack(16))
	if err != nil {
		t.Fatalf("evaluate %q: %v", src, err)
	}
	return string(out[:n])
}

func TestEvaluate(t *testing.T) {
	letters := List("letters", String("", "a"), String("", "b"), String("", "c"))
	people := List("people",
		Object("", String("name", "Ada"), Number("age", 36, 0, false)),
		Object("", String("name", "Alan"), Number("age", 41, 0, false)),
	)
	params := Root(
		String("name", "World"),
		Bool("yes", true),
		Bool("no", false),
		String("empty", ""),
		Number("pi", 3.14159, 2, false),
		letters,
		List("none"),
		List("one", String("", "solo")),
		people,
		Object("user", String("name", "Grace"), Object("address", String("city", "Arlington"))),
		List("rows",
			List("", Number("", 1, 0, false), Number("", 2, 0, false)),
			List("", Number("", 3, 0, false)),
		),
	)

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"no tags", "plain text\nwith lines\n", "plain text\nwith lines\n"},
		{"empty source", "", ""},
		{"variable", "Hello {{name}}!", "Hello World!"},
		{"padded name", "Hello {{  name  }}!", "Hello World!"},
		{"unresolved variable", "[{{missing}}]", "[]"},
		{"number", "{{pi}}", "3.14"},
		{"boolean", "{{yes}}/{{no}}", "true/false"},
		{"list variable writes nothing", "[{{letters}}]", "[]"},
		{"truthy section", "{{#yes}}shown{{/yes}}", "shown"},
		{"falsy section", "{{#no}}shown{{/no}}", ""},
		{"empty string falsy", "{{#empty}}x{{/empty}}{{^empty}}y{{/empty}}", "y"},
		{"inverted false", "{{^no}}shown{{/no}}", "shown"},
		{"inverted true", "{{^yes}}shown{{/yes}}", ""},
		{"unresolved section skipped", "a{{#missing}}b{{/missing}}c", "ac"},
		{"unresolved inverted rendered", "{{^missing}}none{{/missing}}", "none"},
		{"empty list", "[{{#none}}x{{/none}}]", "[]"},
		{"empty list inverted", "{{^none}}empty{{/none}}", "empty"},
		{"single item list", "{{#one}}<{{.}}>{{/one}}", "<solo>"},
		{"list iteration", "{{#letters}}<{{.}}>{{/letters}}", "<a><b><c>"},
		{"object items", "{{#people}}{{name}}:{{age}};{{/people}}", "Ada:36;Alan:41;"},
		{"current item path", "{{#people}}{{.name}} {{/people}}", "Ada Alan "},
		{"outer name inside list", "{{#letters}}{{name}}{{/letters}}", "WorldWorldWorld"},
		{"object scope", "{{#user}}{{name}} in {{address.city}}{{/user}}", "Grace in Arlington"},
		{"dotted name", "{{user.address.city}}", "Arlington"},
		{"dotted missing", "[{{user.phone.number}}]", "[]"},
		{"nested current item", "{{#rows}}[{{#.}}{{.}}{{/.}}]{{/rows}}", "[12][3]"},
		{"comment", "a{{! note }}b", "ab"},
		{"standalone comment", "a\n  {{! note }}\nb", "a\nb"},
		{"escaped tag", "a/{{name}}b", "a/{{name}}b"},
		{"escaped tag then tag", "/{{x}} {{name}}", "/{{x}} World"},
		{"escaped section marker", "a/{{#yes}}b", "a/{{#yes}}b"},
		{"unterminated tag", "a {{name", "a {{name"},
		{"standalone section true", "{{#yes}}\nyes\n{{/yes}}\nend", "yes\nend"},
		{"standalone section false", "{{#no}}\nyes\n{{/no}}\nend", "end"},
		{"standalone crlf", "  {{#yes}}  \r\nyes\r\n{{/yes}}\r\nend", "yes\r\nend"},
		{"standalone list", "<ul>\n  {{#letters}}\n  <li>{{.}}</li>\n  {{/letters}}\n</ul>\n", "<ul>\n  <li>a</li>\n  <li>b</li>\n  <li>c</li>\n</ul>\n"},
		{"inline section keeps line", "x {{#yes}}y{{/yes}}\n", "x y\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, tt.src, params); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEvaluateNoSpace(t *testing.T) {
	src := []byte("Hello {{name}}!")
	chain, err := Parse(src, HeapAllocator{})
	if err != nil {
		t.Fatal(err)
	}
	params := Root(String("name", "World"))

	out := make([]byte, 8)
	n, err := Evaluate(chain, src, out, params, NewScopeStack(4))
	if !errors.Is(err, ErrNoSpace) {
		t.Fatalf("expected ErrNoSpace, got %v", err)
	}
	if n != len(out) || string(out[:n]) != "Hello Wo" {
		t.Errorf("expected truncated %q, got %q (%d)", "Hello Wo", out[:n], n)
	}

	// exactly the rendered length fits
	out = make([]byte, len("Hello World!"))
	n, err = Evaluate(chain, src, out, params, NewScopeStack(4))
	if err != nil {
		t.Fatal(err)
	}
	if string(out[:n]) != "Hello World!" {
		t.Errorf("expected %q, got %q", "Hello World!", out[:n])
	}
}

func TestEvaluateOverflow(t *testing.T) {
	src := []byte("{{#a}}{{#b}}{{c}}{{/b}}{{/a}}")
	chain, err := Parse(src, HeapAllocator{})
	if err != nil {
		t.Fatal(err)
	}
	params := Root(Object("a", Object("b", String("c", "deep"))))

	out := make([]byte, 64)
	if _, err := Evaluate(chain, src, out, params, NewScopeStack(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}

	// the failed pass must not leak into the next one
	n, err := Evaluate(chain, src, out, params, NewScopeStack(2))
	if err != nil {
		t.Fatal(err)
	}
	if string(out[:n]) != "deep" {
		t.Errorf("expected %q, got %q", "deep", out[:n])
	}
}

func TestEvaluateReuse(t *testing.T) {
	src := []byte("{{#items}}{{.}},{{/items}}")
	chain, err := Parse(src, HeapAllocator{})
	if err != nil {
		t.Fatal(err)
	}
	stack := NewScopeStack(4)
	out := make([]byte, 64)

	first := Root(List("items", String("", "x"), String("", "y")))
	second := Root(List("items", String("", "z")))

	for i, tt := range []struct {
		params *Param
		want   string
	}{
		{first, "x,y,"},
		{second, "z,"},
		{first, "x,y,"},
		{first, "x,y,"},
	} {
		n, err := Evaluate(chain, src, out, tt.params, stack)
		if err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
		if got := string(out[:n]); got != tt.want {
			t.Errorf("pass %d: expected %q, got %q", i, tt.want, got)
		}
	}

	// in-place mutation needs an explicit flush
	first.Children[0].Children = first.Children[0].Children[:1]
	chain.Flush()
	n, err := Evaluate(chain, src, out, first, stack)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(out[:n]); got != "x," {
		t.Errorf("after flush: expected %q, got %q", "x,", got)
	}
}

func TestEvaluateArgs(t *testing.T) {
	if _, err := Evaluate(nil, nil, nil, nil, NewScopeStack(1)); !errors.Is(err, ErrArgs) {
		t.Errorf("nil chain: expected ErrArgs, got %v", err)
	}
	chain, err := Parse([]byte("x"), HeapAllocator{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Evaluate(chain, []byte("x"), make([]byte, 1), nil, nil); !errors.Is(err, ErrArgs) {
		t.Errorf("nil stack: expected ErrArgs, got %v", err)
	}
}

type upperSanitizer struct{}

func (upperSanitizer) SanitizeBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return out
}

func TestEvaluateSanitizer(t *testing.T) {
	src := []byte("{{s}} {{n}}")
	chain, err := Parse(src, HeapAllocator{})
	if err != nil {
		t.Fatal(err)
	}
	out := make([]byte, 32)
	n, err := evaluate(chain, src, out, Root(String("s", "quiet"), Number("n", 1.5, 1, false)), NewScopeStack(1), upperSanitizer{})
	if err != nil {
		t.Fatal(err)
	}
	if got := string(out[:n]); got != "QUIET 1.5" {
		t.Errorf("expected %q, got %q", "QUIET 1.5", got)
	}
}
