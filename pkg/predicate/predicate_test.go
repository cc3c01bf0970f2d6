package predicate

import (
	"strings"
	"testing"

	"github.com/aretw0/topiary/pkg/tree"
)

func doc(t *testing.T, src string) *tree.Map {
	t.Helper()
	m, err := tree.Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return m
}

func TestEval(t *testing.T) {
	d := doc(t, `
mode: fast
count: 3
ratio: 1.5
flags:
  verbose: true
tags: [a, b]
`)

	cases := []struct {
		src  string
		want bool
	}{
		{"self.mode == 'fast'", true},
		{"self.mode == 'slow'", false},
		{"self.mode != 'slow'", true},
		{"self.count == 3", true},
		{"self.count == 3.0", true},
		{"self.ratio == 1.5", true},
		{"self.flags.verbose", true},
		{"not self.flags.verbose", false},
		{"self.mode in ['fast', 'slow']", true},
		{"self.mode not in ['slow', 'off']", true},
		{"'a' in self.tags", true},
		{"'c' in self.tags", false},
		{"self.missing == none", true},
		{"self.flags.absent == None", true},
		{"self.mode == 'fast' and self.count == 3", true},
		{"self.mode == 'slow' or self.count == 3", true},
		{"self.mode == 'slow' and self.count == 3", false},
		{"(self.mode == 'slow' or self.count == 3) and true", true},
		{"not (self.count == 4)", true},
	}
	for _, c := range cases {
		p, err := Compile(c.src)
		if err != nil {
			t.Errorf("Compile(%s): %v", c.src, err)
			continue
		}
		got, err := p.Eval(d)
		if err != nil {
			t.Errorf("Eval(%s): %v", c.src, err)
			continue
		}
		if got != c.want {
			t.Errorf("Eval(%s) = %v, want %v", c.src, got, c.want)
		}
	}
}

func TestEvalShortCircuit(t *testing.T) {
	// The right-hand side is non-boolean, but must never be inspected.
	d := doc(t, "on: false\nname: x\n")
	p, err := Compile("self.on and self.name")
	if err != nil {
		t.Fatal(err)
	}
	got, err := p.Eval(d)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got {
		t.Error("Eval = true, want false")
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []string{
		"self.mode ==",
		"mode == 'fast'",
		"self.mode == 'unterminated",
		"self.mode = 'fast'",
		"(self.mode == 'fast'",
		"self.mode in ['a', 'b'",
		"self.mode == 'fast' trailing",
	}
	for _, src := range cases {
		if _, err := Compile(src); err == nil {
			t.Errorf("Compile(%s) succeeded, want error", src)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	d := doc(t, "mode: fast\n")

	cases := []struct {
		src, want string
	}{
		{"self.mode", "result is not a boolean"},
		{"not self.mode", "applied to non-boolean"},
		{"self.mode and true", "applied to non-boolean"},
		{"'a' in self.mode", "'in' requires a list"},
	}
	for _, c := range cases {
		p, err := Compile(c.src)
		if err != nil {
			t.Fatalf("Compile(%s): %v", c.src, err)
		}
		_, err = p.Eval(d)
		if err == nil {
			t.Errorf("Eval(%s) succeeded, want error", c.src)
			continue
		}
		if !strings.Contains(err.Error(), c.want) {
			t.Errorf("Eval(%s) error = %v, want substring %q", c.src, err, c.want)
		}
	}
}

func TestEqual(t *testing.T) {
	cases := []struct {
		a, b any
		want bool
	}{
		{1, 1.0, true},
		{1, 2, false},
		{"a", "a", true},
		{"1", 1, false},
		{[]any{1, "a"}, []any{1, "a"}, true},
		{nil, nil, true},
		{nil, 0, false},
	}
	for _, c := range cases {
		if got := Equal(c.a, c.b); got != c.want {
			t.Errorf("Equal(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
