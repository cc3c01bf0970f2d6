// Package predicate implements the small boolean sublanguage used for
// conditional spec attributes (required, forbidden, maybenull).
//
// The language is deliberately tiny and fully sandboxed: a program can only
// read the document it is evaluated against, never call anything. Grammar:
//
//	expr    := and ("or" and)*
//	and     := unary ("and" unary)*
//	unary   := "not" unary | cmp
//	cmp     := term (("==" | "!=" | "in" | "not in") term)?
//	term    := "(" expr ")" | literal | path
//	path    := "self" ("." ident)*
//	literal := 'string' | "string" | int | float | true | false | none |
//	           "[" literal ("," literal)* "]"
//
// Paths are resolved against the root document; a missing segment yields
// none rather than an error, so predicates can test optional fields.
// "in" requires a list on the right-hand side.
package predicate

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/aretw0/topiary/pkg/tree"
)

// Program is a compiled predicate, ready to be evaluated any number of
// times against different documents.
type Program struct {
	src  string
	root expr
}

// Compile parses src into a Program.
func Compile(src string) (*Program, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, fmt.Errorf("predicate %q: %w", src, err)
	}
	p := &parser{toks: toks}
	e, err := p.parseExpr()
	if err != nil {
		return nil, fmt.Errorf("predicate %q: %w", src, err)
	}
	if !p.eof() {
		return nil, fmt.Errorf("predicate %q: unexpected %q", src, p.peek().text)
	}
	return &Program{src: src, root: e}, nil
}

// Eval runs the program against doc. The result must be a boolean.
func (p *Program) Eval(doc *tree.Map) (bool, error) {
	v, err := p.root.eval(doc)
	if err != nil {
		return false, fmt.Errorf("predicate %q: %w", p.src, err)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("predicate %q: result is not a boolean (%s)", p.src, tree.FormatValue(v))
	}
	return b, nil
}

// String returns the predicate source.
func (p *Program) String() string { return p.src }

// --- Lexer ---

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokPunct // ( ) [ ] , . == !=
	tokEOF
)

type token struct {
	kind tokenKind
	text string
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '\'' || c == '"':
			quote := src[i]
			j := i + 1
			for j < len(src) && src[j] != quote {
				j++
			}
			if j >= len(src) {
				return nil, fmt.Errorf("unterminated string")
			}
			toks = append(toks, token{tokString, src[i+1 : j]})
			i = j + 1
		case c == '=' || c == '!':
			if i+1 >= len(src) || src[i+1] != '=' {
				return nil, fmt.Errorf("unexpected %q", string(c))
			}
			toks = append(toks, token{tokPunct, src[i : i+2]})
			i += 2
		case strings.ContainsRune("()[],.", c):
			toks = append(toks, token{tokPunct, string(c)})
			i++
		case unicode.IsDigit(c) || c == '-':
			j := i + 1
			for j < len(src) && (unicode.IsDigit(rune(src[j])) || src[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, src[i:j]})
			i = j
		case unicode.IsLetter(c) || c == '_':
			j := i + 1
			for j < len(src) && (unicode.IsLetter(rune(src[j])) || unicode.IsDigit(rune(src[j])) || src[j] == '_') {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q", string(c))
		}
	}
	return append(toks, token{kind: tokEOF}), nil
}

// --- Parser ---

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) eof() bool { return p.peek().kind == tokEOF }

func (p *parser) accept(kind tokenKind, text string) bool {
	if p.peek().kind == kind && p.peek().text == text {
		p.next()
		return true
	}
	return false
}

func (p *parser) parseExpr() (expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept(tokIdent, "or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &boolExpr{op: "or", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.accept(tokIdent, "and") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &boolExpr{op: "and", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (expr, error) {
	if p.accept(tokIdent, "not") {
		// "not in" belongs to the comparison, not a negation of a path.
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notExpr{x: x}, nil
	}
	return p.parseCmp()
}

func (p *parser) parseCmp() (expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	switch {
	case p.accept(tokPunct, "=="):
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &cmpExpr{op: "==", left: left, right: right}, nil
	case p.accept(tokPunct, "!="):
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &cmpExpr{op: "!=", left: left, right: right}, nil
	case p.accept(tokIdent, "in"):
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &cmpExpr{op: "in", left: left, right: right}, nil
	case p.accept(tokIdent, "not"):
		if !p.accept(tokIdent, "in") {
			return nil, fmt.Errorf("expected 'in' after 'not'")
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &notExpr{x: &cmpExpr{op: "in", left: left, right: right}}, nil
	}
	return left, nil
}

func (p *parser) parseTerm() (expr, error) {
	t := p.peek()
	switch {
	case p.accept(tokPunct, "("):
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if !p.accept(tokPunct, ")") {
			return nil, fmt.Errorf("expected ')'")
		}
		return e, nil
	case p.accept(tokPunct, "["):
		var items []expr
		if !p.accept(tokPunct, "]") {
			for {
				e, err := p.parseTerm()
				if err != nil {
					return nil, err
				}
				items = append(items, e)
				if p.accept(tokPunct, ",") {
					continue
				}
				if p.accept(tokPunct, "]") {
					break
				}
				return nil, fmt.Errorf("expected ',' or ']'")
			}
		}
		return &listExpr{items: items}, nil
	case t.kind == tokString:
		p.next()
		return &litExpr{v: t.text}, nil
	case t.kind == tokNumber:
		p.next()
		if strings.Contains(t.text, ".") {
			f, err := strconv.ParseFloat(t.text, 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q", t.text)
			}
			return &litExpr{v: f}, nil
		}
		n, err := strconv.Atoi(t.text)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", t.text)
		}
		return &litExpr{v: n}, nil
	case t.kind == tokIdent:
		switch t.text {
		case "true", "True":
			p.next()
			return &litExpr{v: true}, nil
		case "false", "False":
			p.next()
			return &litExpr{v: false}, nil
		case "none", "None", "null":
			p.next()
			return &litExpr{v: nil}, nil
		case "self":
			p.next()
			segs := []string{}
			for p.accept(tokPunct, ".") {
				id := p.next()
				if id.kind != tokIdent {
					return nil, fmt.Errorf("expected field name after '.'")
				}
				segs = append(segs, id.text)
			}
			return &pathExpr{segs: segs}, nil
		}
		return nil, fmt.Errorf("unknown identifier %q (paths start with 'self')", t.text)
	}
	return nil, fmt.Errorf("unexpected end of predicate")
}

// --- Evaluation ---

type expr interface {
	eval(doc *tree.Map) (any, error)
}

type litExpr struct{ v any }

func (e *litExpr) eval(*tree.Map) (any, error) { return e.v, nil }

type listExpr struct{ items []expr }

func (e *listExpr) eval(doc *tree.Map) (any, error) {
	out := make([]any, 0, len(e.items))
	for _, it := range e.items {
		v, err := it.eval(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type pathExpr struct{ segs []string }

func (e *pathExpr) eval(doc *tree.Map) (any, error) {
	var cur any = doc
	for _, seg := range e.segs {
		m, ok := cur.(*tree.Map)
		if !ok {
			return nil, nil
		}
		cur, _ = m.Get(seg)
	}
	return cur, nil
}

type notExpr struct{ x expr }

func (e *notExpr) eval(doc *tree.Map) (any, error) {
	v, err := e.x.eval(doc)
	if err != nil {
		return nil, err
	}
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("'not' applied to non-boolean %s", tree.FormatValue(v))
	}
	return !b, nil
}

type boolExpr struct {
	op          string
	left, right expr
}

func (e *boolExpr) eval(doc *tree.Map) (any, error) {
	l, err := e.left.eval(doc)
	if err != nil {
		return nil, err
	}
	lb, ok := l.(bool)
	if !ok {
		return nil, fmt.Errorf("'%s' applied to non-boolean %s", e.op, tree.FormatValue(l))
	}
	// Short circuit.
	if e.op == "and" && !lb {
		return false, nil
	}
	if e.op == "or" && lb {
		return true, nil
	}
	r, err := e.right.eval(doc)
	if err != nil {
		return nil, err
	}
	rb, ok := r.(bool)
	if !ok {
		return nil, fmt.Errorf("'%s' applied to non-boolean %s", e.op, tree.FormatValue(r))
	}
	return rb, nil
}

type cmpExpr struct {
	op          string
	left, right expr
}

func (e *cmpExpr) eval(doc *tree.Map) (any, error) {
	l, err := e.left.eval(doc)
	if err != nil {
		return nil, err
	}
	r, err := e.right.eval(doc)
	if err != nil {
		return nil, err
	}
	switch e.op {
	case "==":
		return Equal(l, r), nil
	case "!=":
		return !Equal(l, r), nil
	case "in":
		list, ok := r.([]any)
		if !ok {
			return nil, fmt.Errorf("'in' requires a list, got %s", tree.FormatValue(r))
		}
		for _, item := range list {
			if Equal(l, item) {
				return true, nil
			}
		}
		return false, nil
	}
	return nil, fmt.Errorf("unknown operator %q", e.op)
}

// Equal compares two tree values, treating integers and floats of the same
// magnitude as equal.
func Equal(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}
