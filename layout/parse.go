package layout

import (
	"errors"
	"fmt"
	"io"
	"math/bits"
	"strings"
)

var errOverflow = errors.New("value out of 64-bit range")

func add(a, b uint64) (uint64, bool) {
	s, carry := bits.Add64(a, b, 0)
	return s, carry == 0
}

func mul(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

// Parse reads a memory.x descriptor.
func Parse(r io.Reader) (Layout, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Layout{}, err
	}
	return ParseString(string(b))
}

// ParseString parses a memory.x descriptor held in src.
func ParseString(src string) (Layout, error) {
	p := &parser{lex: newLexer(src), assigned: map[string]token{}}
	if err := p.advance(); err != nil {
		return Layout{}, err
	}
	return p.parse()
}

// symbol names recognised in assignments.
const (
	symStackStart = "_stack_start"
	symText       = "_stext"
	symHeapSize   = "_heap_size"
)

type assignment struct {
	name token
	expr expr
}

type parser struct {
	lex *lexer
	tok token

	regions     []Region
	sawMemory   bool
	assignments []assignment
	assigned    map[string]token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) errorf(t token, format string, args ...any) *ParseError {
	return &ParseError{Line: t.line, Col: t.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) is(text string) bool {
	return p.tok.kind == tokPunct && p.tok.text == text
}

func (p *parser) expect(text string) error {
	if !p.is(text) {
		return p.errorf(p.tok, "expected %q, got %v", text, p.tok)
	}
	return p.advance()
}

func (p *parser) parse() (Layout, error) {
	for p.tok.kind != tokEOF {
		if p.tok.kind != tokIdent {
			return Layout{}, p.errorf(p.tok, "unexpected %v", p.tok)
		}
		var err error
		switch p.tok.text {
		case "MEMORY":
			err = p.parseMemory()
		case "PROVIDE", "PROVIDE_HIDDEN":
			err = p.parseProvide()
		default:
			err = p.parseAssignment()
			if err == nil {
				err = p.expect(";")
			}
		}
		if err != nil {
			return Layout{}, err
		}
	}
	if !p.sawMemory {
		return Layout{}, p.errorf(p.tok, "no MEMORY block")
	}

	l := Layout{Regions: p.regions}
	for _, a := range p.assignments {
		v, err := a.expr.eval(p.regions)
		if err != nil {
			return Layout{}, err
		}
		switch a.name.text {
		case symStackStart:
			l.StackStart = u64(v)
		case symText:
			l.TextStart = u64(v)
		case symHeapSize:
			l.HeapSize = u64(v)
		}
	}
	return l, nil
}

func (p *parser) parseMemory() error {
	start := p.tok
	if p.sawMemory {
		return p.errorf(start, "duplicate MEMORY block")
	}
	p.sawMemory = true
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.expect("{"); err != nil {
		return err
	}
	for !p.is("}") {
		if p.tok.kind == tokEOF {
			return p.errorf(start, "unterminated MEMORY block")
		}
		if err := p.parseRegion(); err != nil {
			return err
		}
	}
	return p.advance()
}

func (p *parser) parseRegion() error {
	name := p.tok
	if name.kind != tokIdent {
		return p.errorf(name, "expected region name, got %v", name)
	}
	for _, r := range p.regions {
		if r.Name == name.text {
			return p.errorf(name, "duplicate region %q", name.text)
		}
	}
	if err := p.advance(); err != nil {
		return err
	}
	var attrs strings.Builder
	if p.is("(") {
		if err := p.advance(); err != nil {
			return err
		}
		for !p.is(")") {
			if p.tok.kind != tokIdent && !p.is("!") {
				return p.errorf(p.tok, "invalid region attribute %v", p.tok)
			}
			attrs.WriteString(p.tok.text)
			if err := p.advance(); err != nil {
				return err
			}
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
	if err := p.expect(":"); err != nil {
		return err
	}
	origin, err := p.parseBound(name.text, "ORIGIN", "org", "o")
	if err != nil {
		return err
	}
	if err := p.expect(","); err != nil {
		return err
	}
	lengthTok := p.tok
	length, err := p.parseBound(name.text, "LENGTH", "len", "l")
	if err != nil {
		return err
	}
	if length == 0 {
		return p.errorf(lengthTok, "region %q has zero length", name.text)
	}
	if _, ok := add(origin, length); !ok {
		return p.errorf(lengthTok, "region %q: end address %v", name.text, errOverflow)
	}
	p.regions = append(p.regions, Region{
		Name:   name.text,
		Origin: origin,
		Length: length,
		Attrs:  attrs.String(),
	})
	return nil
}

func (p *parser) parseBound(region string, keywords ...string) (uint64, error) {
	kw := p.tok
	ok := false
	for _, k := range keywords {
		if kw.kind == tokIdent && kw.text == k {
			ok = true
		}
	}
	if !ok {
		return 0, p.errorf(kw, "expected %s, got %v", keywords[0], kw)
	}
	if err := p.advance(); err != nil {
		return 0, err
	}
	if err := p.expect("="); err != nil {
		return 0, err
	}
	at := p.tok
	e, err := p.parseExpr()
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.Line == at.line && pe.Col == at.col {
			return 0, p.errorf(at, "region %q: non-numeric %s: %s", region, keywords[0], pe.Msg)
		}
		return 0, err
	}
	return e.eval(p.regions)
}

func (p *parser) parseProvide() error {
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.expect("("); err != nil {
		return err
	}
	if err := p.parseAssignment(); err != nil {
		return err
	}
	if err := p.expect(")"); err != nil {
		return err
	}
	return p.expect(";")
}

func (p *parser) parseAssignment() error {
	name := p.tok
	if name.kind != tokIdent {
		return p.errorf(name, "expected symbol, got %v", name)
	}
	switch name.text {
	case symStackStart, symText, symHeapSize:
	default:
		return p.errorf(name, "unsupported symbol %q", name.text)
	}
	if prev, ok := p.assigned[name.text]; ok {
		return p.errorf(name, "symbol %q already assigned at line %d", name.text, prev.line)
	}
	p.assigned[name.text] = name
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.expect("="); err != nil {
		return err
	}
	e, err := p.parseExpr()
	if err != nil {
		return err
	}
	p.assignments = append(p.assignments, assignment{name: name, expr: e})
	return nil
}

// expr := term { ('+' | '-') term }
func (p *parser) parseExpr() (expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.is("+") || p.is("-") {
		op := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binary{op: op, l: left, r: right}
	}
	return left, nil
}

// term := factor { '*' factor }
func (p *parser) parseTerm() (expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.is("*") {
		op := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = binary{op: op, l: left, r: right}
	}
	return left, nil
}

// factor := number | ORIGIN '(' name ')' | LENGTH '(' name ')' | '(' expr ')'
func (p *parser) parseFactor() (expr, error) {
	t := p.tok
	switch {
	case t.kind == tokNumber:
		return literal(t.num), p.advance()
	case p.is("("):
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return e, p.expect(")")
	case t.kind == tokIdent && (t.text == "ORIGIN" || t.text == "LENGTH"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expect("("); err != nil {
			return nil, err
		}
		name := p.tok
		if name.kind != tokIdent {
			return nil, p.errorf(name, "expected region name, got %v", name)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return regionRef{fn: t, name: name}, p.expect(")")
	}
	return nil, p.errorf(t, "expected number, got %v", t)
}

type expr interface {
	eval(regions []Region) (uint64, error)
}

type literal uint64

func (e literal) eval([]Region) (uint64, error) {
	return uint64(e), nil
}

type regionRef struct {
	fn   token
	name token
}

func (e regionRef) eval(regions []Region) (uint64, error) {
	for _, r := range regions {
		if r.Name != e.name.text {
			continue
		}
		if e.fn.text == "ORIGIN" {
			return r.Origin, nil
		}
		return r.Length, nil
	}
	return 0, &ParseError{Line: e.name.line, Col: e.name.col, Msg: fmt.Sprintf("unknown region %q", e.name.text)}
}

type binary struct {
	op   token
	l, r expr
}

func (e binary) eval(regions []Region) (uint64, error) {
	a, err := e.l.eval(regions)
	if err != nil {
		return 0, err
	}
	b, err := e.r.eval(regions)
	if err != nil {
		return 0, err
	}
	var v uint64
	ok := true
	switch e.op.text {
	case "+":
		v, ok = add(a, b)
	case "-":
		v, ok = a-b, a >= b
	case "*":
		v, ok = mul(a, b)
	}
	if !ok {
		return 0, &ParseError{Line: e.op.line, Col: e.op.col, Msg: fmt.Sprintf("%#x %s %#x: %v", a, e.op.text, b, errOverflow)}
	}
	return v, nil
}
