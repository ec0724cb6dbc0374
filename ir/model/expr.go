package model

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/wudi/inventorkit/units"
)

// Formula evaluation. The grammar covers what the decoder commits to:
// the four arithmetic operators, parentheses, unit-bearing numeric literals
// and parameter references. Anything beyond that (functions, comparison or
// modulo operators, unknown names) aborts the evaluation; the caller then
// substitutes the parameter's nominal value.

// errUnsupported aborts an evaluation over a construct outside the grammar.
type errUnsupported struct{ reason string }

func (e errUnsupported) Error() string { return "unsupported operation: " + e.reason }

// errCycle aborts the evaluation of every parameter on a reference cycle.
type errCycle struct{ chain []string }

func (e errCycle) Error() string {
	return "circular parameter reference: " + strings.Join(e.chain, " -> ")
}

// value is an intermediate result: a number in a unit.
type value struct {
	v    float64
	unit units.Unit
}

func (v value) unitless() bool { return v.unit.Kind == units.KindUnitless }

type tokKind int

const (
	tokEnd tokKind = iota
	tokNumber
	tokIdent
	tokOp     // + - * /
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
	num  float64
}

type lexer struct {
	src string
	pos int
	tok token
	err error
}

func newLexer(src string) *lexer {
	l := &lexer{src: src}
	l.next()
	return l
}

func (l *lexer) next() {
	if l.err != nil {
		return
	}
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t') {
		l.pos++
	}
	if l.pos >= len(l.src) {
		l.tok = token{kind: tokEnd}
		return
	}
	c := l.src[l.pos]
	switch {
	case c >= '0' && c <= '9' || c == '.':
		start := l.pos
		for l.pos < len(l.src) && (l.src[l.pos] >= '0' && l.src[l.pos] <= '9' ||
			l.src[l.pos] == '.' || l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
			// exponent sign
			if (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') &&
				l.pos+1 < len(l.src) && (l.src[l.pos+1] == '+' || l.src[l.pos+1] == '-') {
				l.pos++
			}
			l.pos++
		}
		n, err := strconv.ParseFloat(l.src[start:l.pos], 64)
		if err != nil {
			l.err = errUnsupported{reason: fmt.Sprintf("malformed number %q", l.src[start:l.pos])}
			return
		}
		l.tok = token{kind: tokNumber, num: n}
	case c == '+' || c == '-' || c == '*' || c == '/':
		l.tok = token{kind: tokOp, text: string(c)}
		l.pos++
	case c == '(':
		l.tok = token{kind: tokLParen}
		l.pos++
	case c == ')':
		l.tok = token{kind: tokRParen}
		l.pos++
	case isIdentStart(rune(c)):
		start := l.pos
		for l.pos < len(l.src) && isIdentPart(rune(l.src[l.pos])) {
			l.pos++
		}
		l.tok = token{kind: tokIdent, text: l.src[start:l.pos]}
	default:
		l.err = errUnsupported{reason: fmt.Sprintf("operator %q", c)}
	}
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isIdentPart(r rune) bool  { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

// evaluator settles the numeric parameters of a table, resolving references
// between them depth-first. Each parameter is settled exactly once; cycles are
// reported once and every member falls back to its nominal value.
type evaluator struct {
	table   *ParameterTable
	res     units.Resolver
	chain   []string        // evaluation stack, for cycle reporting
	state   map[string]int  // stateVisiting or stateDone
	cyclic  map[string]bool // members of a detected cycle
	onCycle func(chain []string)
}

const (
	stateVisiting = 1
	stateDone     = 2
)

func newEvaluator(table *ParameterTable, res units.Resolver, onCycle func([]string)) *evaluator {
	return &evaluator{
		table:   table,
		res:     res,
		state:   map[string]int{},
		cyclic:  map[string]bool{},
		onCycle: onCycle,
	}
}

// settle evaluates p's formula and fixes its Value and Outcome. Evaluation
// problems never escape: they become fallback outcomes on the parameter.
func (e *evaluator) settle(p *Parameter) {
	if e.state[p.Name] == stateDone || p.Kind != ParamNumeric {
		return
	}
	e.state[p.Name] = stateVisiting
	e.chain = append(e.chain, p.Name)
	defer func() {
		e.chain = e.chain[:len(e.chain)-1]
		e.state[p.Name] = stateDone
	}()

	if p.Formula == "" {
		p.Value = p.Nominal
		p.Outcome = Outcome{Kind: OutcomeEvaluated}
		return
	}

	v, err := e.eval(p.Formula)
	switch err := err.(type) {
	case nil:
	case errCycle:
		p.Value = p.Nominal
		p.Outcome = Outcome{Kind: OutcomeFallbackNominal, Reason: err.Error()}
		return
	case errUnsupported:
		p.Value = p.Nominal
		p.Outcome = Outcome{Kind: OutcomeFallbackNominal, Reason: err.reason}
		return
	default:
		p.Value = p.Nominal
		p.Outcome = Outcome{Kind: OutcomeFallbackNominal, Reason: err.Error()}
		return
	}

	// Express the result in the parameter's own unit.
	switch {
	case v.unitless() || v.unit == p.Unit:
		p.Value = v.v
	case units.Compatible(v.unit, p.Unit) && v.unit.Kind != units.KindOpaque && p.Unit.Kind != units.KindOpaque:
		p.Value = v.v * v.unit.Factor / p.Unit.Factor
	case p.Unit.Kind == units.KindUnitless:
		p.Unit = v.unit
		p.Value = v.v
	default:
		p.Value = p.Nominal
		p.Outcome = Outcome{Kind: OutcomeFallbackNominal,
			Reason: fmt.Sprintf("formula yields %q, parameter is %q", v.unit.Name, p.Unit.Name)}
		return
	}
	p.Outcome = Outcome{Kind: OutcomeEvaluated}
}

func (e *evaluator) eval(formula string) (value, error) {
	l := newLexer(formula)
	v, err := e.expr(l)
	if err != nil {
		return value{}, err
	}
	if l.err != nil {
		return value{}, l.err
	}
	if l.tok.kind != tokEnd {
		return value{}, errUnsupported{reason: "trailing input"}
	}
	return v, nil
}

func (e *evaluator) expr(l *lexer) (value, error) {
	left, err := e.term(l)
	if err != nil {
		return value{}, err
	}
	for l.err == nil && l.tok.kind == tokOp && (l.tok.text == "+" || l.tok.text == "-") {
		op := l.tok.text
		l.next()
		right, err := e.term(l)
		if err != nil {
			return value{}, err
		}
		left, err = addSub(op, left, right)
		if err != nil {
			return value{}, err
		}
	}
	return left, l.err
}

func (e *evaluator) term(l *lexer) (value, error) {
	left, err := e.unary(l)
	if err != nil {
		return value{}, err
	}
	for l.err == nil && l.tok.kind == tokOp && (l.tok.text == "*" || l.tok.text == "/") {
		op := l.tok.text
		l.next()
		right, err := e.unary(l)
		if err != nil {
			return value{}, err
		}
		left, err = mulDiv(op, left, right)
		if err != nil {
			return value{}, err
		}
	}
	return left, l.err
}

func (e *evaluator) unary(l *lexer) (value, error) {
	if l.err == nil && l.tok.kind == tokOp && l.tok.text == "-" {
		l.next()
		v, err := e.unary(l)
		if err != nil {
			return value{}, err
		}
		v.v = -v.v
		return v, nil
	}
	return e.primary(l)
}

func (e *evaluator) primary(l *lexer) (value, error) {
	if l.err != nil {
		return value{}, l.err
	}
	switch l.tok.kind {
	case tokNumber:
		v := value{v: l.tok.num, unit: units.Unit{Kind: units.KindUnitless, Factor: 1}}
		l.next()
		// A name right after a number is its unit, as in "5 mm".
		if l.err == nil && l.tok.kind == tokIdent {
			v.unit = units.Resolve(e.res, l.tok.text)
			l.next()
		}
		return v, nil
	case tokIdent:
		name := l.tok.text
		l.next()
		if l.err == nil && l.tok.kind == tokLParen {
			return value{}, errUnsupported{reason: fmt.Sprintf("function call %s(...)", name)}
		}
		return e.ident(name)
	case tokLParen:
		l.next()
		v, err := e.expr(l)
		if err != nil {
			return value{}, err
		}
		if l.tok.kind != tokRParen {
			return value{}, errUnsupported{reason: "unbalanced parentheses"}
		}
		l.next()
		return v, nil
	}
	return value{}, errUnsupported{reason: "empty expression"}
}

// ident resolves a parameter reference, settling the referenced parameter
// first. Hitting a parameter that is still being settled means the reference
// chain closed on itself.
func (e *evaluator) ident(name string) (value, error) {
	p, ok := e.table.Lookup(name)
	if !ok {
		return value{}, errUnsupported{reason: fmt.Sprintf("unknown name %q", name)}
	}
	if p.Kind != ParamNumeric {
		return value{}, errUnsupported{reason: fmt.Sprintf("%q is not numeric", name)}
	}
	if e.state[name] == stateVisiting {
		// Members run from the first occurrence on the stack to its top.
		start := 0
		for i, n := range e.chain {
			if n == name {
				start = i
				break
			}
		}
		members := append([]string(nil), e.chain[start:]...)
		for _, m := range members {
			e.cyclic[m] = true
		}
		if e.onCycle != nil {
			e.onCycle(members)
		}
		return value{}, errCycle{chain: members}
	}
	e.settle(p)
	// Keep unwinding through the remaining cycle members; parameters outside
	// the cycle read the settled (nominal) value instead.
	if e.cyclic[name] && len(e.chain) > 0 && e.cyclic[e.chain[len(e.chain)-1]] {
		return value{}, errCycle{chain: []string{name}}
	}
	return value{v: p.Value, unit: p.Unit}, nil
}

func addSub(op string, a, b value) (value, error) {
	if !units.Compatible(a.unit, b.unit) {
		return value{}, errUnsupported{reason: fmt.Sprintf("adding %q to %q", b.unit.Name, a.unit.Name)}
	}
	unit := a.unit
	av, bv := a.v, b.v
	switch {
	case a.unitless() && !b.unitless():
		unit = b.unit
	case !a.unitless() && !b.unitless() && a.unit != b.unit:
		bv = bv * b.unit.Factor / a.unit.Factor
	}
	if op == "-" {
		return value{v: av - bv, unit: unit}, nil
	}
	return value{v: av + bv, unit: unit}, nil
}

func mulDiv(op string, a, b value) (value, error) {
	if op == "/" && b.v == 0 {
		return value{}, errUnsupported{reason: "division by zero"}
	}
	switch {
	case b.unitless():
		if op == "/" {
			return value{v: a.v / b.v, unit: a.unit}, nil
		}
		return value{v: a.v * b.v, unit: a.unit}, nil
	case a.unitless():
		if op == "/" {
			return value{}, errUnsupported{reason: "dividing by a measured quantity"}
		}
		return value{v: a.v * b.v, unit: b.unit}, nil
	case op == "/" && units.Compatible(a.unit, b.unit) &&
		a.unit.Kind != units.KindOpaque && b.unit.Kind != units.KindOpaque:
		// Ratio of like quantities is unitless.
		return value{
			v:    (a.v * a.unit.Factor) / (b.v * b.unit.Factor),
			unit: units.Unit{Kind: units.KindUnitless, Factor: 1},
		}, nil
	}
	return value{}, errUnsupported{reason: fmt.Sprintf("%q %s %q", a.unit.Name, op, b.unit.Name)}
}
