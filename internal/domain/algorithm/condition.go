package algorithm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/medcalc/medcalc/internal/domain/form"
)

// ----- Types -----

// Op is the operator of a condition node.
type Op string

const (
	OpTrue    Op = "true"
	OpAnd     Op = "and"
	OpOr      Op = "or"
	OpNot     Op = "not"
	OpEq      Op = "eq"
	OpNe      Op = "ne"
	OpGt      Op = "gt"
	OpGe      Op = "ge"
	OpLt      Op = "lt"
	OpLe      Op = "le"
	OpPresent Op = "present"
)

var comparisonOps = map[Op]bool{
	OpEq: true, OpNe: true, OpGt: true, OpGe: true, OpLt: true, OpLe: true,
}

var orderingOps = map[Op]bool{
	OpGt: true, OpGe: true, OpLt: true, OpLe: true,
}

// Condition is a branch predicate over the accumulated inputs of a
// traversal. Leaves compare one field against a literal; inner nodes combine
// children with and/or/not.
//
// Conditions marshal to their text form, e.g.
//
//	hours_since_lkw le 4.5 and not (thrombolysis_contraindicated eq true)
//
// and unmarshal from either the text form or the tree form.
type Condition struct {
	Op    Op           `json:"op" yaml:"op"`
	Field string       `json:"field,omitempty" yaml:"field,omitempty"`
	Value interface{}  `json:"value,omitempty" yaml:"value,omitempty"`
	Args  []*Condition `json:"args,omitempty" yaml:"args,omitempty"`
}

// Always returns a condition that is always true.
func Always() *Condition { return &Condition{Op: OpTrue} }

// Compare builds a comparison leaf.
func Compare(field string, op Op, value interface{}) *Condition {
	return &Condition{Op: op, Field: field, Value: value}
}

// Present builds a presence check leaf.
func Present(field string) *Condition { return &Condition{Op: OpPresent, Field: field} }

// And combines conditions with logical and.
func And(args ...*Condition) *Condition { return &Condition{Op: OpAnd, Args: args} }

// Or combines conditions with logical or.
func Or(args ...*Condition) *Condition { return &Condition{Op: OpOr, Args: args} }

// Not negates a condition.
func Not(arg *Condition) *Condition { return &Condition{Op: OpNot, Args: []*Condition{arg}} }

// ----- Evaluation -----

// Eval evaluates the condition against in. A nil condition is true. Any
// comparison on a field without a value is false.
func (c *Condition) Eval(in form.Inputs) bool {
	if c == nil {
		return true
	}
	switch c.Op {
	case OpTrue:
		return true
	case OpAnd:
		for _, a := range c.Args {
			if !a.Eval(in) {
				return false
			}
		}
		return true
	case OpOr:
		for _, a := range c.Args {
			if a.Eval(in) {
				return true
			}
		}
		return false
	case OpNot:
		return len(c.Args) == 1 && !c.Args[0].Eval(in)
	case OpPresent:
		return in.Has(c.Field)
	}

	if !comparisonOps[c.Op] || !in.Has(c.Field) {
		return false
	}
	switch want := c.Value.(type) {
	case bool:
		got := in.Bool(c.Field)
		switch c.Op {
		case OpEq:
			return got == want
		case OpNe:
			return got != want
		}
		return false
	case string:
		got := in.String(c.Field)
		switch c.Op {
		case OpEq:
			return strings.EqualFold(got, want)
		case OpNe:
			return !strings.EqualFold(got, want)
		}
		return false
	}

	want, ok := toFloat(c.Value)
	if !ok {
		return false
	}
	got, ok := in.Float(c.Field)
	if !ok {
		return false
	}
	switch c.Op {
	case OpEq:
		return got == want
	case OpNe:
		return got != want
	case OpGt:
		return got > want
	case OpGe:
		return got >= want
	case OpLt:
		return got < want
	case OpLe:
		return got <= want
	}
	return false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Fields returns the distinct input fields referenced by the condition, in
// first-seen order.
func (c *Condition) Fields() []string {
	var out []string
	seen := map[string]bool{}
	var walk func(*Condition)
	walk = func(n *Condition) {
		if n == nil {
			return
		}
		if n.Field != "" && !seen[n.Field] {
			seen[n.Field] = true
			out = append(out, n.Field)
		}
		for _, a := range n.Args {
			walk(a)
		}
	}
	walk(c)
	return out
}

// Check reports the first structural problem in the condition tree.
func (c *Condition) Check() error {
	if c == nil {
		return nil
	}
	switch c.Op {
	case OpTrue:
		if c.Field != "" || len(c.Args) > 0 {
			return fmt.Errorf("true takes no operands")
		}
		return nil
	case OpAnd, OpOr:
		if len(c.Args) == 0 {
			return fmt.Errorf("%s requires at least one operand", c.Op)
		}
		for _, a := range c.Args {
			if a == nil {
				return fmt.Errorf("%s has an empty operand", c.Op)
			}
			if err := a.Check(); err != nil {
				return err
			}
		}
		return nil
	case OpNot:
		if len(c.Args) != 1 || c.Args[0] == nil {
			return fmt.Errorf("not requires exactly one operand")
		}
		return c.Args[0].Check()
	case OpPresent:
		if c.Field == "" {
			return fmt.Errorf("present requires a field")
		}
		return nil
	}

	if !comparisonOps[c.Op] {
		return fmt.Errorf("unknown operator %q", c.Op)
	}
	if c.Field == "" {
		return fmt.Errorf("%s requires a field", c.Op)
	}
	if c.Value == nil {
		return fmt.Errorf("%s %s requires a value", c.Field, c.Op)
	}
	if orderingOps[c.Op] {
		if _, ok := toFloat(c.Value); !ok {
			return fmt.Errorf("%s %s requires a numeric value", c.Field, c.Op)
		}
	}
	return nil
}

// ----- Text form -----

// String renders the condition in the text form accepted by ParseCondition.
func (c *Condition) String() string {
	if c == nil {
		return string(OpTrue)
	}
	switch c.Op {
	case OpTrue:
		return string(OpTrue)
	case OpAnd, OpOr:
		parts := make([]string, len(c.Args))
		for i, a := range c.Args {
			s := a.String()
			if a != nil && (a.Op == OpAnd || a.Op == OpOr) && a.Op != c.Op {
				s = "(" + s + ")"
			}
			parts[i] = s
		}
		return strings.Join(parts, " "+string(c.Op)+" ")
	case OpNot:
		if len(c.Args) != 1 {
			return "not ()"
		}
		return "not (" + c.Args[0].String() + ")"
	case OpPresent:
		return c.Field + " present"
	}
	return c.Field + " " + string(c.Op) + " " + formatLiteral(c.Value)
}

func formatLiteral(v interface{}) string {
	switch t := v.(type) {
	case bool:
		return strconv.FormatBool(t)
	case string:
		if isBareWord(t) && !strings.EqualFold(t, "true") && !strings.EqualFold(t, "false") {
			if _, err := strconv.ParseFloat(t, 64); err != nil {
				return t
			}
		}
		return strconv.Quote(t)
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

func isBareWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isWordRune(r) {
			return false
		}
	}
	switch Op(strings.ToLower(s)) {
	case OpAnd, OpOr, OpNot:
		return false
	}
	return true
}

// Simplify removes double negations and flattens nested and/or of the same
// operator.
func Simplify(c *Condition) *Condition {
	if c == nil {
		return nil
	}
	switch c.Op {
	case OpNot:
		if len(c.Args) == 1 && c.Args[0] != nil && c.Args[0].Op == OpNot && len(c.Args[0].Args) == 1 {
			return Simplify(c.Args[0].Args[0])
		}
		if len(c.Args) == 1 {
			return Not(Simplify(c.Args[0]))
		}
	case OpAnd, OpOr:
		out := &Condition{Op: c.Op}
		for _, a := range c.Args {
			s := Simplify(a)
			if s != nil && s.Op == c.Op {
				out.Args = append(out.Args, s.Args...)
				continue
			}
			out.Args = append(out.Args, s)
		}
		if len(out.Args) == 1 {
			return out.Args[0]
		}
		return out
	}
	cp := *c
	return &cp
}

// ----- Serialization -----

type conditionTree Condition

func (c *Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		parsed, err := ParseCondition(text)
		if err != nil {
			return err
		}
		*c = *parsed
		return nil
	}
	var tree conditionTree
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&tree); err != nil {
		return fmt.Errorf("condition: %w", err)
	}
	*c = Condition(tree)
	c.normalize()
	return nil
}

func (c *Condition) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parsed, err := ParseCondition(node.Value)
		if err != nil {
			return err
		}
		*c = *parsed
		return nil
	}
	var tree conditionTree
	if err := node.Decode(&tree); err != nil {
		return fmt.Errorf("condition: %w", err)
	}
	*c = Condition(tree)
	c.normalize()
	return nil
}

// normalize converts decoded numeric literals to float64.
func (c *Condition) normalize() {
	if c == nil {
		return
	}
	switch c.Value.(type) {
	case bool, string, nil:
	default:
		if f, ok := toFloat(c.Value); ok {
			c.Value = f
		}
	}
	for _, a := range c.Args {
		a.normalize()
	}
}

// ----- Tokenizer -----

type condTokenType int

const (
	ctWord condTokenType = iota
	ctString
	ctLParen
	ctRParen
)

type condToken struct {
	typ   condTokenType
	value string
}

func isWordRune(r rune) bool {
	return r == '_' || r == '-' || r == '.' || r == '+' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func tokenizeCondition(input string) ([]condToken, error) {
	var tokens []condToken
	runes := []rune(input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			i++
		case r == '(':
			tokens = append(tokens, condToken{typ: ctLParen, value: "("})
			i++
		case r == ')':
			tokens = append(tokens, condToken{typ: ctRParen, value: ")"})
			i++
		case r == '"':
			i++
			var sb strings.Builder
			closed := false
			for i < len(runes) {
				if runes[i] == '\\' && i+1 < len(runes) {
					sb.WriteRune(runes[i+1])
					i += 2
					continue
				}
				if runes[i] == '"' {
					closed = true
					i++
					break
				}
				sb.WriteRune(runes[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string literal")
			}
			tokens = append(tokens, condToken{typ: ctString, value: sb.String()})
		case isWordRune(r):
			start := i
			for i < len(runes) && isWordRune(runes[i]) {
				i++
			}
			tokens = append(tokens, condToken{typ: ctWord, value: string(runes[start:i])})
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", r, i)
		}
	}
	return tokens, nil
}

// ----- Parser -----

type condParser struct {
	tokens []condToken
	pos    int
}

func (p *condParser) peek() *condToken {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

func (p *condParser) advance() condToken {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *condParser) keyword(kw Op) bool {
	t := p.peek()
	return t != nil && t.typ == ctWord && Op(strings.ToLower(t.value)) == kw
}

// ParseCondition parses the text form of a branch condition:
//
//	expr    := orExpr
//	orExpr  := andExpr ("or" andExpr)*
//	andExpr := unary ("and" unary)*
//	unary   := "not" unary | primary
//	primary := "(" expr ")" | "true" | field "present" | field op value
func ParseCondition(input string) (*Condition, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty condition")
	}
	tokens, err := tokenizeCondition(input)
	if err != nil {
		return nil, fmt.Errorf("condition %q: %w", input, err)
	}
	p := &condParser{tokens: tokens}
	c, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("condition %q: %w", input, err)
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("condition %q: unexpected %q at token %d", input, p.tokens[p.pos].value, p.pos)
	}
	return c, nil
}

// MustParseCondition is ParseCondition for compiled-in definitions.
func MustParseCondition(input string) *Condition {
	c, err := ParseCondition(input)
	if err != nil {
		panic(err)
	}
	return c
}

func (p *condParser) parseOr() (*Condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	args := []*Condition{left}
	for p.keyword(OpOr) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		args = append(args, right)
	}
	if len(args) == 1 {
		return left, nil
	}
	return Or(args...), nil
}

func (p *condParser) parseAnd() (*Condition, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	args := []*Condition{left}
	for p.keyword(OpAnd) {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		args = append(args, right)
	}
	if len(args) == 1 {
		return left, nil
	}
	return And(args...), nil
}

func (p *condParser) parseUnary() (*Condition, error) {
	if p.keyword(OpNot) {
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not(inner), nil
	}
	return p.parsePrimary()
}

func (p *condParser) parsePrimary() (*Condition, error) {
	t := p.peek()
	if t == nil {
		return nil, fmt.Errorf("unexpected end of condition")
	}
	if t.typ == ctLParen {
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if n := p.peek(); n == nil || n.typ != ctRParen {
			return nil, fmt.Errorf("expected ')'")
		}
		p.advance()
		return inner, nil
	}
	if t.typ != ctWord {
		return nil, fmt.Errorf("expected field name, got %q", t.value)
	}
	if p.keyword(OpTrue) {
		p.advance()
		return Always(), nil
	}

	field := p.advance().value
	opTok := p.peek()
	if opTok == nil || opTok.typ != ctWord {
		return nil, fmt.Errorf("expected operator after %q", field)
	}
	op := Op(strings.ToLower(p.advance().value))
	if op == OpPresent {
		return Present(field), nil
	}
	if !comparisonOps[op] {
		return nil, fmt.Errorf("unknown operator %q", op)
	}

	valTok := p.peek()
	if valTok == nil || (valTok.typ != ctWord && valTok.typ != ctString) {
		return nil, fmt.Errorf("expected value after %s %s", field, op)
	}
	p.advance()
	value := literal(*valTok)
	if orderingOps[op] {
		if _, ok := value.(float64); !ok {
			return nil, fmt.Errorf("%s %s requires a numeric value, got %q", field, op, valTok.value)
		}
	}
	return Compare(field, op, value), nil
}

// literal converts a value token: quoted strings stay strings, bare words
// become bool or float64 when they read as one.
func literal(t condToken) interface{} {
	if t.typ == ctString {
		return t.value
	}
	switch strings.ToLower(t.value) {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(t.value, 64); err == nil {
		return f
	}
	return t.value
}
