package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-surveysync/pkg/visibility"
)

// Evaluator is a small, dependency-free evaluator for survey visibleIf
// rules.
//
// Supported forms:
//   - references: `{site}` or a bare `site`; `{variables.role}` reads Context.Variables
//   - truthiness: `{escorted}`, `not {escorted}`, `!{escorted}`
//   - comparisons: `{site} = 'north'`, `{site} <> 'north'`, `{guests} >= 2`
//   - emptiness: `{notes} empty`, `{notes} notempty`
//   - membership: `{tools} contains 'ladder'`, `{site} anyof ['north', 'south']`
//   - composition: `and`/`&&`, `or`/`||`, parentheses
type Evaluator struct{}

func New() *Evaluator { return &Evaluator{} }

func (e *Evaluator) Eval(_, rule string, ctx visibility.Context) (bool, error) {
	compiled, err := Compile(rule)
	if err != nil {
		return false, err
	}
	return compiled.Eval(ctx)
}

// Expression is a compiled rule. The zero value and a nil pointer are
// always true.
type Expression struct {
	rule string
	root exprNode
}

// Compile parses rule once for repeated evaluation. An empty rule compiles
// to an always-true expression.
func Compile(rule string) (*Expression, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return &Expression{}, nil
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return &Expression{rule: trimmed}, nil
	}
	root, err := parseExpression(tokens)
	if err != nil {
		return nil, err
	}
	return &Expression{rule: trimmed, root: root}, nil
}

// String returns the source rule.
func (x *Expression) String() string {
	if x == nil {
		return ""
	}
	return x.rule
}

// Eval evaluates the expression against ctx.
func (x *Expression) Eval(ctx visibility.Context) (bool, error) {
	if x == nil || x.root == nil {
		return true, nil
	}
	return x.root.eval(ctx)
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenGt
	tokenGte
	tokenLt
	tokenLte
	tokenAnd
	tokenOr
	tokenNot
	tokenEmpty
	tokenNotEmpty
	tokenContains
	tokenNotContains
	tokenAnyOf
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
	tokenComma
)

type token struct {
	kind tokenKind
	raw  string
}

var keywords = map[string]tokenKind{
	"and":         tokenAnd,
	"or":          tokenOr,
	"not":         tokenNot,
	"empty":       tokenEmpty,
	"notempty":    tokenNotEmpty,
	"contains":    tokenContains,
	"notcontains": tokenNotContains,
	"anyof":       tokenAnyOf,
}

func isSeparator(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '[', ']', '{', '}', ',', '!', '=', '&', '|', '<', '>', '\'', '"':
		return true
	default:
		return false
	}
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	next := func() byte {
		if i >= len(input) {
			return 0
		}
		return input[i]
	}

	consume := func() byte {
		if i >= len(input) {
			return 0
		}
		ch := input[i]
		i++
		return ch
	}

	emit := func(kind tokenKind, raw string) {
		tokens = append(tokens, token{kind: kind, raw: raw})
	}

	for i < len(input) {
		ch := next()
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			i++
			continue
		}

		switch ch {
		case '(':
			consume()
			emit(tokenLParen, "(")
			continue
		case ')':
			consume()
			emit(tokenRParen, ")")
			continue
		case '[':
			consume()
			emit(tokenLBracket, "[")
			continue
		case ']':
			consume()
			emit(tokenRBracket, "]")
			continue
		case ',':
			consume()
			emit(tokenComma, ",")
			continue
		case '{':
			consume()
			end := strings.IndexByte(input[i:], '}')
			if end < 0 {
				return nil, errors.New("visibility/expr: unterminated '{' reference")
			}
			name := strings.TrimSpace(input[i : i+end])
			i += end + 1
			if name == "" {
				return nil, errors.New("visibility/expr: empty '{}' reference")
			}
			emit(tokenIdentifier, name)
			continue
		case '!':
			consume()
			if next() == '=' {
				consume()
				emit(tokenNeq, "!=")
				continue
			}
			emit(tokenNot, "!")
			continue
		case '=':
			consume()
			if next() == '=' {
				consume()
			}
			emit(tokenEq, "=")
			continue
		case '<':
			consume()
			switch next() {
			case '>':
				consume()
				emit(tokenNeq, "<>")
			case '=':
				consume()
				emit(tokenLte, "<=")
			default:
				emit(tokenLt, "<")
			}
			continue
		case '>':
			consume()
			if next() == '=' {
				consume()
				emit(tokenGte, ">=")
				continue
			}
			emit(tokenGt, ">")
			continue
		case '&':
			consume()
			if next() != '&' {
				return nil, fmt.Errorf("visibility/expr: unexpected '&'; use '&&' or 'and'")
			}
			consume()
			emit(tokenAnd, "&&")
			continue
		case '|':
			consume()
			if next() != '|' {
				return nil, fmt.Errorf("visibility/expr: unexpected '|'; use '||' or 'or'")
			}
			consume()
			emit(tokenOr, "||")
			continue
		case '"', '\'':
			quote := consume()
			var b strings.Builder
			closed := false
			for i < len(input) {
				c := consume()
				if c == '\\' && i < len(input) {
					b.WriteByte(consume())
					continue
				}
				if c == quote {
					closed = true
					break
				}
				b.WriteByte(c)
			}
			if !closed {
				return nil, errors.New("visibility/expr: unterminated string literal")
			}
			emit(tokenString, b.String())
			continue
		}

		// identifier / number / keyword
		start := i
		for i < len(input) && !isSeparator(input[i]) {
			i++
		}
		raw := input[start:i]
		if raw == "" {
			return nil, fmt.Errorf("visibility/expr: unexpected %q", string(ch))
		}
		lower := strings.ToLower(raw)
		keyword, isKeyword := keywords[lower]
		switch {
		case lower == "true" || lower == "false":
			emit(tokenBool, lower)
		case lower == "null" || lower == "nil" || lower == "undefined":
			emit(tokenNull, "null")
		case isKeyword:
			emit(keyword, lower)
		case looksLikeNumber(raw):
			emit(tokenNumber, raw)
		default:
			emit(tokenIdentifier, raw)
		}
	}

	return tokens, nil
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil
}

type exprNode interface {
	eval(ctx visibility.Context) (bool, error)
}

type exprOr struct {
	left  exprNode
	right exprNode
}

func (n exprOr) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	return n.right.eval(ctx)
}

type exprAnd struct {
	left  exprNode
	right exprNode
}

func (n exprAnd) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return n.right.eval(ctx)
}

type exprNot struct {
	inner exprNode
}

func (n exprNot) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.inner.eval(ctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

type literalKind int

const (
	litString literalKind = iota
	litNumber
	litBool
	litNull
)

type literal struct {
	kind literalKind
	raw  string
}

type exprCompare struct {
	identifier string
	op         tokenKind
	literal    literal
}

func (n exprCompare) eval(ctx visibility.Context) (bool, error) {
	value, _ := lookup(ctx, n.identifier)

	switch n.op {
	case tokenEq:
		return equalLiteral(value, n.literal), nil
	case tokenNeq:
		return !equalLiteral(value, n.literal), nil
	case tokenGt, tokenGte, tokenLt, tokenLte:
		want, err := strconv.ParseFloat(n.literal.raw, 64)
		if n.literal.kind != litNumber || err != nil {
			return false, fmt.Errorf("visibility/expr: %s needs a number, got %q", n.opString(), n.literal.raw)
		}
		got, ok := coerceNumber(value)
		if !ok {
			return false, nil
		}
		switch n.op {
		case tokenGt:
			return got > want, nil
		case tokenGte:
			return got >= want, nil
		case tokenLt:
			return got < want, nil
		default:
			return got <= want, nil
		}
	case tokenContains:
		return containsLiteral(value, n.literal), nil
	case tokenNotContains:
		return !containsLiteral(value, n.literal), nil
	default:
		return false, fmt.Errorf("visibility/expr: unsupported operator %q", n.opString())
	}
}

func (n exprCompare) opString() string {
	switch n.op {
	case tokenEq:
		return "="
	case tokenNeq:
		return "<>"
	case tokenGt:
		return ">"
	case tokenGte:
		return ">="
	case tokenLt:
		return "<"
	case tokenLte:
		return "<="
	case tokenContains:
		return "contains"
	case tokenNotContains:
		return "notcontains"
	default:
		return "?"
	}
}

func equalLiteral(value any, lit literal) bool {
	switch lit.kind {
	case litNull:
		return isEmpty(value)
	case litBool:
		got, _ := coerceBool(value)
		return got == (lit.raw == "true")
	case litNumber:
		want, _ := strconv.ParseFloat(lit.raw, 64)
		got, ok := coerceNumber(value)
		return ok && got == want
	default:
		return coerceString(value) == lit.raw
	}
}

func containsLiteral(value any, lit literal) bool {
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if equalLiteral(item, lit) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range v {
			if item == lit.raw {
				return true
			}
		}
		return false
	case string:
		return strings.Contains(v, lit.raw)
	default:
		return false
	}
}

type exprAnyOf struct {
	identifier string
	options    []literal
}

func (n exprAnyOf) eval(ctx visibility.Context) (bool, error) {
	value, _ := lookup(ctx, n.identifier)
	for _, option := range n.options {
		if equalLiteral(value, option) || containsLiteral(value, option) {
			return true, nil
		}
	}
	return false, nil
}

type exprEmpty struct {
	identifier string
	negate     bool
}

func (n exprEmpty) eval(ctx visibility.Context) (bool, error) {
	value, _ := lookup(ctx, n.identifier)
	return isEmpty(value) != n.negate, nil
}

type exprTruthy struct {
	identifier string
}

func (n exprTruthy) eval(ctx visibility.Context) (bool, error) {
	value, ok := lookup(ctx, n.identifier)
	if !ok {
		return false, nil
	}
	return truthy(value), nil
}

type tokenStream struct {
	tokens []token
	pos    int
}

func parseExpression(tokens []token) (exprNode, error) {
	stream := &tokenStream{tokens: tokens}
	node, err := parseOr(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		return nil, fmt.Errorf("visibility/expr: unexpected token %q", stream.tokens[stream.pos].raw)
	}
	return node, nil
}

func parseOr(stream *tokenStream) (exprNode, error) {
	left, err := parseAnd(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenOr) {
		right, err := parseAnd(stream)
		if err != nil {
			return nil, err
		}
		left = exprOr{left: left, right: right}
	}
	return left, nil
}

func parseAnd(stream *tokenStream) (exprNode, error) {
	left, err := parseUnary(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenAnd) {
		right, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		left = exprAnd{left: left, right: right}
	}
	return left, nil
}

func parseUnary(stream *tokenStream) (exprNode, error) {
	if stream.match(tokenNot) {
		inner, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		return exprNot{inner: inner}, nil
	}
	return parsePrimary(stream)
}

func parsePrimary(stream *tokenStream) (exprNode, error) {
	if stream.match(tokenLParen) {
		inner, err := parseOr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.match(tokenRParen) {
			return nil, errors.New("visibility/expr: missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := stream.consume(tokenIdentifier)
	if !ok {
		if stream.pos >= len(stream.tokens) {
			return nil, errors.New("visibility/expr: empty expression")
		}
		return nil, fmt.Errorf("visibility/expr: expected reference, got %q", stream.tokens[stream.pos].raw)
	}

	switch {
	case stream.match(tokenEmpty):
		return exprEmpty{identifier: ident.raw}, nil
	case stream.match(tokenNotEmpty):
		return exprEmpty{identifier: ident.raw, negate: true}, nil
	case stream.match(tokenAnyOf):
		options, err := stream.consumeList()
		if err != nil {
			return nil, err
		}
		return exprAnyOf{identifier: ident.raw, options: options}, nil
	}

	for _, op := range []tokenKind{tokenEq, tokenNeq, tokenGte, tokenGt, tokenLte, tokenLt, tokenContains, tokenNotContains} {
		if stream.match(op) {
			lit, err := stream.consumeLiteral()
			if err != nil {
				return nil, err
			}
			return exprCompare{identifier: ident.raw, op: op, literal: lit}, nil
		}
	}

	return exprTruthy{identifier: ident.raw}, nil
}

func (s *tokenStream) match(kind tokenKind) bool {
	if s.pos >= len(s.tokens) {
		return false
	}
	if s.tokens[s.pos].kind != kind {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) consume(kind tokenKind) (token, bool) {
	if s.pos >= len(s.tokens) {
		return token{}, false
	}
	if s.tokens[s.pos].kind != kind {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}

func (s *tokenStream) consumeLiteral() (literal, error) {
	if s.pos >= len(s.tokens) {
		return literal{}, errors.New("visibility/expr: missing literal")
	}
	tok := s.tokens[s.pos]
	s.pos++
	switch tok.kind {
	case tokenString:
		return literal{kind: litString, raw: tok.raw}, nil
	case tokenNumber:
		return literal{kind: litNumber, raw: tok.raw}, nil
	case tokenBool:
		return literal{kind: litBool, raw: tok.raw}, nil
	case tokenNull:
		return literal{kind: litNull, raw: "null"}, nil
	case tokenIdentifier:
		// Bare words compare as strings.
		return literal{kind: litString, raw: tok.raw}, nil
	default:
		return literal{}, fmt.Errorf("visibility/expr: expected literal, got %q", tok.raw)
	}
}

func (s *tokenStream) consumeList() ([]literal, error) {
	if !s.match(tokenLBracket) {
		lit, err := s.consumeLiteral()
		if err != nil {
			return nil, err
		}
		return []literal{lit}, nil
	}
	var out []literal
	for !s.match(tokenRBracket) {
		if s.pos >= len(s.tokens) {
			return nil, errors.New("visibility/expr: missing closing ']'")
		}
		if len(out) > 0 && !s.match(tokenComma) {
			return nil, fmt.Errorf("visibility/expr: expected ',', got %q", s.tokens[s.pos].raw)
		}
		lit, err := s.consumeLiteral()
		if err != nil {
			return nil, err
		}
		out = append(out, lit)
	}
	return out, nil
}

func lookup(ctx visibility.Context, key string) (any, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false
	}

	if strings.HasPrefix(strings.ToLower(key), "variables.") {
		path := strings.TrimSpace(key[len("variables."):])
		return lookupMap(ctx.Variables, path)
	}
	return lookupMap(ctx.Values, key)
}

func lookupMap(values map[string]any, path string) (any, bool) {
	if len(values) == 0 || strings.TrimSpace(path) == "" {
		return nil, false
	}
	path = strings.TrimSpace(path)

	// exact match first: question names may contain dots
	if v, ok := values[path]; ok {
		return v, true
	}

	parts := strings.Split(path, ".")
	var current any = values
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, false
		}
		typed, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := typed[part]
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

func truthy(value any) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func coerceBool(value any) (bool, bool) {
	if value == nil {
		return false, false
	}
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return parsed, true
		}
		return strings.TrimSpace(v) != "", true
	case float64:
		return v != 0, true
	case int:
		return v != 0, true
	default:
		return truthy(value), true
	}
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(value)
	}
}
