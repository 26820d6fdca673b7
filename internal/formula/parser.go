package formula

const (
	maxExprLen = 4096
	maxDepth   = 64
)

type node interface {
	eval(env func(string) (float64, bool)) (float64, bool)
}

type numberNode struct{ v float64 }

type columnNode struct{ name string }

type negNode struct{ x node }

type binaryNode struct {
	op   tokenKind
	l, r node
}

type parser struct {
	expr    string
	toks    []token
	pos     int
	depth   int
	columns map[string]bool
	refs    []string
	seen    map[string]bool
}

func parse(expr string, columns map[string]bool) (node, []string, error) {
	if len(expr) > maxExprLen {
		return nil, nil, invalid(expr, -1, "expression longer than %d bytes", maxExprLen)
	}
	toks, err := lex(expr)
	if err != nil {
		return nil, nil, err
	}
	p := &parser{expr: expr, toks: toks, columns: columns, seen: make(map[string]bool)}
	if p.peek().kind == tokEOF {
		return nil, nil, invalid(expr, -1, "expression is empty")
	}
	n, err := p.parseExpr()
	if err != nil {
		return nil, nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, nil, invalid(expr, tok.pos, "unexpected %s", tok.kind)
	}
	return n, p.refs, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) enter(pos int) error {
	p.depth++
	if p.depth > maxDepth {
		return invalid(p.expr, pos, "expression nested deeper than %d levels", maxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// expr := term (('+'|'-') term)*
func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != tokPlus && op != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, l: left, r: right}
	}
}

// term := unary (('*'|'/') unary)*
func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != tokStar && op != tokSlash {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, l: left, r: right}
	}
}

// unary := ('+'|'-') unary | atom
func (p *parser) parseUnary() (node, error) {
	tok := p.peek()
	if tok.kind != tokPlus && tok.kind != tokMinus {
		return p.parseAtom()
	}
	p.next()
	if err := p.enter(tok.pos); err != nil {
		return nil, err
	}
	defer p.leave()
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokMinus {
		return &negNode{x: x}, nil
	}
	return x, nil
}

// atom := number | ident | '(' expr ')'
func (p *parser) parseAtom() (node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return &numberNode{v: tok.num}, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return nil, invalid(p.expr, tok.pos, "function calls are not allowed (%s)", tok.text)
		}
		if !p.columns[tok.text] {
			return nil, invalid(p.expr, tok.pos, "unknown column %q", tok.text)
		}
		if !p.seen[tok.text] {
			p.seen[tok.text] = true
			p.refs = append(p.refs, tok.text)
		}
		return &columnNode{name: tok.text}, nil
	case tokLParen:
		if err := p.enter(tok.pos); err != nil {
			return nil, err
		}
		defer p.leave()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, invalid(p.expr, closing.pos, "expected ')' but found %s", closing.kind)
		}
		return inner, nil
	default:
		return nil, invalid(p.expr, tok.pos, "unexpected %s", tok.kind)
	}
}
