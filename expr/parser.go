package expr

import (
	"fmt"
	"strconv"

	"github.com/c360studio/qaengine/errs"
)

// Parse compiles an expression string into an Expr AST. Parsing is pure and
// total: it either returns a usable tree or a typed *errs.ExprError — never a
// panic. path is used only to annotate error locations.
func Parse(src, path string) (Expr, error) {
	p := &parser{lex: newLexer(src, path), path: path}
	if err := p.advance(); err != nil {
		return nil, err
	}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected trailing input near %q", p.tok.text)
	}
	return e, nil
}

type parser struct {
	lex  *lexer
	tok  token
	path string
}

func (p *parser) errorf(format string, args ...any) error {
	return &errs.ExprError{ErrCode: "expr_parse_error", Path: p.path, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) expectIdent(word string) bool {
	return p.tok.kind == tokIdent && p.tok.text == word
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.expectIdent("or") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinOp{Op: "or", L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.expectIdent("and") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = BinOp{Op: "and", L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.expectIdent("not") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return Not{X: x}, nil
	}
	return p.parseComparison()
}

var cmpOps = map[tokenKind]string{
	tokEq:  "==",
	tokNeq: "!=",
	tokLt:  "<",
	tokLte: "<=",
	tokGt:  ">",
	tokGte: ">=",
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if op, ok := cmpOps[p.tok.kind]; ok {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return BinOp{Op: op, L: left, R: right}, nil
	}
	return left, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.tok.kind {
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, p.errorf("expected ')'")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return e, nil

	case tokString:
		v := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Literal{Value: v}, nil

	case tokNumber:
		f, _ := strconv.ParseFloat(p.tok.text, 64)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Literal{Value: f}, nil

	case tokIdent:
		switch p.tok.text {
		case "true":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return Literal{Value: true}, nil
		case "false":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return Literal{Value: false}, nil
		case "null":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return Literal{Value: nil}, nil
		case "answer":
			path, err := p.parseCall()
			if err != nil {
				return nil, err
			}
			return AnswerRef{Path: path}, nil
		case "is_set":
			path, err := p.parseCall()
			if err != nil {
				return nil, err
			}
			return IsSet{Path: path}, nil
		default:
			return nil, p.errorf("unknown identifier %q", p.tok.text)
		}
	}
	return nil, p.errorf("unexpected token %q", p.tok.text)
}

// parseCall parses the "(" "string-literal" ")" argument list shared by
// answer(...) and is_set(...).
func (p *parser) parseCall() (string, error) {
	fn := p.tok.text
	if err := p.advance(); err != nil {
		return "", err
	}
	if p.tok.kind != tokLParen {
		return "", p.errorf("expected '(' after %s", fn)
	}
	if err := p.advance(); err != nil {
		return "", err
	}
	if p.tok.kind != tokString {
		return "", p.errorf("%s() requires a string literal argument", fn)
	}
	path := p.tok.text
	if err := p.advance(); err != nil {
		return "", err
	}
	if p.tok.kind != tokRParen {
		return "", p.errorf("expected ')' to close %s(...)", fn)
	}
	if err := p.advance(); err != nil {
		return "", err
	}
	return path, nil
}
