package formula

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of expression"
	case tokNumber:
		return "number"
	case tokIdent:
		return "column name"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokStar:
		return "'*'"
	case tokSlash:
		return "'/'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	default:
		return "token"
	}
}

type token struct {
	kind tokenKind
	pos  int
	text string
	num  float64
}

// lex splits expr into tokens. Anything outside the arithmetic alphabet is
// rejected here, before any parsing happens.
func lex(expr string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(expr) {
		r, size := utf8.DecodeRuneInString(expr[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			return nil, invalid(expr, i, "invalid UTF-8")
		case unicode.IsSpace(r):
			i += size
		case r == '+':
			toks = append(toks, token{kind: tokPlus, pos: i})
			i++
		case r == '-':
			toks = append(toks, token{kind: tokMinus, pos: i})
			i++
		case r == '*':
			if strings.HasPrefix(expr[i:], "**") {
				return nil, invalid(expr, i, "operator '**' is not allowed")
			}
			toks = append(toks, token{kind: tokStar, pos: i})
			i++
		case r == '/':
			if strings.HasPrefix(expr[i:], "//") {
				return nil, invalid(expr, i, "operator '//' is not allowed")
			}
			toks = append(toks, token{kind: tokSlash, pos: i})
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, pos: i})
			i++
		case r == '`':
			end := strings.IndexByte(expr[i+1:], '`')
			if end < 0 {
				return nil, invalid(expr, i, "unterminated quoted column name")
			}
			name := expr[i+1 : i+1+end]
			if strings.TrimSpace(name) == "" {
				return nil, invalid(expr, i, "empty quoted column name")
			}
			toks = append(toks, token{kind: tokIdent, pos: i, text: name})
			i += end + 2
		case isDigit(r) || r == '.':
			tok, n, err := lexNumber(expr, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i += n
		case isIdentStart(r):
			start := i
			for i < len(expr) {
				r, size := utf8.DecodeRuneInString(expr[i:])
				if !isIdentPart(r) {
					break
				}
				i += size
			}
			toks = append(toks, token{kind: tokIdent, pos: start, text: expr[start:i]})
		default:
			return nil, invalid(expr, i, "character %q is not allowed", r)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(expr)})
	return toks, nil
}

func lexNumber(expr string, start int) (token, int, error) {
	i := start
	digits := 0
	for i < len(expr) && isDigit(rune(expr[i])) {
		i++
		digits++
	}
	if i < len(expr) && expr[i] == '.' {
		i++
		for i < len(expr) && isDigit(rune(expr[i])) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return token{}, 0, invalid(expr, start, "malformed number")
	}
	if i < len(expr) && (expr[i] == 'e' || expr[i] == 'E') {
		j := i + 1
		if j < len(expr) && (expr[j] == '+' || expr[j] == '-') {
			j++
		}
		expDigits := 0
		for j < len(expr) && isDigit(rune(expr[j])) {
			j++
			expDigits++
		}
		if expDigits == 0 {
			return token{}, 0, invalid(expr, start, "malformed number exponent")
		}
		i = j
	}
	if i < len(expr) {
		if r, _ := utf8.DecodeRuneInString(expr[i:]); isIdentPart(r) || r == '.' {
			return token{}, 0, invalid(expr, start, "malformed number %q", expr[start:i+1])
		}
	}
	text := expr[start:i]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, 0, invalid(expr, start, "malformed number %q", text)
	}
	return token{kind: tokNumber, pos: start, text: text, num: v}, i - start, nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentPart(r rune) bool { return isIdentStart(r) || unicode.IsDigit(r) }
