package gen

import (
	"unicode"

	"github.com/camlgate/camlgate/errors"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokType   // the keyword "type"
	tokOf     // the keyword "of"
	tokLower  // lowercase identifier
	tokUpper  // capitalized identifier
	tokTyVar  // 'a
	tokNumber // digits; never accepted, kept for diagnostics
	tokEq
	tokBar
	tokStar
	tokLParen
	tokRParen
	tokComma
	tokLBrace // { opening an inline record
	tokPoly   // ` or [ opening a polymorphic variant
	tokPunct  // any other punctuation, kept for diagnostics
)

func (t tokenType) String() string {
	switch t {
	case tokEOF:
		return "end of input"
	case tokType:
		return "'type'"
	case tokOf:
		return "'of'"
	case tokLower:
		return "identifier"
	case tokUpper:
		return "constructor name"
	case tokTyVar:
		return "type variable"
	case tokNumber:
		return "number"
	case tokEq:
		return "'='"
	case tokBar:
		return "'|'"
	case tokStar:
		return "'*'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokComma:
		return "','"
	case tokLBrace:
		return "'{'"
	case tokPoly:
		return "polymorphic variant marker"
	case tokPunct:
		return "punctuation"
	}
	return "unknown"
}

type token struct {
	value string
	typ   tokenType
	pos   errors.Pos
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '\''
}

// tokenize splits a declaration source into tokens. Comments nest:
// (* outer (* inner *) *). Semicolons separate declarations in the source
// language and are skipped here.
func tokenize(input string) ([]token, error) {
	var toks []token
	runes := []rune(input)
	line, col := 1, 1

	for i := 0; i < len(runes); {
		r := runes[i]
		p := errors.Pos{Line: line, Col: col}

		if r == '\n' {
			line++
			col = 1
			i++
			continue
		}
		if unicode.IsSpace(r) || r == ';' {
			col++
			i++
			continue
		}

		// Nested comment.
		if r == '(' && i+1 < len(runes) && runes[i+1] == '*' {
			depth := 1
			i += 2
			col += 2
			for i < len(runes) && depth > 0 {
				switch {
				case runes[i] == '(' && i+1 < len(runes) && runes[i+1] == '*':
					depth++
					i += 2
					col += 2
				case runes[i] == '*' && i+1 < len(runes) && runes[i+1] == ')':
					depth--
					i += 2
					col += 2
				case runes[i] == '\n':
					line++
					col = 1
					i++
				default:
					col++
					i++
				}
			}
			if depth > 0 {
				return nil, errors.Syntax("", p, "unterminated comment")
			}
			continue
		}

		switch r {
		case '=':
			toks = append(toks, token{"=", tokEq, p})
		case '|':
			toks = append(toks, token{"|", tokBar, p})
		case '*':
			toks = append(toks, token{"*", tokStar, p})
		case '(':
			toks = append(toks, token{"(", tokLParen, p})
		case ')':
			toks = append(toks, token{")", tokRParen, p})
		case ',':
			toks = append(toks, token{",", tokComma, p})
		case '{':
			toks = append(toks, token{"{", tokLBrace, p})
		case '`', '[':
			toks = append(toks, token{string(r), tokPoly, p})
		case '}', ']', '>', '<', ':', '.':
			toks = append(toks, token{string(r), tokPunct, p})
		default:
			switch {
			case r == '\'' && i+1 < len(runes) && isIdentStart(runes[i+1]):
				start := i + 1
				j := start
				for j < len(runes) && isIdentPart(runes[j]) {
					j++
				}
				toks = append(toks, token{string(runes[start:j]), tokTyVar, p})
				col += j - i
				i = j
				continue
			case unicode.IsDigit(r):
				start := i
				j := i
				for j < len(runes) && unicode.IsDigit(runes[j]) {
					j++
				}
				toks = append(toks, token{string(runes[start:j]), tokNumber, p})
				col += j - i
				i = j
				continue
			case isIdentStart(r):
				start := i
				j := i
				for j < len(runes) && isIdentPart(runes[j]) {
					j++
				}
				word := string(runes[start:j])
				typ := tokLower
				switch {
				case word == "type":
					typ = tokType
				case word == "of":
					typ = tokOf
				case unicode.IsUpper(r):
					typ = tokUpper
				}
				toks = append(toks, token{word, typ, p})
				col += j - i
				i = j
				continue
			default:
				return nil, errors.Syntax("", p, "unexpected character %q", r)
			}
		}
		col++
		i++
	}

	toks = append(toks, token{"", tokEOF, errors.Pos{Line: line, Col: col}})
	return toks, nil
}
