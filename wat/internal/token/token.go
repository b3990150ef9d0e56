package token

import "unicode"

// Type classifies a token.
type Type int

const (
	LParen Type = iota
	RParen
	Ident
	String
	Number
)

func (t Type) String() string {
	switch t {
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case Ident:
		return "identifier"
	case String:
		return "string"
	case Number:
		return "number"
	}
	return "unknown"
}

// Token is one lexical element of a source text. Line is the 1-based
// line the token starts on.
type Token struct {
	Value string
	Type  Type
	Line  int
}

// Tokenize splits source into tokens. Comments and whitespace are
// dropped. Unrecognized runes become single-rune identifier tokens so
// the parser can report them in place.
func Tokenize(source string) []Token {
	s := scanner{src: []rune(source), line: 1}
	var tokens []Token
	for {
		tok, ok := s.scan()
		if !ok {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

type scanner struct {
	src  []rune
	pos  int
	line int
}

// at returns the rune off positions ahead of the cursor, or 0 past the
// end of the source.
func (s *scanner) at(off int) rune {
	if s.pos+off >= len(s.src) {
		return 0
	}
	return s.src[s.pos+off]
}

func (s *scanner) scan() (Token, bool) {
	for s.pos < len(s.src) {
		r := s.src[s.pos]
		switch {
		case r == '\n':
			s.line++
			s.pos++
		case unicode.IsSpace(r):
			s.pos++
		case r == ';' && s.at(1) == ';':
			s.skipLine()
		case r == '(' && s.at(1) == ';':
			s.skipBlockComment()
		case r == '(':
			s.pos++
			return Token{"(", LParen, s.line}, true
		case r == ')':
			s.pos++
			return Token{")", RParen, s.line}, true
		case r == '"':
			return s.scanString(), true
		case unicode.IsDigit(r) || ((r == '-' || r == '+') && unicode.IsDigit(s.at(1))):
			return s.scanNumber(), true
		case r == '$' || r == '_' || unicode.IsLetter(r):
			return s.scanIdent(), true
		default:
			s.pos++
			return Token{string(r), Ident, s.line}, true
		}
	}
	return Token{}, false
}

func (s *scanner) skipLine() {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.pos++
	}
}

// skipBlockComment consumes a (; ;) comment, which may nest.
func (s *scanner) skipBlockComment() {
	depth := 0
	for s.pos < len(s.src) {
		switch {
		case s.src[s.pos] == '(' && s.at(1) == ';':
			depth++
			s.pos += 2
		case s.src[s.pos] == ';' && s.at(1) == ')':
			depth--
			s.pos += 2
			if depth == 0 {
				return
			}
		case s.src[s.pos] == '\n':
			s.line++
			s.pos++
		default:
			s.pos++
		}
	}
}

// scanString strips the surrounding quotes. A backslash escapes the
// rune after it, which is all the collector sources ever need.
func (s *scanner) scanString() Token {
	line := s.line
	start := s.pos + 1
	s.pos++
	for s.pos < len(s.src) && s.src[s.pos] != '"' {
		if s.src[s.pos] == '\\' {
			s.pos++
		}
		s.pos++
	}
	value := string(s.src[start:s.pos])
	s.pos++
	return Token{value, String, line}
}

// scanNumber accepts decimal and 0x hex forms, an optional sign, and
// '_' digit separators. The raw text is kept for the parser to convert.
func (s *scanner) scanNumber() Token {
	start := s.pos
	if r := s.src[s.pos]; r == '-' || r == '+' {
		s.pos++
	}
	hex := false
	if s.src[s.pos] == '0' && (s.at(1) == 'x' || s.at(1) == 'X') {
		hex = true
		s.pos += 2
	}
	for s.pos < len(s.src) && isDigitRune(s.src[s.pos], hex) {
		s.pos++
	}
	return Token{string(s.src[start:s.pos]), Number, s.line}
}

func isDigitRune(r rune, hex bool) bool {
	if unicode.IsDigit(r) || r == '_' {
		return true
	}
	return hex && ((r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F'))
}

// scanIdent accepts $names, keywords, instruction names like i64.store,
// and the offset=/align= memarg forms.
func (s *scanner) scanIdent() Token {
	start := s.pos
	for s.pos < len(s.src) && isIdentRune(s.src[s.pos]) {
		s.pos++
	}
	return Token{string(s.src[start:s.pos]), Ident, s.line}
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) ||
		r == '_' || r == '.' || r == '$' || r == '-' || r == '=' || r == '\''
}
