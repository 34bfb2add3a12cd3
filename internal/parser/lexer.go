// Package parser tokenizes and parses the textual 3AC grammar described in
// spec.md §4.B into an ir.Program and an ir.LabelTable.
package parser

// tokenKind classifies a scanned token.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokBracketOpen
	tokBracketClose
	tokMinus
	tokColon
)

// token is a single lexeme together with the source line it started on.
type token struct {
	kind tokenKind
	text string
	line int
}

// lexer scans a source buffer one token at a time. It tracks a 1-indexed
// line counter so ParseError can report a useful location, matching
// scanning_state's line_number field in the original source.
type lexer struct {
	src  string
	pos  int
	line int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, pos: 0, line: 1}
}

func (l *lexer) eof() bool {
	return l.pos >= len(l.src)
}

func (l *lexer) peekByte() byte {
	return l.src[l.pos]
}

// skipWhitespace consumes spaces, tabs and newlines, incrementing line on
// every '\n' encountered (spec.md §4.B: "Whitespace (including CR/LF...)
// is skipped").
func (l *lexer) skipWhitespace() {
	for !l.eof() {
		switch l.src[l.pos] {
		case '\n':
			l.line++
			l.pos++
		case '\r', ' ', '\t':
			l.pos++
		default:
			return
		}
	}
}

func isIdentChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// next scans and returns the next token. EOF yields a zero-value token of
// kind tokEOF with an empty text, matching getNextToken's "" sentinel.
func (l *lexer) next() token {
	l.skipWhitespace()
	if l.eof() {
		return token{kind: tokEOF, line: l.line}
	}

	start := l.pos
	line := l.line
	switch {
	case isIdentChar(l.peekByte()):
		for !l.eof() && isIdentChar(l.peekByte()) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], line: line}
	case isDigit(l.peekByte()):
		for !l.eof() && isDigit(l.peekByte()) {
			l.pos++
		}
		return token{kind: tokNumber, text: l.src[start:l.pos], line: line}
	case l.peekByte() == '(':
		l.pos++
		return token{kind: tokBracketOpen, text: "(", line: line}
	case l.peekByte() == ')':
		l.pos++
		return token{kind: tokBracketClose, text: ")", line: line}
	case l.peekByte() == '-':
		l.pos++
		return token{kind: tokMinus, text: "-", line: line}
	case l.peekByte() == ':':
		l.pos++
		return token{kind: tokColon, text: ":", line: line}
	default:
		// Unknown character: consume it as a single-byte token so the
		// parser can surface it as the offending token in a ParseError
		// rather than looping forever.
		l.pos++
		return token{kind: tokIdent, text: l.src[start:l.pos], line: line}
	}
}
