package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"fable/internal/token"
)

// LexError reports the first malformed token encountered. The lexer does not
// resynchronize; scanning stops at the offending character.
type LexError struct {
	Line    int
	Col     int
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s", e.Line, e.Col, e.Message)
}

// Lex scans the whole input and returns the token stream, terminated by an
// EOF token. It never mutates anything beyond its local cursor, so a source
// string may be lexed any number of times with identical results.
func Lex(input string) ([]token.Token, error) {
	l := newLexer(input)
	var toks []token.Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

type lexer struct {
	input        string
	position     int  // current byte position (start of current rune)
	readPosition int  // next byte position
	ch           rune // current rune; 0 means EOF
	line         int
	col          int
}

func newLexer(input string) *lexer {
	l := &lexer{input: input, line: 1, col: 0}
	l.readChar()
	return l
}

// readChar advances by one UTF-8 rune, updating line and column counters.
func (l *lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.col++
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
	l.col++
}

func (l *lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *lexer) skipWhitespace() {
	for {
		switch l.ch {
		case ' ', '\t', '\r', '\n':
			l.readChar()
		case '#':
			l.skipToLineEnd()
		case '/':
			if l.peekChar() == '/' {
				l.skipToLineEnd()
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *lexer) skipToLineEnd() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

func (l *lexer) nextToken() (token.Token, error) {
	l.skipWhitespace()

	line, col := l.line, l.col

	var tok token.Token
	switch l.ch {
	case '=':
		tok = l.compound(token.ASSIGN, '=', token.EQ, line, col)
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.NOT_EQ, Literal: "!=", Line: line, Column: col}
		} else {
			return token.Token{}, l.errorf(line, col, "unexpected character %q", l.ch)
		}
	case '<':
		tok = l.compound(token.LT, '=', token.LT_EQ, line, col)
	case '>':
		tok = l.compound(token.GT, '=', token.GT_EQ, line, col)
	case ':':
		tok = l.compound(token.COLON, '=', token.DECLARE, line, col)
	case '+':
		tok = newToken(token.PLUS, l.ch, line, col)
	case '-':
		tok = newToken(token.MINUS, l.ch, line, col)
	case '*':
		tok = newToken(token.ASTERISK, l.ch, line, col)
	case '/':
		tok = newToken(token.SLASH, l.ch, line, col)
	case '.':
		tok = newToken(token.PERIOD, l.ch, line, col)
	case ',':
		tok = newToken(token.COMMA, l.ch, line, col)
	case ';':
		tok = newToken(token.SEMICOLON, l.ch, line, col)
	case '(':
		tok = newToken(token.LPAREN, l.ch, line, col)
	case ')':
		tok = newToken(token.RPAREN, l.ch, line, col)
	case '{':
		tok = newToken(token.LBRACE, l.ch, line, col)
	case '}':
		tok = newToken(token.RBRACE, l.ch, line, col)
	case '[':
		tok = newToken(token.LBRACKET, l.ch, line, col)
	case ']':
		tok = newToken(token.RBRACKET, l.ch, line, col)
	case '"':
		lit, err := l.readString(line, col)
		if err != nil {
			return token.Token{}, err
		}
		return token.Token{Type: token.STRING, Literal: lit, Line: line, Column: col}, nil
	case 0:
		return token.Token{Type: token.EOF, Literal: "", Line: line, Column: col}, nil
	default:
		if isLetter(l.ch) {
			lit := l.readIdentifier()
			return token.Token{Type: token.LookupIdent(lit), Literal: lit, Line: line, Column: col}, nil
		}
		if isDigit(l.ch) {
			return l.readNumber(line, col)
		}
		return token.Token{}, l.errorf(line, col, "unexpected character %q", l.ch)
	}

	l.readChar()
	return tok, nil
}

func (l *lexer) compound(t token.TokenType, next rune, t2 token.TokenType, line, col int) token.Token {
	if l.peekChar() == next {
		first := l.ch
		l.readChar()
		return token.Token{Type: t2, Literal: string(first) + string(l.ch), Line: line, Column: col}
	}
	return newToken(t, l.ch, line, col)
}

// readIdentifier returns the substring covering the identifier runes.
func (l *lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber scans an integer or, when a fractional part or exponent is
// present, a float literal.
func (l *lexer) readNumber(line, col int) (token.Token, error) {
	start := l.position
	isFloat := false

	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		isFloat = true
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		if !isDigit(l.ch) {
			return token.Token{}, l.errorf(line, col, "malformed exponent in number literal")
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	lit := l.input[start:l.position]
	typ := token.TokenType(token.INT)
	if isFloat {
		typ = token.FLOAT
	}
	return token.Token{Type: typ, Literal: lit, Line: line, Column: col}, nil
}

func (l *lexer) readString(line, col int) (string, error) {
	var out []rune
	for {
		l.readChar()
		switch l.ch {
		case '"':
			l.readChar() // move past the closing quote
			return string(out), nil
		case 0:
			return "", l.errorf(line, col, "unterminated string literal")
		case '\n':
			return "", l.errorf(line, col, "unterminated string literal")
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case '"':
				out = append(out, '"')
			case '\\':
				out = append(out, '\\')
			default:
				return "", l.errorf(l.line, l.col, "unknown escape sequence \\%c", l.ch)
			}
		default:
			out = append(out, l.ch)
		}
	}
}

func (l *lexer) errorf(line, col int, format string, a ...any) error {
	return &LexError{Line: line, Col: col, Message: fmt.Sprintf(format, a...)}
}

// Unicode-aware helpers; identifiers like café are accepted.
func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func newToken(tokenType token.TokenType, ch rune, line, col int) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Line: line, Column: col}
}
