package lexer

import (
	"plastic/internal/token"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Lexer struct {
	input        string
	position     int  // current byte position in input (points to start of current rune)
	readPosition int  // next byte position in input (start of next rune)
	ch           rune // current rune under examination; 0 means EOF
	sawNewline   bool // a line break was skipped since the last token
}

// Tokenizer is the stream of tokens consumed by the parser.
type Tokenizer interface {
	NextToken() token.Token
}

func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) NextToken() token.Token {
	l.sawNewline = false
	l.skipWhitespace()

	tok := l.scan()
	tok.NewlineBefore = l.sawNewline
	return tok
}

func (l *Lexer) scan() token.Token {
	var tok token.Token
	startPosition := l.position

	switch l.ch {
	case '=':
		tok = l.handleCompoundToken2(token.ASSIGN, '=', token.EQ, '>', token.ROCKET)
	case ':':
		if l.peekChar() != '=' {
			tok = newToken(token.ILLEGAL, l.ch, startPosition)
			break
		}
		l.readChar()
		tok = token.Token{Type: token.DECLARE, Literal: ":=", Position: startPosition}
	case '+':
		tok = l.handleCompoundToken(token.PLUS, '+', token.INCREMENT)
	case '-':
		tok = l.handleCompoundToken(token.MINUS, '-', token.DECREMENT)
	case '!':
		tok = l.handleCompoundToken(token.BANG, '=', token.NOT_EQ)
	case '*':
		tok = newToken(token.ASTERISK, l.ch, startPosition)
	case '/':
		tok = newToken(token.SLASH, l.ch, startPosition)
	case '%':
		tok = newToken(token.PERCENT, l.ch, startPosition)
	case '&':
		if l.peekChar() != '&' {
			tok = newToken(token.ILLEGAL, l.ch, startPosition)
			break
		}
		l.readChar()
		tok = token.Token{Type: token.LOGIC_AND, Literal: "&&", Position: startPosition}
	case '|':
		if l.peekChar() != '|' {
			tok = newToken(token.ILLEGAL, l.ch, startPosition)
			break
		}
		l.readChar()
		tok = token.Token{Type: token.LOGIC_OR, Literal: "||", Position: startPosition}
	case '<':
		tok = l.handleCompoundToken(token.LT, '=', token.LT_EQ)
	case '>':
		tok = l.handleCompoundToken(token.GT, '=', token.GT_EQ)
	case ';':
		tok = newToken(token.SEMICOLON, l.ch, startPosition)
	case ',':
		tok = newToken(token.COMMA, l.ch, startPosition)
	case '.':
		tok = newToken(token.PERIOD, l.ch, startPosition)
	case '(':
		tok = newToken(token.LPAREN, l.ch, startPosition)
	case ')':
		tok = newToken(token.RPAREN, l.ch, startPosition)
	case '{':
		tok = newToken(token.LBRACE, l.ch, startPosition)
	case '}':
		tok = newToken(token.RBRACE, l.ch, startPosition)
	case '[':
		tok = newToken(token.LBRACKET, l.ch, startPosition)
	case ']':
		tok = newToken(token.RBRACKET, l.ch, startPosition)
	case '\'', '"':
		return l.readString(l.ch)
	case '@':
		if !isLetter(l.peekChar()) {
			tok = newToken(token.ILLEGAL, l.ch, startPosition)
			break
		}
		l.readChar() // the '@' stays part of the identifier
		name := l.readIdentifier()
		return token.Token{Type: token.IDENT, Literal: "@" + name, Position: startPosition}
	case 0:
		return token.Token{Type: token.EOF, Literal: "", Position: startPosition}
	default:
		if isLetter(l.ch) {
			return token.Token{Type: token.IDENT, Literal: l.readIdentifier(), Position: startPosition}
		}
		if isDigit(l.ch) {
			return token.Token{Type: token.NUMBER, Literal: l.readNumber(), Position: startPosition}
		}
		tok = newToken(token.ILLEGAL, l.ch, startPosition)
	}

	l.readChar()
	return tok
}

func (l *Lexer) handleCompoundToken(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
) token.Token {
	startPosition := l.position
	if l.peekChar() == ch1 {
		first := l.ch
		l.readChar()
		literal := string(first) + string(l.ch)
		return token.Token{Type: t1, Literal: literal, Position: startPosition}
	}
	return newToken(t, l.ch, startPosition)
}

func (l *Lexer) handleCompoundToken2(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
	ch2 rune,
	t2 token.TokenType,
) token.Token {
	startPosition := l.position
	peek := l.peekChar()
	if peek != ch1 && peek != ch2 {
		return newToken(t, l.ch, startPosition)
	}
	kind := t1
	if peek == ch2 {
		kind = t2
	}
	first := l.ch
	l.readChar()
	literal := string(first) + string(l.ch)
	return token.Token{Type: kind, Literal: literal, Position: startPosition}
}

func (l *Lexer) skipWhitespace() {
	for {
		switch l.ch {
		case '\n':
			l.sawNewline = true
			l.readChar()
		case ' ', '\t', '\r':
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

func (l *Lexer) skipToLineEnd() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// readChar advances by one UTF-8 rune, updating byte positions
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

// peekChar returns the next rune without advancing; returns 0 at EOF
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// readIdentifier returns the substring (bytes) covering the identifier runes
func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.position]
}

// readString consumes a quoted literal. A string still open at the end of input
// yields an Unterminated ILLEGAL token.
func (l *Lexer) readString(quote rune) token.Token {
	startPosition := l.position
	var result strings.Builder
	l.readChar() // consume the opening quote

	for l.ch != quote {
		if l.ch == 0 {
			return token.Token{Type: token.ILLEGAL, Literal: "unterminated string", Position: startPosition, Unterminated: true}
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				result.WriteRune('\n')
			case 't':
				result.WriteRune('\t')
			case '\\', '\'', '"':
				result.WriteRune(l.ch)
			default:
				result.WriteRune('\\')
				result.WriteRune(l.ch)
			}
		} else {
			result.WriteRune(l.ch)
		}
		l.readChar()
	}
	l.readChar() // consume the closing quote

	return token.Token{Type: token.STRING, Literal: result.String(), Position: startPosition}
}

// Unicode-aware helpers
func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.Is(unicode.Mn, ch) || unicode.Is(unicode.Mc, ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func newToken(tokenType token.TokenType, ch rune, position int) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Position: position}
}
