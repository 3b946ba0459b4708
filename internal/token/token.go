package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT  = "IDENT"  // add, foobar, x, @body
	NUMBER = "NUMBER" // 1343456, 3.14
	STRING = "STRING" // 'foobar', "foobar"

	// Operators
	ASSIGN     = "="
	DECLARE    = ":="
	PLUS       = "+"
	MINUS      = "-"
	BANG       = "!"
	ASTERISK   = "*"
	SLASH      = "/"
	PERCENT    = "%"
	ROCKET     = "=>"
	LOGIC_AND  = "&&"
	LOGIC_OR   = "||"
	EQ         = "=="
	NOT_EQ     = "!="
	LT         = "<"
	LT_EQ      = "<="
	GT         = ">"
	GT_EQ      = ">="
	INCREMENT  = "++"
	DECREMENT  = "--"

	// Delimiters
	PERIOD    = "."
	COMMA     = ","
	SEMICOLON = ";"

	LPAREN   = "("
	RPAREN   = ")"
	LBRACE   = "{"
	RBRACE   = "}"
	LBRACKET = "["
	RBRACKET = "]"
)

type Token struct {
	Type     TokenType
	Literal  string
	Position int // the src index of the token
	// NewlineBefore is set when at least one line break separates this token from the previous one.
	NewlineBefore bool
	// Unterminated marks an ILLEGAL token cut off by the end of input, such as an open string.
	Unterminated bool
}

// Operators maps binary operator tokens onto the root built-in that implements them.
var Operators = map[TokenType]string{
	PLUS:      "_add",
	MINUS:     "_sub",
	ASTERISK:  "_mul",
	SLASH:     "_div",
	PERCENT:   "_mod",
	EQ:        "_eq",
	NOT_EQ:    "_neq",
	LT:        "_lt",
	LT_EQ:     "_lteq",
	GT:        "_gt",
	GT_EQ:     "_gteq",
	LOGIC_AND: "_band",
	LOGIC_OR:  "_bor",
	PERIOD:    "_dot",
	ASSIGN:    "assign",
	DECLARE:   "assign",
}
