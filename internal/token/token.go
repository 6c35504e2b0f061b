package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT  = "IDENT"  // score, player, x, y, ...
	INT    = "INT"    // 1343456
	FLOAT  = "FLOAT"  // 3.5
	STRING = "STRING" // "foobar"

	// Operators
	ASSIGN   = "="
	DECLARE  = ":="
	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	SLASH    = "/"

	LT    = "<"
	LT_EQ = "<="
	GT    = ">"
	GT_EQ = ">="

	EQ     = "=="
	NOT_EQ = "!="

	// Delimiters
	PERIOD    = "."
	COMMA     = ","
	SEMICOLON = ";"
	COLON     = ":"

	LPAREN   = "("
	RPAREN   = ")"
	LBRACE   = "{"
	RBRACE   = "}"
	LBRACKET = "["
	RBRACKET = "]"

	// Keywords
	VAR      = "VAR"
	LET      = "LET"
	CONST    = "CONST"
	PROC     = "PROC"
	OBJECT   = "OBJECT"
	IF       = "IF"
	ELIF     = "ELIF"
	ELSE     = "ELSE"
	WHILE    = "WHILE"
	FOR      = "FOR"
	IN       = "IN"
	TO       = "TO"
	RETURN   = "RETURN"
	BREAK    = "BREAK"
	CONTINUE = "CONTINUE"
	TRUE     = "TRUE"
	FALSE    = "FALSE"
	NIL      = "NIL"

	// Keyword operators
	AND = "AND"
	OR  = "OR"
	XOR = "XOR"
	NOT = "NOT"
	DIV = "DIV"
	MOD = "MOD"
)

type Token struct {
	Type    TokenType
	Literal string
	Line    int // 1-based source line
	Column  int // 1-based source column
}

var keywords = map[string]TokenType{
	// constants
	"nil":   NIL,
	"true":  TRUE,
	"false": FALSE,

	// declarations
	"var":    VAR,
	"let":    LET,
	"const":  CONST,
	"proc":   PROC,
	"object": OBJECT,

	// flow control
	"if":       IF,
	"elif":     ELIF,
	"else":     ELSE,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"to":       TO,
	"return":   RETURN,
	"break":    BREAK,
	"continue": CONTINUE,

	// keyword operators
	"and": AND,
	"or":  OR,
	"xor": XOR,
	"not": NOT,
	"div": DIV,
	"mod": MOD,
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
