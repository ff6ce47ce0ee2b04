package irtext

import "fmt"

// TokenType 词法单元类型
type TokenType int

const (
	EOF TokenType = iota
	ILLEGAL

	IDENT  // add, i32, entry
	GLOBAL // @name
	LOCAL  // %name
	META   // !tbaa
	INT    // 42, -7
	FLOAT  // 1.5, -2e3
	STRING // "text"

	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
	LBRACKET // [
	RBRACKET // ]
	LT       // <
	GT       // >
	COMMA    // ,
	COLON    // :
	ASSIGN   // =
	ARROW    // ->
)

var tokenNames = map[TokenType]string{
	EOF:      "EOF",
	ILLEGAL:  "ILLEGAL",
	IDENT:    "identifier",
	GLOBAL:   "global name",
	LOCAL:    "local name",
	META:     "metadata",
	INT:      "integer",
	FLOAT:    "float",
	STRING:   "string",
	LPAREN:   "(",
	RPAREN:   ")",
	LBRACE:   "{",
	RBRACE:   "}",
	LBRACKET: "[",
	RBRACKET: "]",
	LT:       "<",
	GT:       ">",
	COMMA:    ",",
	COLON:    ":",
	ASSIGN:   "=",
	ARROW:    "->",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token 词法单元
type Token struct {
	Type    TokenType
	Literal string // 名称不含 @/%/! 前缀；字符串已去引号
	Line    int
	Column  int
}

func (t Token) String() string {
	switch t.Type {
	case GLOBAL:
		return "@" + t.Literal
	case LOCAL:
		return "%" + t.Literal
	case META:
		return "!" + t.Literal
	case STRING:
		return fmt.Sprintf("%q", t.Literal)
	case EOF:
		return "end of file"
	}
	if t.Literal != "" {
		return t.Literal
	}
	return t.Type.String()
}
