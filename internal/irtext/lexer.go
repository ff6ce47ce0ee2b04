package irtext

import (
	"strconv"
	"strings"

	"github.com/taylorlloyd/llvmMRIS/internal/errors"
)

// ============================================================================
// Lexer - 文本 IR 词法分析器
// ============================================================================
//
// 换行不是语法的一部分；注释以 ';' 开始直到行尾。
// 名称字符包括字母、数字、'_'、'.' 和 '$'。
//
// ============================================================================

// Lexer 词法分析器
type Lexer struct {
	source   string
	filename string

	start     int
	current   int
	line      int
	column    int
	lineStart int

	errors []*errors.CompileError
}

// NewLexer 创建词法分析器
func NewLexer(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
		column:   1,
	}
}

// Errors 返回词法错误
func (l *Lexer) Errors() []*errors.CompileError { return l.errors }

// ScanTokens 扫描全部 token，末尾总是 EOF
func (l *Lexer) ScanTokens() []Token {
	tokens := make([]Token, 0, len(l.source)/4+1)
	for {
		tok := l.Next()
		if tok.Type == ILLEGAL {
			continue
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

// Next 扫描下一个 token
func (l *Lexer) Next() Token {
	l.skipSpace()
	l.start = l.current
	line, col := l.line, l.current-l.lineStart+1
	if l.atEnd() {
		return Token{Type: EOF, Line: line, Column: col}
	}

	c := l.advance()
	mk := func(t TokenType, lit string) Token {
		return Token{Type: t, Literal: lit, Line: line, Column: col}
	}

	switch c {
	case '(':
		return mk(LPAREN, "(")
	case ')':
		return mk(RPAREN, ")")
	case '{':
		return mk(LBRACE, "{")
	case '}':
		return mk(RBRACE, "}")
	case '[':
		return mk(LBRACKET, "[")
	case ']':
		return mk(RBRACKET, "]")
	case '<':
		return mk(LT, "<")
	case '>':
		return mk(GT, ">")
	case ',':
		return mk(COMMA, ",")
	case ':':
		return mk(COLON, ":")
	case '=':
		return mk(ASSIGN, "=")
	case '@', '%', '!':
		name := l.name()
		if name == "" {
			l.errorf(errors.E0002, line, col, "expected name after %q", c)
			return mk(ILLEGAL, string(c))
		}
		switch c {
		case '@':
			return mk(GLOBAL, name)
		case '%':
			return mk(LOCAL, name)
		}
		return mk(META, name)
	case '"':
		return l.str(line, col)
	case '-':
		if l.peek() == '>' {
			l.advance()
			return mk(ARROW, "->")
		}
		if isDigit(l.peek()) {
			return l.number(line, col)
		}
	}

	if isDigit(c) {
		return l.number(line, col)
	}
	if isNameStart(c) {
		l.current--
		return mk(IDENT, l.name())
	}

	l.errorf(errors.E0002, line, col, "unexpected character %q", c)
	return mk(ILLEGAL, string(c))
}

func (l *Lexer) skipSpace() {
	for !l.atEnd() {
		switch c := l.source[l.current]; c {
		case ' ', '\t', '\r':
			l.current++
		case '\n':
			l.current++
			l.line++
			l.lineStart = l.current
		case ';':
			for !l.atEnd() && l.source[l.current] != '\n' {
				l.current++
			}
		default:
			return
		}
	}
}

func (l *Lexer) name() string {
	begin := l.current
	for !l.atEnd() && isNameChar(l.source[l.current]) {
		l.current++
	}
	return l.source[begin:l.current]
}

func (l *Lexer) number(line, col int) Token {
	isFloat := false
scan:
	for !l.atEnd() {
		c := l.source[l.current]
		switch {
		case isDigit(c):
		case c == '.' || c == 'e' || c == 'E':
			isFloat = true
		case (c == '+' || c == '-') && isFloat && (l.source[l.current-1] == 'e' || l.source[l.current-1] == 'E'):
		default:
			break scan
		}
		l.current++
	}
	lit := l.source[l.start:l.current]
	if isFloat {
		if _, err := strconv.ParseFloat(lit, 64); err != nil {
			l.errorf(errors.E0005, line, col, "invalid number %q", lit)
			return Token{Type: ILLEGAL, Literal: lit, Line: line, Column: col}
		}
		return Token{Type: FLOAT, Literal: lit, Line: line, Column: col}
	}
	if _, err := strconv.ParseInt(lit, 10, 64); err != nil {
		if _, uerr := strconv.ParseUint(lit, 10, 64); uerr != nil {
			l.errorf(errors.E0005, line, col, "invalid number %q", lit)
			return Token{Type: ILLEGAL, Literal: lit, Line: line, Column: col}
		}
	}
	return Token{Type: INT, Literal: lit, Line: line, Column: col}
}

func (l *Lexer) str(line, col int) Token {
	var sb strings.Builder
	for {
		if l.atEnd() || l.source[l.current] == '\n' {
			l.errorf(errors.E0003, line, col, "unterminated string")
			return Token{Type: ILLEGAL, Line: line, Column: col}
		}
		c := l.advance()
		if c == '"' {
			break
		}
		if c == '\\' && !l.atEnd() {
			switch e := l.advance(); e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(e)
			}
			continue
		}
		sb.WriteByte(c)
	}
	return Token{Type: STRING, Literal: sb.String(), Line: line, Column: col}
}

func (l *Lexer) advance() byte {
	c := l.source[l.current]
	l.current++
	return c
}

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) atEnd() bool { return l.current >= len(l.source) }

func (l *Lexer) errorf(code string, line, col int, format string, args ...interface{}) {
	l.errors = append(l.errors, errors.New(code, l.filename, line, col, format, args...))
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isNameChar(c byte) bool {
	return isNameStart(c) || isDigit(c) || c == '.' || c == '$'
}
