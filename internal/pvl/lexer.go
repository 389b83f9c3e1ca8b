package pvl

import (
	"fmt"
	"strings"
)

// tokenKind identifies the lexical class of a token
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokQuoted
	tokSymbol
	tokUnit
	tokEquals
	tokComma
	tokOpenParen
	tokCloseParen
	tokOpenBrace
	tokCloseBrace
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of label"
	case tokWord:
		return "word"
	case tokQuoted:
		return "quoted string"
	case tokSymbol:
		return "symbol"
	case tokUnit:
		return "unit"
	case tokEquals:
		return "'='"
	case tokComma:
		return "','"
	case tokOpenParen:
		return "'('"
	case tokCloseParen:
		return "')'"
	case tokOpenBrace:
		return "'{'"
	case tokCloseBrace:
		return "'}'"
	}
	return "unknown"
}

// token is a single lexical element of a label
type token struct {
	kind tokenKind
	text string
	line int
}

// lexer splits label text into tokens. It never looks past the bytes it is given,
// so callers bound the label region before lexing.
type lexer struct {
	src  []byte
	pos  int
	line int
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, line: 1}
}

func (l *lexer) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Line: l.line, Msg: fmt.Sprintf(format, args...)}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v'
}

// isDelimiter reports whether c terminates a bare word
func isDelimiter(c byte) bool {
	switch c {
	case '=', ',', '(', ')', '{', '}', '<', '>', '"', '\'':
		return true
	}
	return isSpace(c)
}

// atLineStart reports whether only blanks precede pos on the current line
func (l *lexer) atLineStart() bool {
	for i := l.pos - 1; i >= 0; i-- {
		switch l.src[i] {
		case '\n':
			return true
		case ' ', '\t', '\r':
			continue
		default:
			return false
		}
	}
	return true
}

// skipBlank consumes whitespace and comments
func (l *lexer) skipBlank() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case isSpace(c):
			l.pos++
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '*':
			end := strings.Index(string(l.src[l.pos+2:]), "*/")
			if end < 0 {
				return l.errorf("unterminated comment")
			}
			comment := l.src[l.pos : l.pos+2+end+2]
			l.line += strings.Count(string(comment), "\n")
			l.pos += len(comment)
		case c == '#' && l.atLineStart():
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) next() (token, error) {
	if err := l.skipBlank(); err != nil {
		return token{}, err
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line}, nil
	}

	c := l.src[l.pos]
	if c < 0x20 || c == 0x7f {
		return token{}, l.errorf("invalid character 0x%02x", c)
	}

	line := l.line
	switch c {
	case '=':
		l.pos++
		return token{kind: tokEquals, text: "=", line: line}, nil
	case ',':
		l.pos++
		return token{kind: tokComma, text: ",", line: line}, nil
	case '(':
		l.pos++
		return token{kind: tokOpenParen, text: "(", line: line}, nil
	case ')':
		l.pos++
		return token{kind: tokCloseParen, text: ")", line: line}, nil
	case '{':
		l.pos++
		return token{kind: tokOpenBrace, text: "{", line: line}, nil
	case '}':
		l.pos++
		return token{kind: tokCloseBrace, text: "}", line: line}, nil
	case '<':
		return l.unit()
	case '"':
		return l.quoted()
	case '\'':
		return l.symbol()
	case '>':
		return token{}, l.errorf("unexpected '>'")
	}
	return l.word()
}

func (l *lexer) unit() (token, error) {
	line := l.line
	start := l.pos + 1
	for i := start; i < len(l.src); i++ {
		switch l.src[i] {
		case '>':
			l.pos = i + 1
			return token{kind: tokUnit, text: strings.TrimSpace(string(l.src[start:i])), line: line}, nil
		case '\n':
			return token{}, l.errorf("unterminated unit")
		}
	}
	return token{}, l.errorf("unterminated unit")
}

// quoted reads a double-quoted string. Line breaks inside the string and the
// indentation that follows them collapse into a single space.
func (l *lexer) quoted() (token, error) {
	line := l.line
	var b strings.Builder
	for i := l.pos + 1; i < len(l.src); i++ {
		c := l.src[i]
		switch {
		case c == '"':
			l.pos = i + 1
			return token{kind: tokQuoted, text: b.String(), line: line}, nil
		case c == '\n' || c == '\r':
			if c == '\n' {
				l.line++
			}
			for i+1 < len(l.src) && isSpace(l.src[i+1]) {
				if l.src[i+1] == '\n' {
					l.line++
				}
				i++
			}
			text := strings.TrimRight(b.String(), " \t")
			b.Reset()
			switch {
			case strings.HasSuffix(text, "-"):
				b.WriteString(strings.TrimSuffix(text, "-"))
			case text != "":
				b.WriteString(text)
				b.WriteByte(' ')
			}
		case c < 0x20 && c != '\t':
			return token{}, l.errorf("invalid character 0x%02x in string", c)
		default:
			b.WriteByte(c)
		}
	}
	return token{}, &SyntaxError{Line: line, Msg: "unterminated string"}
}

func (l *lexer) symbol() (token, error) {
	line := l.line
	start := l.pos + 1
	for i := start; i < len(l.src); i++ {
		switch l.src[i] {
		case '\'':
			l.pos = i + 1
			return token{kind: tokSymbol, text: string(l.src[start:i]), line: line}, nil
		case '\n':
			return token{}, l.errorf("unterminated symbol")
		}
	}
	return token{}, l.errorf("unterminated symbol")
}

// word reads a bare token. A word ending with '-' right before a line break
// continues on the next line.
func (l *lexer) word() (token, error) {
	line := l.line
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c < 0x20 && !isSpace(c) || c == 0x7f {
			return token{}, l.errorf("invalid character 0x%02x", c)
		}
		if isDelimiter(c) {
			if (c == '\n' || c == '\r') && b.Len() > 1 && strings.HasSuffix(b.String(), "-") {
				s := strings.TrimSuffix(b.String(), "-")
				b.Reset()
				b.WriteString(s)
				for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
					if l.src[l.pos] == '\n' {
						l.line++
					}
					l.pos++
				}
				continue
			}
			break
		}
		b.WriteByte(c)
		l.pos++
	}
	return token{kind: tokWord, text: b.String(), line: line}, nil
}
