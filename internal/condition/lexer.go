package condition

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokWord   tokenKind = iota // identifier, field path or keyword
	tokOp                      // ==, !=, >=, <=, >, <
	tokString                  // "…" or '…'
	tokNumber                  // 42 | 3.14 | -7
	tokBool                    // true | false
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	val  string
	pos  int
}

type lexer struct {
	src    string
	pos    int
	tokens []token
}

func tokenize(src string) ([]token, error) {
	lx := &lexer{src: src}
	for {
		lx.skipSpace()
		if lx.pos >= len(lx.src) {
			lx.emit(tokEOF, "", lx.pos)
			return lx.tokens, nil
		}
		if err := lx.next(); err != nil {
			return nil, err
		}
	}
}

func (lx *lexer) emit(kind tokenKind, val string, pos int) {
	lx.tokens = append(lx.tokens, token{kind: kind, val: val, pos: pos})
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.src) && unicode.IsSpace(rune(lx.src[lx.pos])) {
		lx.pos++
	}
}

func (lx *lexer) peekByte(off int) byte {
	if lx.pos+off >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos+off]
}

func (lx *lexer) next() error {
	start := lx.pos
	ch := lx.src[lx.pos]
	switch {
	case ch == '(':
		lx.pos++
		lx.emit(tokLParen, "(", start)
	case ch == ')':
		lx.pos++
		lx.emit(tokRParen, ")", start)
	case ch == '[':
		lx.pos++
		lx.emit(tokLBracket, "[", start)
	case ch == ']':
		lx.pos++
		lx.emit(tokRBracket, "]", start)
	case ch == ',':
		lx.pos++
		lx.emit(tokComma, ",", start)
	case ch == '=' || ch == '!' || ch == '<' || ch == '>':
		return lx.operator()
	case ch == '"' || ch == '\'':
		return lx.quoted(ch)
	case isDigit(ch) || (ch == '-' && isDigit(lx.peekByte(1))):
		lx.number()
	case unicode.IsLetter(rune(ch)) || ch == '_':
		lx.word()
	default:
		return fmt.Errorf("unexpected character %q at position %d", ch, start)
	}
	return nil
}

func (lx *lexer) operator() error {
	start := lx.pos
	ch := lx.src[lx.pos]
	if lx.peekByte(1) == '=' {
		lx.pos += 2
		lx.emit(tokOp, lx.src[start:lx.pos], start)
		return nil
	}
	if ch == '=' || ch == '!' {
		return fmt.Errorf("unexpected %q at position %d (did you mean %q?)", ch, start, string(ch)+"=")
	}
	lx.pos++
	lx.emit(tokOp, string(ch), start)
	return nil
}

func (lx *lexer) quoted(quote byte) error {
	start := lx.pos
	var b strings.Builder
	i := lx.pos + 1
	for i < len(lx.src) && lx.src[i] != quote {
		if lx.src[i] == '\\' && i+1 < len(lx.src) {
			i++
		}
		b.WriteByte(lx.src[i])
		i++
	}
	if i >= len(lx.src) {
		return fmt.Errorf("unterminated string starting at position %d", start)
	}
	lx.pos = i + 1
	lx.emit(tokString, b.String(), start)
	return nil
}

func (lx *lexer) number() {
	start := lx.pos
	if lx.src[lx.pos] == '-' {
		lx.pos++
	}
	for lx.pos < len(lx.src) && (isDigit(lx.src[lx.pos]) || lx.src[lx.pos] == '.') {
		lx.pos++
	}
	lx.emit(tokNumber, lx.src[start:lx.pos], start)
}

func (lx *lexer) word() {
	start := lx.pos
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if !unicode.IsLetter(rune(c)) && !isDigit(c) && c != '_' && c != '.' {
			break
		}
		lx.pos++
	}
	w := lx.src[start:lx.pos]
	switch strings.ToLower(w) {
	case "true", "false":
		lx.emit(tokBool, strings.ToLower(w), start)
	default:
		lx.emit(tokWord, w, start)
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
