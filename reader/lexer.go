package reader

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/chazu/pscheme/vm"
)

// ---------------------------------------------------------------------------
// Tokenizer
// ---------------------------------------------------------------------------
//
// getToken skips leading whitespace and reads one character. The special
// characters ( ) " ' ` , ; emit their token directly; everything else
// accumulates into the scratch buffer until the next whitespace or special
// character, whose terminator is pushed back to the stream. The token is
// then classified by its first character.

// isSpecial reports the scheme characters that start a new expression,
// string or comment.
func isSpecial(c rune) bool {
	return strings.ContainsRune(`()"'`+"`"+`,;`, c)
}

// isGraph reports printable non-space characters.
func isGraph(c rune) bool {
	return unicode.IsGraphic(c) && c != ' '
}

// isAlpha reports characters allowed to start a symbol.
func isAlpha(c rune) bool {
	return isGraph(c) && !unicode.IsDigit(c) && !isSpecial(c)
}

// isNumberStart reports whether the scratch token enters the number
// lexer: a leading digit, or one of +<digit>, -<digit>, .<digit>, +i, -i.
func isNumberStart(tok []rune) bool {
	if unicode.IsDigit(tok[0]) {
		return true
	}
	if len(tok) < 2 {
		return false
	}
	switch tok[0] {
	case '+', '-':
		return unicode.IsDigit(tok[1]) || tok[1] == 'i' || tok[1] == 'I'
	case '.':
		return unicode.IsDigit(tok[1])
	}
	return false
}

// getToken returns the next token from the input stream. Depending on the
// token type the value lands in the strtok, numtok, chrtok or regtok
// scratch slot.
func (p *Parser) getToken(in *vm.Port) Token {
	// Check if there is a put-back token available:
	if p.putBack != TokNone {
		tok := p.putBack
		p.putBack = TokNone
		return tok
	}

	// Ignore all leading whitespace:
	var c rune
	for {
		c = in.ReadRune()
		if in.Eof() {
			return TokEof
		}
		if in.Fail() {
			return TokError
		}
		if !unicode.IsSpace(c) {
			break
		}
	}

	p.strtok = append(p.strtok[:0], c)

	// Accumulate until a trailing whitespace, special character or EOF;
	// the terminator goes back onto the stream.
	if !isSpecial(c) {
		for {
			r := in.ReadRune()
			if in.Eof() {
				break
			}
			if in.Fail() {
				return TokError
			}
			if unicode.IsSpace(r) || isSpecial(r) {
				in.UnreadRune()
				break
			}
			p.strtok = append(p.strtok, r)
		}
	}

	switch c {
	case '(':
		return TokOBrace
	case ')':
		return TokCBrace
	case '\'':
		return TokQuote
	case '`':
		return TokQuasiQuote
	case ',':
		return p.lexUnquote(in)
	case ';':
		return p.skipComment(in)
	case '#':
		return p.lexSpecial(in)
	case '"':
		return p.lexString(in)
	case '.':
		if len(p.strtok) == 1 {
			return TokDot
		}
		fallthrough
	default:
		if isNumberStart(p.strtok) {
			return p.lexNumber()
		}
		return p.lexSymbol()
	}
}

// lexUnquote distinguishes unquote from unquote-splicing.
func (p *Parser) lexUnquote(in *vm.Port) Token {
	if in.PeekRune() == '@' {
		in.ReadRune()
		return TokUnquoteSplice
	}
	return TokUnquote
}

// skipComment discards characters through the end of the line.
func (p *Parser) skipComment(in *vm.Port) Token {
	for {
		r := in.ReadRune()
		if in.Eof() || in.Fail() || r == '\n' {
			return TokComment
		}
	}
}

// lexNumber converts the scratch token with the number lexer.
func (p *Parser) lexNumber() Token {
	n, ok := vm.ParseNumber(string(p.strtok))
	if !ok {
		return TokError
	}
	p.numtok = n
	return TokNumber
}

// lexSymbol validates the scratch token as a symbol: the first character
// must be graphic, not a digit and not special; the remaining characters
// must be alphabetic or digits.
func (p *Parser) lexSymbol() Token {
	if len(p.strtok) == 0 || !isAlpha(p.strtok[0]) {
		return TokError
	}
	for _, r := range p.strtok[1:] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return TokError
		}
	}
	return TokSymbol
}

// lexString reads a string literal body from the stream. A backslash is
// retained together with the following character; escape interpretation
// is deferred to display. Unescaped non-printable characters fail.
func (p *Parser) lexString(in *vm.Port) Token {
	p.strtok = p.strtok[:0]
	for {
		c := in.ReadRune()
		if in.Eof() || in.Fail() {
			return TokError
		}
		switch c {
		case '"':
			return TokString
		case '\\':
			p.strtok = append(p.strtok, '\\')
			c = in.ReadRune()
			if in.Eof() || in.Fail() {
				return TokError
			}
			p.strtok = append(p.strtok, c)
		default:
			if !unicode.IsPrint(c) {
				return TokError
			}
			p.strtok = append(p.strtok, c)
		}
	}
}

// lexRegex reads a #r"pattern" literal: the scratch token must be exactly
// #r with the quote following directly in the stream.
func (p *Parser) lexRegex(in *vm.Port) Token {
	if string(p.strtok) != "#r" || in.ReadRune() != '"' {
		return TokError
	}
	if p.lexString(in) != TokString {
		return TokError
	}
	pattern := string(p.strtok)
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return TokError
	}
	p.regtok = &vm.Regex{Pattern: pattern, RE: re}
	return TokRegex
}

// lexSpecial classifies a token starting with #.
func (p *Parser) lexSpecial(in *vm.Port) Token {
	tok := string(p.strtok)
	if tok == "#" {
		return TokVector
	}
	switch tok {
	case "#t", "#true":
		return TokTrue
	case "#f", "#false":
		return TokFalse
	}
	switch p.strtok[1] {
	case 't', 'f', '\\':
		return p.lexChar(in)
	case 'e':
		n, ok := vm.ParseNumber(tok[2:])
		if !ok {
			return TokError
		}
		p.numtok = n.Trunc()
		return TokNumber
	case 'i':
		n, ok := vm.ParseNumber(tok[2:])
		if !ok {
			return TokError
		}
		if n.IsInt() {
			n = vm.Float64(float64(n.Int()))
		}
		p.numtok = n
		return TokNumber
	case 'r':
		return p.lexRegex(in)
	default:
		return TokError
	}
}

// lexChar resolves a #\ character literal: a trailing special or space
// character, a single character, a #\xNN hex code point, or a name from
// the character table (case-insensitive).
func (p *Parser) lexChar(in *vm.Port) Token {
	tok := p.strtok
	if len(tok) == 2 {
		if next := in.PeekRune(); unicode.IsSpace(next) || isSpecial(next) {
			p.chrtok = in.ReadRune()
			return TokChar
		}
		return TokError
	}
	if len(tok) == 3 {
		p.chrtok = tok[2]
		return TokChar
	}
	// Table names win over hex so that #\xi stays the Greek letter while
	// #\x41 is a code point.
	if tok[1] == '\\' {
		if c, ok := vm.CharFromName(string(tok[2:])); ok {
			p.chrtok = c
			return TokChar
		}
	}
	if len(tok) > 3 && tok[2] == 'x' {
		code, err := strconv.ParseInt(string(tok[3:]), 16, 32)
		if err != nil {
			return TokError
		}
		p.chrtok = rune(code)
		return TokChar
	}
	return TokError
}
