// Package reader implements the lexer and recursive parser that turn
// character input into cells: atoms (numbers, booleans, characters,
// strings, symbols, regex literals) and compound forms (lists, dotted
// pairs, vectors and the quote family). The reader is stateful: it owns a
// single one-slot token pushback and scratch buffers for the most
// recently lexed string, number and character literal.
package reader

import (
	"github.com/chazu/pscheme/vm"
)

// ParseError reports a failed read.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return e.Msg }

// Parser reads scheme expressions from input ports, one cell per Read.
type Parser struct {
	scm *vm.Scheme

	putBack Token
	strtok  []rune
	numtok  vm.Number
	chrtok  rune
	regtok  *vm.Regex

	symQuote         *vm.Symbol
	symQuasiquote    *vm.Symbol
	symUnquote       *vm.Symbol
	symUnquoteSplice *vm.Symbol
}

// NewParser creates a parser bound to the interpreter's symbol table and
// pair store, and installs itself as the interpreter's read function.
func NewParser(scm *vm.Scheme) *Parser {
	p := &Parser{
		scm:              scm,
		symQuote:         scm.Intern("quote"),
		symQuasiquote:    scm.Intern("quasiquote"),
		symUnquote:       scm.Intern("unquote"),
		symUnquoteSplice: scm.Intern("unquote-splicing"),
	}
	scm.SetReadFunc(func(_ *vm.Scheme, in *vm.Port) (vm.Cell, error) {
		return p.Read(in)
	})
	return p
}

// ReadString parses the first expression of the argument text.
func (p *Parser) ReadString(src string) (vm.Cell, error) {
	return p.Read(vm.NewInputString(src))
}

// Read returns the next scheme expression from the input port. End of
// input yields the EOF character cell.
func (p *Parser) Read(in *vm.Port) (vm.Cell, error) {
	in.ClearError()
	for {
		switch tok := p.getToken(in); tok {
		case TokComment:
			// next token

		case TokTrue:
			return vm.True, nil

		case TokFalse:
			return vm.False, nil

		case TokChar:
			return vm.FromChar(p.chrtok), nil

		case TokNumber:
			return vm.FromNumber(p.numtok), nil

		case TokString:
			return vm.FromString(string(p.strtok)), nil

		case TokRegex:
			return vm.FromRegex(p.regtok), nil

		case TokSymbol:
			return p.scm.SymbolCell(string(p.strtok)), nil

		case TokQuote:
			return p.readQuoted(in, p.symQuote)

		case TokQuasiQuote:
			return p.readQuoted(in, p.symQuasiquote)

		case TokUnquote:
			return p.readQuoted(in, p.symUnquote)

		case TokUnquoteSplice:
			return p.readQuoted(in, p.symUnquoteSplice)

		case TokOBrace:
			return p.parseList(in)

		case TokVector:
			return p.parseVector(in)

		case TokEof:
			return vm.FromChar(vm.EOFRune), nil

		default:
			return vm.Cell{}, &ParseError{Msg: "invalid token"}
		}
	}
}

// readQuoted rewrites 'x to the two-element list (quote x), and the
// other quote-family tokens accordingly.
func (p *Parser) readQuoted(in *vm.Port, sym *vm.Symbol) (vm.Cell, error) {
	expr, err := p.Read(in)
	if err != nil {
		return vm.Cell{}, err
	}
	return p.scm.List(vm.FromSymbol(sym), expr), nil
}

// parseVector reads #( elements ) into a vector.
func (p *Parser) parseVector(in *vm.Port) (vm.Cell, error) {
	if p.getToken(in) != TokOBrace {
		return vm.Cell{}, &ParseError{Msg: "error while reading vector"}
	}
	v := &vm.Vector{}
	for in.Good() || p.putBack != TokNone {
		switch tok := p.getToken(in); tok {
		case TokComment:
			// next token
		case TokCBrace:
			return vm.FromVector(v), nil
		case TokEof, TokError:
			return vm.Cell{}, &ParseError{Msg: "error while reading vector"}
		default:
			p.putBack = tok
			cell, err := p.Read(in)
			if err != nil {
				return vm.Cell{}, err
			}
			*v = append(*v, cell)
		}
	}
	return vm.Cell{}, &ParseError{Msg: "error while reading vector"}
}

// parseList reads list elements by appending at a tail pointer. A dot
// introduces exactly one more expression whose value becomes the cdr of
// the current tail. While parsing is in progress the list head is rooted
// in the interpreter's top environment under a reserved symbol, so that a
// collection cycle at a safe point cannot reclaim the partial list; the
// binding is removed on return.
func (p *Parser) parseList(in *vm.Port) (vm.Cell, error) {
	list, tail := vm.Nil, vm.Nil
	root := p.scm.Gensym()
	defer p.scm.Getenv().Remove(root)

	for in.Good() || p.putBack != TokNone {
		switch tok := p.getToken(in); tok {
		case TokComment:
			// next token

		case TokCBrace:
			return list, nil

		case TokDot:
			cell, err := p.Read(in)
			if err != nil {
				return vm.Cell{}, err
			}
			if p.getToken(in) == TokCBrace {
				if err := vm.SetCdr(tail, cell); err != nil {
					return vm.Cell{}, &ParseError{Msg: "error while reading list"}
				}
				return list, nil
			}
			return vm.Cell{}, &ParseError{Msg: "error while reading list"}

		case TokEof, TokError:
			return vm.Cell{}, &ParseError{Msg: "error while reading list"}

		default:
			p.putBack = tok
			cell, err := p.Read(in)
			if err != nil {
				return vm.Cell{}, err
			}
			if tail.IsPair() {
				next := p.scm.Cons(cell, vm.Nil)
				tail.Pair().Cdr = next
				tail = next
			} else {
				list = p.scm.Cons(cell, vm.Nil)
				tail = list
				// root the in-progress list against collection
				p.scm.AddEnv(root, list)
			}
		}
	}
	return vm.Cell{}, &ParseError{Msg: "error while reading list"}
}
