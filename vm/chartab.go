package vm

import "strings"

// ---------------------------------------------------------------------------
// Named character literals
// ---------------------------------------------------------------------------
//
// The table maps the #\<name> spellings accepted by the reader to code
// points; the writer uses the same names in reverse for non-printable
// characters and for the EOF sentinel. Lookup is case-insensitive and the
// first match wins.

type charName struct {
	name string
	c    rune
}

var charTable = []charName{
	{"eof", EOFRune},
	{"alarm", '\a'},
	{"backspace", '\b'},
	{"delete", 0x7f},
	{"escape", 0x1b},
	{"newline", '\n'},
	{"null", 0},
	{"return", '\r'},
	{"space", ' '},
	{"tab", '\t'},
	{"ae", 'ä'}, {"AE", 'Ä'},
	{"ue", 'ü'}, {"UE", 'Ü'},
	{"oe", 'ö'}, {"OE", 'Ö'},
	{"ss", 'ß'},
	{"_0", '₀'}, {"^0", '⁰'},
	{"_1", '₁'}, {"^1", '¹'},
	{"_2", '₂'}, {"^2", '²'},
	{"_3", '₃'}, {"^3", '³'},
	{"_4", '₄'}, {"^4", '⁴'},
	{"_5", '₅'}, {"^5", '⁵'},
	{"_6", '₆'}, {"^6", '⁶'},
	{"_7", '₇'}, {"^7", '⁷'},
	{"_8", '₈'}, {"^8", '⁸'},
	{"_9", '₉'}, {"^9", '⁹'},
	{"alpha", 'α'},
	{"beta", 'β'},
	{"gamma", 'γ'}, {"Gamma", 'Γ'},
	{"delta", 'δ'}, {"Delta", 'Δ'},
	{"epsilon", 'ε'},
	{"zeta", 'ζ'},
	{"eta", 'η'},
	{"theta", 'θ'},
	{"iota", 'ι'},
	{"kappa", 'κ'},
	{"lambda", 'λ'},
	{"mu", 'μ'},
	{"nu", 'ν'},
	{"xi", 'ξ'}, {"Xi", 'Ξ'},
	{"omicron", 'ο'},
	{"pi", 'π'}, {"Pi", 'Π'},
	{"rho", 'ρ'},
	{"tau", 'τ'},
	{"sigma", 'σ'}, {"Sigma", 'Σ'},
	{"upsilon", 'υ'},
	{"phi", 'φ'}, {"Phi", 'Φ'},
	{"chi", 'χ'},
	{"psi", 'ψ'}, {"Psi", 'Ψ'},
	{"omega", 'ω'}, {"Omega", 'Ω'},
	{"le", '≤'},
	{"ge", '≥'},
	{"sim", '∼'},
	{"simeq", '≃'},
	{"approx", '≈'},
	{"nabla", '∇'},
	{"sum", '∑'},
	{"prod", '∏'},
	{"int", '∫'},
	{"oint", '∮'},
	{"pm", '±'},
	{"div", '÷'},
	{"cdot", '·'},
	{"star", '⋆'},
	{"circ", '∘'},
	{"bullet", '•'},
	{"diamond", '◇'},
	{"lhd", '◁'},
	{"rhd", '▷'},
	{"trup", '△'},
	{"trdown", '▽'},
	{"times", '×'},
	{"otimes", '⊗'},
	{"in", '∈'},
	{"notin", '∉'},
	{"subset", '⊂'},
	{"subseteq", '⊆'},
	{"infty", '∞'},
}

// CharFromName resolves a #\<name> spelling to its code point.
func CharFromName(name string) (rune, bool) {
	name = strings.ToLower(name)
	for _, e := range charTable {
		if strings.ToLower(e.name) == name {
			return e.c, true
		}
	}
	return 0, false
}

// CharName returns the #\ spelling of a code point, if it has one.
func CharName(c rune) (string, bool) {
	for _, e := range charTable {
		if e.c == c {
			return e.name, true
		}
	}
	return "", false
}
