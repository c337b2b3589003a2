// Package vm implements the core machinery of the pscheme interpreter:
// the tagged cell value model, the Int/Float/Complex numeric tower, the
// interned symbol table and lexical environments, ports, and the
// primitive-operation dispatcher. The reader lives in the sibling reader
// package; the evaluator is an external collaborator that drives Call
// with already-evaluated argument vectors.
package vm
