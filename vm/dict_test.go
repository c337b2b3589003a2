package vm

import "testing"

func TestDictNumericKeyEquivalence(t *testing.T) {
	d := NewDict()
	d.Insert(FromInt(1), FromString("one"))

	for _, key := range []Cell{FromInt(1), FromFloat(1), FromComplex(complex(1, 0))} {
		val, ok := d.Find(key)
		if !ok {
			t.Errorf("Find(%s) missed", WriteCell(key))
			continue
		}
		if DisplayCell(val) != "one" {
			t.Errorf("Find(%s) = %s", WriteCell(key), WriteCell(val))
		}
	}
}

func TestDictStringKeysByContent(t *testing.T) {
	d := NewDict()
	d.Insert(FromString("k"), FromInt(1))
	if _, ok := d.Find(FromString("k")); !ok {
		t.Error("distinct string handle with same content missed")
	}
}

func TestDictSymbolKeysByIdentity(t *testing.T) {
	st := NewSymbolTable()
	d := NewDict()
	foo := st.Intern("foo")
	d.Insert(FromSymbol(foo), FromInt(1))

	if _, ok := d.Find(FromSymbol(st.Intern("foo"))); !ok {
		t.Error("interned symbol missed")
	}
	if _, ok := d.Find(FromSymbol(st.Intern("bar"))); ok {
		t.Error("different symbol found")
	}
}

func TestDictMultimap(t *testing.T) {
	d := NewDict()
	d.Insert(FromInt(1), FromString("a"))
	d.Insert(FromInt(1), FromString("b"))
	d.Insert(FromInt(2), FromString("c"))

	if got := d.Count(FromInt(1)); got != 2 {
		t.Errorf("Count(1) = %d, want 2", got)
	}
	if got := d.Size(); got != 3 {
		t.Errorf("Size = %d, want 3", got)
	}
	if got := d.Erase(FromInt(1)); got != 2 {
		t.Errorf("Erase(1) = %d, want 2", got)
	}
	if got := d.Size(); got != 1 {
		t.Errorf("Size after erase = %d, want 1", got)
	}
	d.Clear()
	if !d.IsEmpty() {
		t.Error("dict not empty after Clear")
	}
}
