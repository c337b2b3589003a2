package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Image: environment snapshots
// ---------------------------------------------------------------------------
//
// An image captures the data bindings of an environment as canonical CBOR:
// symbols bound to atoms, lists, vectors, strings and dicts. Handles with
// live host state (functions, ports, clocks, regexes, environments) are
// not data and are skipped. Restoring binds the snapshot into the top
// environment of a fresh interpreter.

// imageMagic identifies a pscheme image.
const imageMagic = "PSCM"

// imageVersion is the image format version.
const imageVersion = 1

var imageEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	imageEncMode = em
}

// Image is the serialized snapshot envelope.
type Image struct {
	Magic    string      `cbor:"magic"`
	Version  uint32      `cbor:"version"`
	ID       string      `cbor:"id"`
	Bindings []imageBind `cbor:"bindings"`
}

type imageBind struct {
	Name string    `cbor:"name"`
	Cell imageCell `cbor:"cell"`
}

// imageCell is the wire form of one data cell. Only the payload fields
// that belong to the cell's tag are meaningful.
type imageCell struct {
	Tag    uint8       `cbor:"tag"`
	Bool   bool        `cbor:"bool,omitempty"`
	Char   int32       `cbor:"char,omitempty"`
	NumTag uint8       `cbor:"numtag,omitempty"`
	Int    int64       `cbor:"int,omitempty"`
	Re     float64     `cbor:"re,omitempty"`
	Im     float64     `cbor:"im,omitempty"`
	Text   string      `cbor:"text,omitempty"`
	Op     int32       `cbor:"op,omitempty"`
	Elems  []imageCell `cbor:"elems,omitempty"`
	Tail   *imageCell  `cbor:"tail,omitempty"`
	Keys   []imageCell `cbor:"keys,omitempty"`
	Vals   []imageCell `cbor:"vals,omitempty"`
}

// WriteImage serializes the data bindings of env (or the top environment
// when env is nil) to a CBOR image tagged with a fresh snapshot id.
func (scm *Scheme) WriteImage(env *Env) ([]byte, error) {
	if env == nil {
		env = scm.topenv
	}
	img := Image{
		Magic:   imageMagic,
		Version: imageVersion,
		ID:      uuid.NewString(),
	}
	var err error
	env.Each(func(sym *Symbol, val Cell) {
		if err != nil {
			return
		}
		wc, ok, encErr := encodeCell(val, make(map[*Pair]bool))
		if encErr != nil {
			err = encErr
			return
		}
		if !ok {
			return // not data, skip
		}
		img.Bindings = append(img.Bindings, imageBind{Name: sym.Name(), Cell: wc})
	})
	if err != nil {
		return nil, err
	}
	return imageEncMode.Marshal(&img)
}

// ReadImage decodes an image and binds its snapshot into the top
// environment.
func (scm *Scheme) ReadImage(data []byte) (string, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return "", fmt.Errorf("image: unmarshal: %w", err)
	}
	if img.Magic != imageMagic {
		return "", fmt.Errorf("image: bad magic %q", img.Magic)
	}
	if img.Version != imageVersion {
		return "", fmt.Errorf("image: unsupported version %d", img.Version)
	}
	for _, b := range img.Bindings {
		cell, err := scm.decodeCell(b.Cell)
		if err != nil {
			return "", err
		}
		scm.topenv.Add(scm.Intern(b.Name), cell)
	}
	return img.ID, nil
}

// encodeCell converts a data cell to wire form. The second result is
// false for handle variants that are not data. Cyclic lists are rejected.
func encodeCell(c Cell, seen map[*Pair]bool) (imageCell, bool, error) {
	switch c.Type() {
	case TagNone:
		return imageCell{Tag: uint8(TagNone)}, true, nil
	case TagNil:
		return imageCell{Tag: uint8(TagNil)}, true, nil
	case TagBool:
		return imageCell{Tag: uint8(TagBool), Bool: c.Bool()}, true, nil
	case TagChar:
		return imageCell{Tag: uint8(TagChar), Char: int32(c.Char())}, true, nil
	case TagOpcode:
		return imageCell{Tag: uint8(TagOpcode), Op: int32(c.Opcode())}, true, nil
	case TagNumber:
		n := c.Number()
		wc := imageCell{Tag: uint8(TagNumber), NumTag: uint8(n.Tag())}
		switch n.Tag() {
		case NumInt:
			wc.Int = n.Int()
		case NumFloat:
			wc.Re = n.Float()
		default:
			z := n.Complex()
			wc.Re, wc.Im = real(z), imag(z)
		}
		return wc, true, nil
	case TagString:
		return imageCell{Tag: uint8(TagString), Text: string(*c.Str())}, true, nil
	case TagSymbol:
		return imageCell{Tag: uint8(TagSymbol), Text: c.Symbol().Name()}, true, nil
	case TagPair:
		wc := imageCell{Tag: uint8(TagPair)}
		iter := c
		for iter.IsPair() {
			p := iter.Pair()
			if seen[p] {
				return imageCell{}, false, fmt.Errorf("image: cyclic or shared list")
			}
			seen[p] = true
			ec, ok, err := encodeCell(p.Car, seen)
			if err != nil || !ok {
				return imageCell{}, ok, err
			}
			wc.Elems = append(wc.Elems, ec)
			iter = p.Cdr
		}
		if !iter.IsNil() {
			tc, ok, err := encodeCell(iter, seen)
			if err != nil || !ok {
				return imageCell{}, ok, err
			}
			wc.Tail = &tc
		}
		return wc, true, nil
	case TagVector:
		wc := imageCell{Tag: uint8(TagVector)}
		for _, el := range *c.Vector() {
			ec, ok, err := encodeCell(el, seen)
			if err != nil || !ok {
				return imageCell{}, ok, err
			}
			wc.Elems = append(wc.Elems, ec)
		}
		return wc, true, nil
	case TagDict:
		wc := imageCell{Tag: uint8(TagDict)}
		var err error
		skip := false
		c.Dict().Each(func(key, val Cell) {
			if err != nil || skip {
				return
			}
			kc, ok, kerr := encodeCell(key, seen)
			if kerr != nil || !ok {
				err, skip = kerr, !ok
				return
			}
			vc, ok, verr := encodeCell(val, seen)
			if verr != nil || !ok {
				err, skip = verr, !ok
				return
			}
			wc.Keys = append(wc.Keys, kc)
			wc.Vals = append(wc.Vals, vc)
		})
		if err != nil || skip {
			return imageCell{}, !skip, err
		}
		return wc, true, nil
	}
	// Functions, ports, clocks, regexes and environments carry live host
	// state and are not snapshot data.
	return imageCell{}, false, nil
}

// decodeCell rebuilds a cell from wire form using the interpreter's store
// and symbol table.
func (scm *Scheme) decodeCell(wc imageCell) (Cell, error) {
	switch Tag(wc.Tag) {
	case TagNone:
		return None, nil
	case TagNil:
		return Nil, nil
	case TagBool:
		return FromBool(wc.Bool), nil
	case TagChar:
		return FromChar(rune(wc.Char)), nil
	case TagOpcode:
		return FromOpcode(Opcode(wc.Op)), nil
	case TagNumber:
		switch NumTag(wc.NumTag) {
		case NumInt:
			return FromInt(wc.Int), nil
		case NumFloat:
			return FromFloat(wc.Re), nil
		default:
			return FromNumber(Rect(wc.Re, wc.Im)), nil
		}
	case TagString:
		return FromString(wc.Text), nil
	case TagSymbol:
		return scm.SymbolCell(wc.Text), nil
	case TagPair:
		tail := Nil
		if wc.Tail != nil {
			tc, err := scm.decodeCell(*wc.Tail)
			if err != nil {
				return Cell{}, err
			}
			tail = tc
		}
		list := tail
		for i := len(wc.Elems) - 1; i >= 0; i-- {
			el, err := scm.decodeCell(wc.Elems[i])
			if err != nil {
				return Cell{}, err
			}
			list = scm.Cons(el, list)
		}
		return list, nil
	case TagVector:
		v := make(Vector, 0, len(wc.Elems))
		for _, ec := range wc.Elems {
			el, err := scm.decodeCell(ec)
			if err != nil {
				return Cell{}, err
			}
			v = append(v, el)
		}
		return FromVector(&v), nil
	case TagDict:
		if len(wc.Keys) != len(wc.Vals) {
			return Cell{}, fmt.Errorf("image: dict key/value length mismatch")
		}
		d := NewDict()
		for i := range wc.Keys {
			key, err := scm.decodeCell(wc.Keys[i])
			if err != nil {
				return Cell{}, err
			}
			val, err := scm.decodeCell(wc.Vals[i])
			if err != nil {
				return Cell{}, err
			}
			d.Insert(key, val)
		}
		return FromDict(d), nil
	}
	return Cell{}, fmt.Errorf("image: unknown cell tag %d", wc.Tag)
}
