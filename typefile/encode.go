package typefile

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/wippyai/clayout/ctype"
	"github.com/wippyai/clayout/errors"
)

// Encode writes types as a type document. A type that is itself one of the
// named entries is written as an "@name" reference wherever it appears inside
// another entry, which keeps recursive graphs finite.
func Encode(w io.Writer, types map[string]ctype.Type) error {
	e := &encoder{names: make(map[ctype.Type]string, len(types)), visiting: make(map[ctype.Type]bool)}
	for _, name := range sortedKeys(types) {
		t := types[name]
		if _, dup := e.names[t]; !dup {
			e.names[t] = name
		}
	}

	doc := Document{Types: make(map[string]json.RawMessage, len(types))}
	for _, name := range sortedKeys(types) {
		raw, err := e.top(types[name], []string{name})
		if err != nil {
			return err
		}
		doc.Types[name] = raw
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(errors.PhaseDecode, errors.KindInvalidInput, err, "write type document")
	}
	return nil
}

type encoder struct {
	names    map[ctype.Type]string
	visiting map[ctype.Type]bool
}

// top spells out a named entry. Only nested uses become references.
func (e *encoder) top(t ctype.Type, path []string) (json.RawMessage, error) {
	return e.spell(t, path, false)
}

func (e *encoder) expr(t ctype.Type, path []string) (json.RawMessage, error) {
	return e.spell(t, path, true)
}

func (e *encoder) spell(t ctype.Type, path []string, allowRef bool) (json.RawMessage, error) {
	if name, ok := e.names[t]; ok && allowRef {
		return json.Marshal("@" + name)
	}
	if inc, ok := t.(*ctype.Incomplete); ok {
		t = ctype.Underlying(inc)
		if _, still := t.(*ctype.Incomplete); still {
			return nil, errors.IncompleteType(path, inc.String())
		}
		if name, ok := e.names[t]; ok && allowRef {
			return json.Marshal("@" + name)
		}
	}
	if e.visiting[t] {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			Path(path...).
			Type(t.String()).
			Detail("cycle through an unnamed type").
			Build()
	}
	e.visiting[t] = true
	defer delete(e.visiting, t)

	switch typ := t.(type) {
	case *ctype.Scalar:
		return json.Marshal(typ.String())
	case *ctype.Pointer:
		if typ.Elem == nil {
			return json.Marshal("void *")
		}
		elem, err := e.expr(typ.Elem, child(path, "*"))
		if err != nil {
			return nil, err
		}
		return json.Marshal(Expr{Kind: "pointer", Elem: elem})
	case *ctype.Array:
		elem, err := e.expr(typ.Elem, child(path, "[]"))
		if err != nil {
			return nil, err
		}
		return json.Marshal(Expr{Kind: "array", Elem: elem, Len: typ.Len})
	case *ctype.Struct:
		x := Expr{Kind: "struct", Tag: typ.Tag, Align: typ.Align, Packed: typ.Packed}
		if typ.Union {
			x.Kind = "union"
		}
		for i := range typ.Members {
			m := &typ.Members[i]
			name := m.Name
			if name == "" {
				name = "#" + strconv.Itoa(i)
			}
			mt, err := e.expr(m.Type, child(path, name))
			if err != nil {
				return nil, err
			}
			me := MemberExpr{
				Name:     m.Name,
				Type:     mt,
				Align:    m.Align,
				Const:    m.Qual&ctype.Const != 0,
				Volatile: m.Qual&ctype.Volatile != 0,
			}
			if m.Bitfield {
				w := m.Width
				me.Bits = &w
			}
			x.Members = append(x.Members, me)
		}
		return json.Marshal(x)
	}
	return nil, errors.New(errors.PhaseDecode, errors.KindUnsupported).
		Path(path...).
		Detail("cannot encode %T", t).
		Build()
}
