package typefile

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/wippyai/clayout/ctype"
	"github.com/wippyai/clayout/errors"
)

// Document is the on-disk form: named type expressions.
type Document struct {
	Types map[string]json.RawMessage `json:"types"`
}

// Expr is the object form of a type expression.
type Expr struct {
	Kind    string          `json:"kind"`
	Tag     string          `json:"tag,omitempty"`
	Members []MemberExpr    `json:"members,omitempty"`
	Elem    json.RawMessage `json:"elem,omitempty"`
	Len     int64           `json:"len,omitempty"`
	Align   int64           `json:"align,omitempty"`
	Packed  bool            `json:"packed,omitempty"`
}

type MemberExpr struct {
	Name     string          `json:"name,omitempty"`
	Type     json.RawMessage `json:"type"`
	Bits     *int            `json:"bits,omitempty"`
	Align    int64           `json:"align,omitempty"`
	Const    bool            `json:"const,omitempty"`
	Volatile bool            `json:"volatile,omitempty"`
}

var primitives = map[string]func() *ctype.Scalar{
	"_Bool":              ctype.NewBool,
	"bool":               ctype.NewBool,
	"char":               ctype.NewChar,
	"signed char":        ctype.NewSChar,
	"unsigned char":      ctype.NewUChar,
	"short":              ctype.NewShort,
	"unsigned short":     ctype.NewUShort,
	"int":                ctype.NewInt,
	"unsigned":           ctype.NewUInt,
	"unsigned int":       ctype.NewUInt,
	"long":               ctype.NewLong,
	"unsigned long":      ctype.NewULong,
	"long long":          ctype.NewLongLong,
	"unsigned long long": ctype.NewULongLong,
	"float":              ctype.NewFloat,
	"double":             ctype.NewDouble,
	"long double":        ctype.NewLongDouble,
}

// Load reads a type file from disk.
func Load(path string) (map[string]ctype.Type, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidInput, err, "read "+path)
	}
	return Decode(bytes.NewReader(data))
}

// Decode parses a type document. Every name is bound to a placeholder before
// any expression is parsed, so "@name" references may point forward or back
// to the type being defined.
func Decode(r io.Reader) (map[string]ctype.Type, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidInput, err, "parse type document")
	}

	d := &decoder{refs: make(map[string]*ctype.Incomplete, len(doc.Types))}
	for name := range doc.Types {
		d.refs[name] = &ctype.Incomplete{Tag: name}
	}

	out := make(map[string]ctype.Type, len(doc.Types))
	for _, name := range sortedKeys(doc.Types) {
		t, err := d.expr(doc.Types[name], []string{name})
		if err != nil {
			return nil, err
		}
		d.refs[name].Resolve(t)
		out[name] = t
	}
	return out, nil
}

type decoder struct {
	refs map[string]*ctype.Incomplete
}

func (d *decoder) expr(raw json.RawMessage, path []string) (ctype.Type, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, d.invalid(path, "missing type expression")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidInput, err, "type name")
		}
		return d.named(s, path)
	}

	var e Expr
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&e); err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			Path(path...).
			Cause(err).
			Detail("type expression").
			Build()
	}

	switch e.Kind {
	case "struct", "union":
		return d.aggregate(&e, path)
	case "array":
		elem, err := d.expr(e.Elem, child(path, "[]"))
		if err != nil {
			return nil, err
		}
		if e.Len < 0 {
			return nil, d.invalid(path, "negative array length")
		}
		return ctype.NewArray(elem, e.Len), nil
	case "pointer":
		if len(bytes.TrimSpace(e.Elem)) == 0 {
			return ctype.NewPointer(nil), nil
		}
		elem, err := d.expr(e.Elem, child(path, "*"))
		if err != nil {
			return nil, err
		}
		return ctype.NewPointer(elem), nil
	}
	return nil, d.invalid(path, "unknown kind "+strconv.Quote(e.Kind))
}

func (d *decoder) named(s string, path []string) (ctype.Type, error) {
	if ref, ok := strings.CutPrefix(s, "@"); ok {
		inc, found := d.refs[ref]
		if !found {
			return nil, errors.NotFound(errors.PhaseDecode, path, "type", ref)
		}
		return inc, nil
	}
	if s == "void *" || s == "void*" {
		return ctype.NewPointer(nil), nil
	}
	mk, ok := primitives[s]
	if !ok {
		return nil, errors.NotFound(errors.PhaseDecode, path, "primitive", s)
	}
	return mk(), nil
}

func (d *decoder) aggregate(e *Expr, path []string) (ctype.Type, error) {
	s := &ctype.Struct{
		Tag:     e.Tag,
		Align:   e.Align,
		Union:   e.Kind == "union",
		Packed:  e.Packed,
		Members: make([]ctype.Member, 0, len(e.Members)),
	}
	for i, me := range e.Members {
		name := me.Name
		if name == "" {
			name = "#" + strconv.Itoa(i)
		}
		mt, err := d.expr(me.Type, child(path, name))
		if err != nil {
			return nil, err
		}
		m := ctype.Member{Name: me.Name, Type: mt, Align: me.Align}
		if me.Bits != nil {
			m.Bitfield = true
			m.Width = *me.Bits
		}
		if me.Const {
			m.Qual |= ctype.Const
		}
		if me.Volatile {
			m.Qual |= ctype.Volatile
		}
		s.Members = append(s.Members, m)
	}
	return s, nil
}

func (d *decoder) invalid(path []string, detail string) error {
	return errors.New(errors.PhaseDecode, errors.KindInvalidInput).
		Path(path...).
		Detail(detail).
		Build()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func child(path []string, elem string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = elem
	return out
}
