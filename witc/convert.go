package witc

import (
	"strconv"

	"github.com/wippyai/clayout/ctype"
	"github.com/wippyai/clayout/errors"
	"github.com/wippyai/clayout/target"
	"go.bytecodealliance.org/wit"
)

// Converter maps WIT types to the C types a guest sees them as in linear
// memory. Converted type definitions are cached by identity so a definition
// used from several places becomes one C type.
type Converter struct {
	target *target.Target
	cache  map[*wit.TypeDef]ctype.Type
}

func NewConverter(t *target.Target) *Converter {
	return &Converter{
		target: t,
		cache:  make(map[*wit.TypeDef]ctype.Type),
	}
}

// Convert returns the C type for t.
func (c *Converter) Convert(t wit.Type) (ctype.Type, error) {
	return c.convert(t, nil)
}

// Resolve converts every named type definition of r, keyed by WIT name.
func (c *Converter) Resolve(r *wit.Resolve) (map[string]ctype.Type, error) {
	out := make(map[string]ctype.Type)
	for _, td := range r.TypeDefs {
		if td.Name == nil {
			continue
		}
		if _, ok := td.Kind.(*wit.Resource); ok {
			continue
		}
		ct, err := c.convert(td, []string{*td.Name})
		if err != nil {
			return nil, err
		}
		out[*td.Name] = ct
	}
	return out, nil
}

func (c *Converter) convert(t wit.Type, path []string) (ctype.Type, error) {
	switch typ := t.(type) {
	case wit.Bool:
		return ctype.NewBool(), nil
	case wit.U8:
		return ctype.NewUChar(), nil
	case wit.S8:
		return ctype.NewSChar(), nil
	case wit.U16:
		return ctype.NewUShort(), nil
	case wit.S16:
		return ctype.NewShort(), nil
	case wit.U32, wit.Char:
		return ctype.NewUInt(), nil
	case wit.S32:
		return ctype.NewInt(), nil
	case wit.U64:
		return ctype.NewULongLong(), nil
	case wit.S64:
		return ctype.NewLongLong(), nil
	case wit.F32:
		return ctype.NewFloat(), nil
	case wit.F64:
		return ctype.NewDouble(), nil
	case wit.String:
		return c.slice("", ctype.NewChar()), nil
	case *wit.TypeDef:
		return c.typeDef(typ, path)
	case nil:
		return nil, errors.New(errors.PhaseConvert, errors.KindInvalidInput).
			Path(path...).
			Detail("missing type").
			Build()
	default:
		return nil, errors.New(errors.PhaseConvert, errors.KindUnsupported).
			Path(path...).
			Detail("unsupported WIT type: %T", t).
			Build()
	}
}

func (c *Converter) typeDef(td *wit.TypeDef, path []string) (ctype.Type, error) {
	if cached, ok := c.cache[td]; ok {
		return cached, nil
	}

	tag := ""
	if td.Name != nil {
		tag = cName(*td.Name)
	}

	var (
		ct  ctype.Type
		err error
	)
	switch kind := td.Kind.(type) {
	case *wit.Record:
		ct, err = c.record(tag, kind, path)
	case *wit.Tuple:
		ct, err = c.tuple(tag, kind, path)
	case *wit.List:
		var elem ctype.Type
		elem, err = c.convert(kind.Type, appendPath(path, "[elem]"))
		if err == nil {
			ct = c.slice(tag, elem)
		}
	case *wit.Option:
		ct, err = c.option(tag, kind, path)
	case *wit.Result:
		ct, err = c.result(tag, kind, path)
	case *wit.Variant:
		ct, err = c.variant(tag, kind, path)
	case *wit.Enum:
		ct = discriminant(len(kind.Cases))
	case *wit.Flags:
		ct, err = flags(len(kind.Flags), path)
	case *wit.Own, *wit.Borrow:
		// handles are i32 indices into the component's resource table
		ct = ctype.NewInt()
	case wit.Type:
		ct, err = c.convert(kind, path)
	default:
		err = errors.New(errors.PhaseConvert, errors.KindUnsupported).
			Path(path...).
			Detail("unsupported TypeDef kind: %T", kind).
			Build()
	}
	if err != nil {
		return nil, err
	}

	c.cache[td] = ct
	return ct, nil
}

// slice is the (pointer, length) pair used for strings and lists.
func (c *Converter) slice(tag string, elem ctype.Type) ctype.Type {
	return ctype.NewStruct(tag,
		ctype.Field("ptr", ctype.NewPointer(elem)),
		ctype.Field("len", c.target.SizeType()),
	)
}

func (c *Converter) record(tag string, r *wit.Record, path []string) (ctype.Type, error) {
	members := make([]ctype.Member, 0, len(r.Fields))
	for _, f := range r.Fields {
		ft, err := c.convert(f.Type, appendPath(path, f.Name))
		if err != nil {
			return nil, err
		}
		members = append(members, ctype.Field(cName(f.Name), ft))
	}
	return ctype.NewStruct(tag, members...), nil
}

func (c *Converter) tuple(tag string, t *wit.Tuple, path []string) (ctype.Type, error) {
	members := make([]ctype.Member, 0, len(t.Types))
	for i, et := range t.Types {
		name := "f" + strconv.Itoa(i)
		ft, err := c.convert(et, appendPath(path, name))
		if err != nil {
			return nil, err
		}
		members = append(members, ctype.Field(name, ft))
	}
	return ctype.NewStruct(tag, members...), nil
}

func (c *Converter) option(tag string, o *wit.Option, path []string) (ctype.Type, error) {
	vt, err := c.convert(o.Type, appendPath(path, "[some]"))
	if err != nil {
		return nil, err
	}
	return ctype.NewStruct(tag,
		ctype.Field("is_some", ctype.NewBool()),
		ctype.Field("val", vt),
	), nil
}

func (c *Converter) result(tag string, r *wit.Result, path []string) (ctype.Type, error) {
	var payload []ctype.Member
	if r.OK != nil {
		ok, err := c.convert(r.OK, appendPath(path, "[ok]"))
		if err != nil {
			return nil, err
		}
		payload = append(payload, ctype.Field("ok", ok))
	}
	if r.Err != nil {
		et, err := c.convert(r.Err, appendPath(path, "[err]"))
		if err != nil {
			return nil, err
		}
		payload = append(payload, ctype.Field("err", et))
	}
	members := []ctype.Member{ctype.Field("is_err", ctype.NewBool())}
	if len(payload) > 0 {
		members = append(members, ctype.Field("val", ctype.NewUnion("", payload...)))
	}
	return ctype.NewStruct(tag, members...), nil
}

func (c *Converter) variant(tag string, v *wit.Variant, path []string) (ctype.Type, error) {
	if len(v.Cases) == 0 {
		return nil, errors.New(errors.PhaseConvert, errors.KindInvalidInput).
			Path(path...).
			Detail("variant has no cases").
			Build()
	}
	var payload []ctype.Member
	for _, cs := range v.Cases {
		if cs.Type == nil {
			continue
		}
		ct, err := c.convert(cs.Type, appendPath(path, cs.Name))
		if err != nil {
			return nil, err
		}
		payload = append(payload, ctype.Field(cName(cs.Name), ct))
	}
	members := []ctype.Member{ctype.Field("tag", discriminant(len(v.Cases)))}
	if len(payload) > 0 {
		members = append(members, ctype.Field("val", ctype.NewUnion("", payload...)))
	}
	return ctype.NewStruct(tag, members...), nil
}

// discriminant is the smallest unsigned type holding n case indices.
func discriminant(n int) ctype.Type {
	switch discriminantSize(n) {
	case 1:
		return ctype.NewUChar()
	case 2:
		return ctype.NewUShort()
	}
	return ctype.NewUInt()
}

func flags(n int, path []string) (ctype.Type, error) {
	switch {
	case n == 0:
		return nil, errors.New(errors.PhaseConvert, errors.KindInvalidInput).
			Path(path...).
			Detail("flags type has no flags").
			Build()
	case n <= 8:
		return ctype.NewUChar(), nil
	case n <= 16:
		return ctype.NewUShort(), nil
	case n <= 32:
		return ctype.NewUInt(), nil
	}
	return ctype.NewArray(ctype.NewUInt(), int64((n+31)/32)), nil
}

// cName turns a kebab-case WIT identifier into a C identifier.
func cName(name string) string {
	b := []byte(name)
	for i, ch := range b {
		if ch == '-' {
			b[i] = '_'
		}
	}
	return string(b)
}

func appendPath(path []string, elem string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = elem
	return out
}
