package memimg

import (
	"strconv"

	"github.com/wippyai/clayout/ctype"
	"github.com/wippyai/clayout/errors"
	"github.com/wippyai/clayout/layout"
	"github.com/wippyai/clayout/target"
)

// Init is one entry of a C initializer list. Path is an optional designator
// such as ".b", "[2]" or ".a[1].x"; List holds a nested braced list and takes
// precedence over Value.
type Init struct {
	Value any
	Path  string
	List  []Init
}

// Initialize builds the image of an object of layout l from an initializer
// list. Entries without a designator continue after the previous entry within
// the innermost aggregate, braces may be elided for nested aggregates, and a
// union takes exactly one member per list position.
func Initialize(t *target.Target, l *layout.Layout, inits []Init) (*Image, error) {
	im := New(t, l)
	if err := im.initList(l, 0, inits, nil); err != nil {
		return im, err
	}
	return im, nil
}

// frame is one aggregate being initialized.
type frame struct {
	l    *layout.Layout
	path []string
	base int64
	idx  int
	done bool
}

func (f *frame) count() int {
	if f.l.Kind == ctype.KindArray {
		return int(f.l.Len)
	}
	return len(f.l.Members)
}

// skip moves past positions initializers never take: unnamed bitfields.
func (f *frame) skip() {
	if f.l.Kind == ctype.KindArray {
		return
	}
	for f.idx < len(f.l.Members) {
		m := &f.l.Members[f.idx]
		if !m.Bitfield || m.Name != "" {
			return
		}
		f.idx++
	}
}

func (f *frame) complete() bool {
	if f.done {
		return true
	}
	f.skip()
	return f.idx >= f.count()
}

func (f *frame) advance() {
	if f.l.Kind == ctype.KindUnion {
		f.done = true
		return
	}
	f.idx++
}

// target returns the slot at the frame position.
func (f *frame) target() (*layout.Layout, slot, []string) {
	if f.l.Kind == ctype.KindArray {
		off := f.base + int64(f.idx)*f.l.Elem.Size
		p := appendPath(f.path, "["+strconv.Itoa(f.idx)+"]")
		return f.l.Elem, slot{l: f.l.Elem, off: off, width: int(f.l.Elem.Size * 8)}, p
	}
	m := &f.l.Members[f.idx]
	name := m.Name
	if name == "" {
		name = "<anonymous>"
	}
	s := slot{l: m.Layout, off: f.base + m.Offset, bitOff: m.BitOffset, width: m.BitWidth, bitfield: m.Bitfield}
	return m.Layout, s, appendPath(f.path, name)
}

func appendPath(path []string, elem string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = elem
	return out
}

func isComposite(l *layout.Layout) bool {
	return l.IsAggregate() || l.Kind == ctype.KindArray
}

func (im *Image) initList(l *layout.Layout, base int64, inits []Init, path []string) error {
	if !isComposite(l) {
		if len(inits) == 0 {
			return nil
		}
		if len(inits) > 1 {
			return errors.OutOfBounds(errors.PhaseInit, path, int64(len(inits)-1), 1)
		}
		s := slot{l: l, off: base, width: int(l.Size * 8)}
		return im.initScalar(s, inits[0], path)
	}

	stack := []*frame{{l: l, base: base, path: path}}
	for _, in := range inits {
		if in.Path != "" {
			var err error
			stack, err = designate(stack[:1], in.Path)
			if err != nil {
				return err
			}
		}

		for {
			top := stack[len(stack)-1]
			if top.complete() {
				if len(stack) == 1 {
					return errors.OutOfBounds(errors.PhaseInit, top.path, int64(top.count()), int64(top.count()))
				}
				stack = stack[:len(stack)-1]
				stack[len(stack)-1].advance()
				continue
			}

			ml, s, mpath := top.target()
			if in.List != nil {
				if err := im.initList(ml, s.off, in.List, mpath); err != nil {
					return err
				}
				top.advance()
				break
			}
			if isComposite(ml) {
				stack = append(stack, &frame{l: ml, base: s.off, path: mpath})
				continue
			}
			if err := im.initScalar(s, in, mpath); err != nil {
				return err
			}
			top.advance()
			break
		}
	}
	return nil
}

func (im *Image) initScalar(s slot, in Init, path []string) error {
	v := in.Value
	if in.List != nil {
		if len(in.List) != 1 {
			return errors.OutOfBounds(errors.PhaseInit, path, int64(len(in.List)), 1)
		}
		return im.initScalar(s, in.List[0], path)
	}
	if v == nil {
		return errors.TypeMismatch(errors.PhaseInit, path, s.l.Type.String(), v)
	}
	return im.store(s, v, path)
}

// designate rebuilds the frame stack from the root so that the top frame is
// positioned at the designated element. Anonymous members on the way get
// frames of their own so positional entries continue inside them.
func designate(stack []*frame, designator string) ([]*frame, error) {
	steps, err := layout.ParsePath(designator)
	if err != nil {
		return nil, err
	}
	root := stack[0]
	root.idx, root.done = 0, false
	stack = stack[:1]

	for i, st := range steps {
		top := stack[len(stack)-1]
		if st.IsIdx {
			if top.l.Kind != ctype.KindArray {
				return nil, errors.TypeMismatch(errors.PhaseInit, top.path, top.l.Type.String(), st.Index)
			}
			if st.Index < 0 || st.Index >= top.l.Len {
				return nil, errors.OutOfBounds(errors.PhaseInit, top.path, st.Index, top.l.Len)
			}
			top.idx = int(st.Index)
		} else {
			if !top.l.IsAggregate() {
				return nil, errors.NotFound(errors.PhaseInit, top.path, "member", st.Name)
			}
			f, ok := top.l.Lookup(st.Name)
			if !ok {
				return nil, errors.NotFound(errors.PhaseInit, top.path, "member", st.Name)
			}
			for k, ix := range f.Index {
				top.idx, top.done = ix, false
				if k == len(f.Index)-1 {
					break
				}
				ml, s, mpath := top.target()
				top = &frame{l: ml, base: s.off, path: mpath}
				stack = append(stack, top)
			}
		}

		if i < len(steps)-1 {
			ml, s, mpath := top.target()
			if !isComposite(ml) {
				return nil, errors.New(errors.PhaseInit, errors.KindInvalidInput).
					Path(mpath...).
					Type(ml.Type.String()).
					Detail("designator continues past a scalar").
					Build()
			}
			stack = append(stack, &frame{l: ml, base: s.off, path: mpath})
		}
	}
	return stack, nil
}
