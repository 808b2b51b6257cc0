package layout

import (
	"strconv"
	"strings"

	"github.com/wippyai/clayout/ctype"
	"github.com/wippyai/clayout/errors"
)

// Position is the result of an offsetof query.
type Position struct {
	Layout    *Layout
	Offset    int64
	BitOffset int
	BitWidth  int
	Bitfield  bool
}

// Step is one parsed element of a member path: a member name or an array
// index.
type Step struct {
	Name  string
	Index int64
	IsIdx bool
}

func (s Step) String() string {
	if s.IsIdx {
		return "[" + strconv.FormatInt(s.Index, 10) + "]"
	}
	return s.Name
}

// ParsePath splits "s.a[2].b" into steps.
func ParsePath(path string) ([]Step, error) {
	var steps []Step
	rest := path
	for rest != "" {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			if rest == "" || rest[0] == '.' || rest[0] == '[' {
				return nil, errors.InvalidInput(errors.PhaseLayout, "empty member name in "+strconv.Quote(path))
			}
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, errors.InvalidInput(errors.PhaseLayout, "unterminated index in "+strconv.Quote(path))
			}
			n, err := strconv.ParseInt(strings.TrimSpace(rest[1:end]), 0, 64)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseLayout, errors.KindInvalidInput, err, "bad index in "+strconv.Quote(path))
			}
			steps = append(steps, Step{Index: n, IsIdx: true})
			rest = rest[end+1:]
		default:
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			steps = append(steps, Step{Name: rest[:end]})
			rest = rest[end:]
		}
	}
	if len(steps) == 0 {
		return nil, errors.InvalidInput(errors.PhaseLayout, "empty member path")
	}
	return steps, nil
}

// OffsetOf resolves a member path such as "s.a[2].b" against l. Anonymous
// members are transparent. Indexing a zero-length array is allowed at any
// non-negative index.
func OffsetOf(l *Layout, path string) (Position, error) {
	steps, err := ParsePath(path)
	if err != nil {
		return Position{}, err
	}
	return OffsetOfSteps(l, steps)
}

// OffsetOfSteps is OffsetOf over pre-parsed steps.
func OffsetOfSteps(l *Layout, steps []Step) (Position, error) {
	pos := Position{Layout: l, BitWidth: int(l.Size * 8)}
	done := make([]string, 0, len(steps))

	for _, st := range steps {
		cur := pos.Layout
		if pos.Bitfield {
			return Position{}, errors.New(errors.PhaseLayout, errors.KindInvalidInput).
				Path(done...).
				Detail("cannot select %s from a bitfield", st).
				Build()
		}
		if st.IsIdx {
			if cur.Kind != ctype.KindArray {
				return Position{}, errors.TypeMismatch(errors.PhaseLayout, done, cur.Type.String(), st.Index)
			}
			if st.Index < 0 || (cur.Len > 0 && st.Index >= cur.Len) {
				return Position{}, errors.OutOfBounds(errors.PhaseLayout, done, st.Index, cur.Len)
			}
			pos.Offset += st.Index * cur.Elem.Size
			pos.Layout = cur.Elem
			pos.BitWidth = int(cur.Elem.Size * 8)
			done = append(done, st.String())
			continue
		}

		if !cur.IsAggregate() {
			return Position{}, errors.NotFound(errors.PhaseLayout, done, "member", st.Name)
		}
		f, ok := cur.Lookup(st.Name)
		if !ok {
			return Position{}, errors.New(errors.PhaseLayout, errors.KindNotFound).
				Path(done...).
				Type(cur.Type.String()).
				Detail("member %q not found", st.Name).
				Build()
		}
		pos.Offset += f.Offset
		pos.BitOffset = f.BitOffset
		pos.BitWidth = f.BitWidth
		pos.Bitfield = f.Bitfield
		pos.Layout = f.Layout
		done = append(done, st.Name)
	}
	return pos, nil
}
