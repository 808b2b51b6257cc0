package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/clayout"
	"github.com/wippyai/clayout/abi"
	"github.com/wippyai/clayout/abi/wasm"
	"github.com/wippyai/clayout/bitfield"
	"github.com/wippyai/clayout/ctype"
	"github.com/wippyai/clayout/layout"
)

// printer renders layouts. Without color every style is the zero style.
type printer struct {
	title lipgloss.Style
	name  lipgloss.Style
	typ   lipgloss.Style
	num   lipgloss.Style
	class lipgloss.Style
	err   lipgloss.Style
	help  lipgloss.Style
}

func newPrinter(color bool) *printer {
	if !color {
		plain := lipgloss.NewStyle()
		return &printer{plain, plain, plain, plain, plain, plain, plain}
	}
	return &printer{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		name:  lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		typ:   lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		num:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F0E68C")),
		class: lipgloss.NewStyle().Foreground(lipgloss.Color("#DDA0DD")),
		err:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		help:  lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

func (p *printer) header(s *clayout.Session) string {
	abiName := "none"
	if s.ABI() != nil {
		abiName = s.ABI().Name()
	}
	return p.title.Render("clayout") + " " + s.Target().Name + " / " + abiName
}

// describe reports the layout of one named type and, when the session has a
// calling convention, how it is passed and returned.
func (p *printer) describe(s *clayout.Session, name string, t ctype.Type) string {
	var b strings.Builder
	b.WriteString(p.name.Render(name))
	b.WriteString(" ")
	b.WriteString(p.typ.Render(t.String()))
	b.WriteByte('\n')

	l, err := s.Layout(t)
	if err != nil {
		b.WriteString("  " + p.err.Render(err.Error()) + "\n")
		return b.String()
	}
	fmt.Fprintf(&b, "  size %s  align %s\n", p.num.Render(strconv.FormatInt(l.Size, 10)), p.num.Render(strconv.FormatInt(l.Align, 10)))
	order := bitfield.OrderFor(s.Target().Endian)
	for _, f := range l.Fields {
		b.WriteString("  ")
		b.WriteString(p.field(f, order))
		b.WriteByte('\n')
	}

	if s.ABI() == nil {
		return b.String()
	}
	for _, role := range []abi.Role{abi.Param, abi.Return} {
		cl, err := s.Classify(t, role)
		if err != nil {
			fmt.Fprintf(&b, "  %-6s %s\n", role, p.err.Render(err.Error()))
			continue
		}
		fmt.Fprintf(&b, "  %-6s %s\n", role, p.classification(s.ABI(), cl))
	}
	return b.String()
}

// field renders one member. Bitfields show their storage unit and the right
// shift that extracts them from the unit loaded in target byte order.
func (p *printer) field(f layout.Field, order bitfield.Order) string {
	off := "+" + strconv.FormatInt(f.Offset, 10)
	name := f.Name
	if f.Bitfield {
		off += "." + strconv.Itoa(f.BitOffset)
		name += ":" + strconv.Itoa(f.BitWidth)
	}
	size := strconv.FormatInt(f.Layout.Size, 10)
	if f.Bitfield {
		size = "unit " + strconv.FormatInt(f.UnitSize, 10) + "@" + strconv.FormatInt(f.UnitOffset, 10) +
			" >>" + strconv.Itoa(bitfield.Shift(order, int(f.UnitSize*8), f.Alloc, f.BitWidth))
	}
	line := fmt.Sprintf("%-8s %-16s %s  %s", p.num.Render(off), name, p.typ.Render(f.Layout.Type.String()), size)
	if f.Unaligned {
		line += " " + p.err.Render("unaligned")
	}
	return line
}

func (p *printer) classification(a abi.ABI, cl *abi.Classification) string {
	classes := make([]string, len(cl.Eightbytes))
	for i, eb := range cl.Eightbytes {
		classes[i] = eb.Class.String()
	}
	out := p.class.Render("["+strings.Join(classes, " ")+"]") + " " + cl.Mode.String()

	if len(cl.Regs) > 0 {
		regs := make([]string, len(cl.Regs))
		for i, r := range cl.Regs {
			regs[i] = r.Name
		}
		out += " " + strings.Join(regs, ",")
	}
	if cl.HiddenPointer {
		out += " sret"
	}
	if w, ok := a.(*wasm.ABI); ok {
		out += " " + p.typ.Render(coreTypes(w.CoreTypes(cl)))
	}
	return out
}

func coreTypes(ts []api.ValueType) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = api.ValueTypeName(t)
	}
	return "(" + strings.Join(names, " ") + ")"
}
