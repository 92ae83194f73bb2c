// Package render drains a scan into a text table for a terminal
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dianpeng/simpleql/internal/config"
	"github.com/dianpeng/simpleql/plan"
	"github.com/fatih/color"
)

type Options struct {
	Color  bool
	Border bool
}

func OptionsFrom(cfg config.RenderConfig) Options {
	return Options{
		Color:  cfg.Color,
		Border: cfg.Border,
	}
}

type cell struct {
	text  string
	isInt bool
}

func (self Options) paint(attr ...color.Attribute) *color.Color {
	c := color.New(attr...)
	if self.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Rows reads every row of s, from its current position, and writes fields as
// a table to w. Ints are right aligned and strings are left aligned. The
// number of rows written is returned, the scan is not closed.
func Rows(w io.Writer, s plan.Scan, fields []string, opts Options) (int, error) {
	width := make([]int, len(fields))
	for i, f := range fields {
		width[i] = len(f)
	}

	rows := [][]cell{}
	for {
		ok, err := s.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}

		row := make([]cell, len(fields))
		for i, f := range fields {
			v, err := s.GetVal(f)
			if err != nil {
				return 0, err
			}
			if v.IsInt() {
				row[i] = cell{text: fmt.Sprintf("%d", v.Int), isInt: true}
			} else {
				row[i] = cell{text: v.Str}
			}
			width[i] = max(width[i], len(row[i].text))
		}
		rows = append(rows, row)
	}

	t := &table{
		w:      w,
		opts:   opts,
		width:  width,
		header: opts.paint(color.FgCyan, color.Bold),
		border: opts.paint(color.FgBlue),
		num:    opts.paint(color.FgYellow),
	}

	t.line()
	hdr := make([]cell, len(fields))
	for i, f := range fields {
		hdr[i] = cell{text: f}
	}
	t.row(hdr, t.header)
	t.line()
	for _, r := range rows {
		t.row(r, nil)
	}
	if len(rows) > 0 {
		t.line()
	}

	suffix := "s"
	if len(rows) == 1 {
		suffix = ""
	}
	if _, err := fmt.Fprintf(w, "(%d row%s)\n", len(rows), suffix); err != nil {
		return 0, err
	}
	return len(rows), t.err
}

type table struct {
	w      io.Writer
	opts   Options
	width  []int
	header *color.Color
	border *color.Color
	num    *color.Color
	err    error
}

func (self *table) write(s string) {
	if self.err != nil {
		return
	}
	_, self.err = io.WriteString(self.w, s)
}

func (self *table) line() {
	if !self.opts.Border {
		return
	}
	buf := &strings.Builder{}
	buf.WriteString("+")
	for _, w := range self.width {
		buf.WriteString(strings.Repeat("-", w+2))
		buf.WriteString("+")
	}
	self.write(self.border.Sprint(buf.String()) + "\n")
}

func (self *table) row(r []cell, paint *color.Color) {
	buf := &strings.Builder{}
	sep := self.border.Sprint("|")

	if self.opts.Border {
		buf.WriteString(sep)
	}
	for i, c := range r {
		var text string
		if c.isInt {
			text = fmt.Sprintf("%*s", self.width[i], c.text)
		} else {
			text = fmt.Sprintf("%-*s", self.width[i], c.text)
		}

		switch {
		case paint != nil:
			text = paint.Sprint(text)
			break
		case c.isInt:
			text = self.num.Sprint(text)
			break
		default:
			break
		}

		if self.opts.Border {
			buf.WriteString(" " + text + " " + sep)
		} else {
			if i > 0 {
				buf.WriteString("  ")
			}
			buf.WriteString(text)
		}
	}

	out := buf.String()
	if !self.opts.Border {
		out = strings.TrimRight(out, " ")
	}
	self.write(out + "\n")
}
