// Package command renders argv templates for a pipeline's pre-exec and
// xargs-style fan-out stages.
package command

import (
	"fmt"
	"strconv"
	"strings"
)

// Template is an immutable list of argument strings plus an optional
// placeholder substring. Rendering replaces every occurrence of the
// placeholder in every argument with the group key's string form.
type Template struct {
	Argv        []string
	Placeholder string // empty means "no placeholder configured"
}

// NewTemplate returns a Template. An empty placeholder disables
// substitution; Render then returns a freshly owned copy of argv.
func NewTemplate(argv []string, placeholder string) Template {
	return Template{Argv: argv, Placeholder: placeholder}
}

// GroupCommand renders a command for a given group key by substituting the
// template's placeholder.
type GroupCommand struct {
	tmpl Template
}

// NewGroupCommand wraps tmpl as a GroupCommand.
func NewGroupCommand(tmpl Template) *GroupCommand {
	return &GroupCommand{tmpl: tmpl}
}

// Render returns a fresh owned argument vector for key. If the template has
// no placeholder, it is a deep copy of the template argv, verbatim.
func (c *GroupCommand) Render(key string) []string {
	return renderArgv(c.tmpl, key)
}

func renderArgv(tmpl Template, key string) []string {
	out := make([]string, len(tmpl.Argv))
	if tmpl.Placeholder == "" {
		copy(out, tmpl.Argv)
		return out
	}
	for i, arg := range tmpl.Argv {
		out[i] = strings.ReplaceAll(arg, tmpl.Placeholder, key)
	}
	return out
}

// Switch is a single xargs passthrough option to render alongside
// --max-procs and --delimiter.
//
// Kind selects the rendering form:
//
//	Bool:  bare flag, e.g. --no-run-if-empty, skipped entirely when false
//	Long:  --key=value
//	Short: -kvalue
type Switch struct {
	Kind  SwitchKind
	Key   string
	Value string
	Bool  bool
}

type SwitchKind int

const (
	SwitchLong SwitchKind = iota
	SwitchShort
	SwitchBool
)

// XargsCommand renders the fan-out command, maintaining a switch dictionary
// seeded with --max-procs=1.
type XargsCommand struct {
	base   []string
	inner  *GroupCommand
	procs  int
	delim  *byte
	extras []Switch
}

// NewXargsCommand constructs an XargsCommand wrapping inner (the templated
// command the fan-out process itself runs), with base as the leading argv
// (typically []string{"xargs"}).
func NewXargsCommand(base []string, inner *GroupCommand) *XargsCommand {
	return &XargsCommand{
		base:  base,
		inner: inner,
		procs: 1,
	}
}

// SetParallel sets --max-procs = max(1, cores/groups). If groups is zero the
// default of 1 is kept.
func (c *XargsCommand) SetParallel(cores, groups int) {
	if groups == 0 {
		return
	}
	p := cores / groups
	if p < 1 {
		p = 1
	}
	c.procs = p
}

// SetDelimiter stores b as a three-digit octal --delimiter=\NNN switch.
func (c *XargsCommand) SetDelimiter(b byte) {
	v := b
	c.delim = &v
}

// SetOptions merges user passthrough switches into the switch dictionary.
// Boolean true values render as bare flags; false or nil-equivalent values
// (empty string for non-bool kinds) are skipped.
func (c *XargsCommand) SetOptions(opts []Switch) {
	for _, o := range opts {
		switch o.Kind {
		case SwitchBool:
			if !o.Bool {
				continue
			}
			c.extras = append(c.extras, o)
		default:
			if o.Value == "" {
				continue
			}
			c.extras = append(c.extras, o)
		}
	}
}

// Render returns [base..., switches..., inner.Render(key)...].
func (c *XargsCommand) Render(key string) []string {
	out := make([]string, 0, len(c.base)+2+len(c.extras)+len(c.inner.tmpl.Argv))
	out = append(out, c.base...)
	out = append(out, "--max-procs="+strconv.Itoa(c.procs))
	if c.delim != nil {
		out = append(out, fmt.Sprintf("--delimiter=\\%03o", *c.delim))
	}
	for _, o := range c.extras {
		out = append(out, renderSwitch(o))
	}
	out = append(out, c.inner.Render(key)...)
	return out
}

func renderSwitch(o Switch) string {
	switch o.Kind {
	case SwitchBool:
		return "--" + o.Key
	case SwitchShort:
		return "-" + o.Key + o.Value
	default:
		return "--" + o.Key + "=" + o.Value
	}
}
