package command_test

import (
	"testing"

	"github.com/jlrickert/xargs-groupby/internal/command"
	"github.com/stretchr/testify/require"
)

func TestGroupCommand_RenderSubstitutesPlaceholder(t *testing.T) {
	t.Parallel()

	tmpl := command.NewTemplate([]string{"echo", "group:", "{G}"}, "{G}")
	gc := command.NewGroupCommand(tmpl)

	require.Equal(t, []string{"echo", "group:", "123"}, gc.Render("123"))
}

func TestGroupCommand_RenderWithoutPlaceholderIsVerbatimCopy(t *testing.T) {
	t.Parallel()

	tmpl := command.NewTemplate([]string{"echo", "fixed"}, "")
	gc := command.NewGroupCommand(tmpl)

	a := gc.Render("123")
	b := gc.Render("456")
	require.Equal(t, []string{"echo", "fixed"}, a)
	require.Equal(t, a, b)

	// Mutating one rendered slice must not affect the other (non-aliased).
	a[0] = "mutated"
	require.Equal(t, "echo", b[0])
}

func TestGroupCommand_RenderIsIdempotentAndNonAliased(t *testing.T) {
	t.Parallel()

	tmpl := command.NewTemplate([]string{"echo", "{}"}, "{}")
	gc := command.NewGroupCommand(tmpl)

	a := gc.Render("x")
	b := gc.Render("x")
	require.Equal(t, a, b)
	a[0] = "mutated"
	require.NotEqual(t, a[0], b[0])
}

func TestXargsCommand_DefaultMaxProcsOne(t *testing.T) {
	t.Parallel()

	inner := command.NewGroupCommand(command.NewTemplate([]string{"echo"}, ""))
	xc := command.NewXargsCommand([]string{"xargs"}, inner)

	argv := xc.Render("k")
	require.Equal(t, []string{"xargs", "--max-procs=1", "echo"}, argv)
}

func TestXargsCommand_SetParallel(t *testing.T) {
	t.Parallel()

	inner := command.NewGroupCommand(command.NewTemplate([]string{"echo"}, ""))
	xc := command.NewXargsCommand([]string{"xargs"}, inner)

	xc.SetParallel(8, 4)
	require.Contains(t, xc.Render("k"), "--max-procs=2")

	// groups == 0 leaves the default untouched
	xc2 := command.NewXargsCommand([]string{"xargs"}, inner)
	xc2.SetParallel(8, 0)
	require.Contains(t, xc2.Render("k"), "--max-procs=1")
}

func TestXargsCommand_SetDelimiterRendersOctal(t *testing.T) {
	t.Parallel()

	inner := command.NewGroupCommand(command.NewTemplate([]string{"echo"}, ""))
	xc := command.NewXargsCommand([]string{"xargs"}, inner)
	xc.SetDelimiter(0)

	require.Contains(t, xc.Render("k"), `--delimiter=\000`)
}

func TestXargsCommand_SetOptionsEncodesEachKind(t *testing.T) {
	t.Parallel()

	inner := command.NewGroupCommand(command.NewTemplate([]string{"echo"}, ""))
	xc := command.NewXargsCommand([]string{"xargs"}, inner)
	xc.SetOptions([]command.Switch{
		{Kind: command.SwitchBool, Key: "no-run-if-empty", Bool: true},
		{Kind: command.SwitchBool, Key: "verbose", Bool: false}, // skipped
		{Kind: command.SwitchLong, Key: "arg-file", Value: "list.txt"},
		{Kind: command.SwitchLong, Key: "unset", Value: ""}, // skipped
		{Kind: command.SwitchShort, Key: "n", Value: "3"},
	})

	argv := xc.Render("k")
	require.Contains(t, argv, "--no-run-if-empty")
	require.Contains(t, argv, "--arg-file=list.txt")
	require.Contains(t, argv, "-n3")
	require.NotContains(t, argv, "--verbose")
	require.NotContains(t, argv, "--unset=")
}

func TestXargsCommand_RenderOrder(t *testing.T) {
	t.Parallel()

	inner := command.NewGroupCommand(command.NewTemplate([]string{"echo", "{}"}, "{}"))
	xc := command.NewXargsCommand([]string{"xargs"}, inner)
	xc.SetDelimiter('\n')

	argv := xc.Render("g")
	require.Equal(t, []string{"xargs", "--max-procs=1", `--delimiter=\012`, "echo", "g"}, argv)
}
