package tokenizer_test

import (
	"strings"
	"testing"

	"github.com/jlrickert/xargs-groupby/internal/tokenizer"
	"github.com/stretchr/testify/require"
)

func collect(seq func(func(string) bool)) []string {
	var out []string
	seq(func(s string) bool {
		out = append(out, s)
		return true
	})
	return out
}

func TestSplitter_FixedDelimiter(t *testing.T) {
	t.Parallel()

	toks := collect(tokenizer.Splitter(strings.NewReader("a\x00b\x00c"), 0))
	require.Equal(t, []string{"a", "b", "c"}, toks)
}

func TestSplitter_TrailingPartialTokenYielded(t *testing.T) {
	t.Parallel()

	toks := collect(tokenizer.Splitter(strings.NewReader("a\x00b"), 0))
	require.Equal(t, []string{"a", "b"}, toks)
}

func TestSplitter_EmptyInputYieldsNothing(t *testing.T) {
	t.Parallel()

	toks := collect(tokenizer.Splitter(strings.NewReader(""), 0))
	require.Empty(t, toks)
}

func TestShlexer_WhitespaceSeparated(t *testing.T) {
	t.Parallel()

	toks := collect(tokenizer.Shlexer(strings.NewReader("cat snake hedgehog")))
	require.Equal(t, []string{"cat", "snake", "hedgehog"}, toks)
}

func TestShlexer_SingleQuotesSuppressInterpretation(t *testing.T) {
	t.Parallel()

	toks := collect(tokenizer.Shlexer(strings.NewReader(`'a b' c`)))
	require.Equal(t, []string{"a b", "c"}, toks)
}

func TestShlexer_DoubleQuotesAllowEscapes(t *testing.T) {
	t.Parallel()

	toks := collect(tokenizer.Shlexer(strings.NewReader(`"a \"b\" c"`)))
	require.Equal(t, []string{`a "b" c`}, toks)
}

func TestShlexer_BackslashEscapesNextChar(t *testing.T) {
	t.Parallel()

	toks := collect(tokenizer.Shlexer(strings.NewReader(`a\ b`)))
	require.Equal(t, []string{"a b"}, toks)
}

func TestShlexer_EmptyQuotedStringYieldsEmptyToken(t *testing.T) {
	t.Parallel()

	toks := collect(tokenizer.Shlexer(strings.NewReader(`''`)))
	require.Equal(t, []string{""}, toks)
}
