package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestGetText(t *testing.T) {
	node, err := html.Parse(strings.NewReader(
		`<div><b>Rick</b>: Here's <i>looking</i> at you.</div>`,
	))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "Rick: Here's looking at you.", GetText(node))
}

func TestCleanText(t *testing.T) {
	{
		require.Equal(t, "a b c", CleanText("  a \t b \n\n c  "))
	}
	{ // non-printable runes are dropped
		require.Equal(t, "ab", CleanText("a\x07b"))
	}
	{
		require.Equal(t, "", CleanText(" \n\t "))
	}
}
