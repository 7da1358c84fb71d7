package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xtree/lib/tree"
)

func TestCompare_Table(t *testing.T) {
	out, err := execute(t, "", "compare", "-n", "255", "--sequential")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, []string{"ENGINE", "SIZE", "HEIGHT", "LEAVES", "ROTATIONS", "RECOLORS", "ELAPSED"}, strings.Fields(lines[0]))

	rb := strings.Fields(lines[1])
	require.Equal(t, []string{"rb", "255"}, rb[:2])

	avl := strings.Fields(lines[2])
	// Ascending keys build a perfect AVL tree.
	require.Equal(t, []string{"avl", "255", "8", "128"}, avl[:4])
	require.Equal(t, "0", avl[5])
}

func TestCompare_Engines(t *testing.T) {
	out, err := execute(t, "", "compare", "-n", "100", "--engines", "avl,avl")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[1], "avl "))

	_, err = execute(t, "", "compare", "--engines", "rb,splay")
	require.ErrorIs(t, err, tree.ErrUnknownTreeKind)

	_, err = execute(t, "", "compare", "-n", "0")
	require.ErrorContains(t, err, "compare count must be positive")
}
