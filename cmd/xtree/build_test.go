package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xtree/lib/tree"
)

func TestBuild_Args(t *testing.T) {
	testcases := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name: "rb",
			args: []string{"build", "10", "20", "30", "20"},
			expected: "duplicate key: 20\n" +
				"printing tree with its structure...\n" +
				"     [Red] 30\n" +
				"[Black] 20\n" +
				"     [Red] 10\n" +
				"tree height: 2\n" +
				"number of leaves: 2\n",
		},
		{
			name: "avl",
			args: []string{"build", "--engine", "avl", "10", "30", "20"},
			expected: "printing tree with its structure...\n" +
				"└── 20\n" +
				"    ├── 10\n" +
				"    └── 30\n" +
				"tree height: 2\n" +
				"number of leaves: 2\n",
		},
		{
			name:     "single",
			args:     []string{"build", "-e", "AVL", "7"},
			expected: "printing tree with its structure...\n└── 7\ntree height: 1\nnumber of leaves: 1\n",
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			out, err := execute(tt, "", tc.args...)
			require.NoError(tt, err)
			require.Equal(tt, tc.expected, out)
		})
	}
}

func TestBuild_File(t *testing.T) {
	dir := t.TempDir()
	keys := strings.Join([]string{"1 2 3", "4\t5", "", "6 7"}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keys.txt"), []byte(keys), 0o600))

	out, err := execute(t, "", "build", "-e", "avl", "--dir", dir, "-f", "keys.txt", "7")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "duplicate key: 7\n"))
	require.Contains(t, out, "tree height: 3\nnumber of leaves: 4\n")
}

func TestBuild_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.txt"), []byte("1 two 3"), 0o600))

	_, err := execute(t, "", "build", "-e", "splay", "1")
	require.ErrorIs(t, err, tree.ErrUnknownTreeKind)

	_, err = execute(t, "", "build", "1", "x2")
	require.ErrorContains(t, err, "invalid key x2")

	_, err = execute(t, "", "build", "4294967296")
	require.ErrorContains(t, err, "invalid key 4294967296")

	_, err = execute(t, "", "build", "--dir", dir, "-f", "bad.txt")
	require.ErrorContains(t, err, "invalid key two")

	_, err = execute(t, "", "build", "--dir", dir, "-f", "missing.txt")
	require.ErrorContains(t, err, "open keys file")

	_, err = execute(t, "", "build", "--dir", dir, "-f", "../keys.txt")
	require.ErrorContains(t, err, "open keys file")
}

func TestScanKeys(t *testing.T) {
	keys, err := scanKeys(strings.NewReader("  5\n\n 3 \t 9\n"))
	require.NoError(t, err)
	require.Equal(t, []uint32{5, 3, 9}, keys)

	keys, err = scanKeys(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, keys)
}
