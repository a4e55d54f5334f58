package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mfstool(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func mkImage(t *testing.T, args ...string) string {
	t.Helper()
	img := filepath.Join(t.TempDir(), "minix.img")
	out, errOut, code := mfstool(t, append([]string{img, "mkfs"}, args...)...)
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "Firstdatazone=")
	return img
}

func TestMkfsCreatesImage(t *testing.T) {
	img := mkImage(t, "--blocks", "300", "--inodes", "64")
	st, err := os.Stat(img)
	require.NoError(t, err)
	assert.Equal(t, int64(300*1024), st.Size())

	out, _, code := mfstool(t, img, "ls")
	assert.Equal(t, 0, code)
	assert.Equal(t, ".\n..\n", out)
}

func TestTouchMkdirCat(t *testing.T) {
	img := mkImage(t)

	_, errOut, code := mfstool(t, img, "touch", "a")
	require.Equal(t, 0, code, errOut)
	_, errOut, code = mfstool(t, img, "mkdir", "sub")
	require.Equal(t, 0, code, errOut)

	out, _, code := mfstool(t, img, "ls")
	assert.Equal(t, 0, code)
	assert.Equal(t, ".\n..\na\nsub\n", out)

	out, _, code = mfstool(t, img, "cat", "a")
	assert.Equal(t, 0, code)
	assert.Empty(t, out)

	out, errOut, code = mfstool(t, img, "cat", "sub/missing")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "mfstool: ")
	assert.Contains(t, errOut, "no such file or directory")
}

func TestErrorsExitNonZero(t *testing.T) {
	img := mkImage(t)
	for _, args := range [][]string{
		{img},
		{img, "rm", "a"},
		{img, "touch"},
		{img, "touch", "this-name-is-too-long"},
		{img, "cat", "a/b/c"},
		{filepath.Join(t.TempDir(), "missing.img"), "ls"},
	} {
		out, errOut, code := mfstool(t, args...)
		assert.Equal(t, 1, code, "%v", args)
		assert.Empty(t, out, "%v", args)
		assert.Contains(t, errOut, "mfstool: ", "%v", args)
	}

	_, _, code := mfstool(t, img, "touch", "dup")
	require.Equal(t, 0, code)
	_, errOut, code := mfstool(t, img, "touch", "dup")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "file exists")
}

func TestDryRunLeavesImage(t *testing.T) {
	img := mkImage(t, "--blocks", "100")
	before, err := os.ReadFile(img)
	require.NoError(t, err)

	_, errOut, code := mfstool(t, "--dry-run", img, "mkdir", "sub")
	require.Equal(t, 0, code, errOut)
	_, errOut, code = mfstool(t, "--dry-run", img, "touch", "a")
	require.Equal(t, 0, code, errOut)

	after, err := os.ReadFile(img)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	out, _, _ := mfstool(t, img, "ls")
	assert.Equal(t, ".\n..\n", out)
}

func TestLsLongAndInfo(t *testing.T) {
	img := mkImage(t, "--namelen", "30")
	_, _, code := mfstool(t, img, "mkdir", "a-directory-with-a-long-name")
	require.Equal(t, 0, code)

	out, _, code := mfstool(t, "--no-color", img, "ls", "--long")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "drwx------   2       64 a-directory-with-a-long-name\n")

	out, _, code = mfstool(t, img, "info")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "name_width: 30")
	assert.Contains(t, out, "magic: 5007")
}

func TestMkfsRejectsBadOptions(t *testing.T) {
	img := filepath.Join(t.TempDir(), "minix.img")
	for _, args := range [][]string{
		{img, "mkfs", "--namelen", "20"},
		{img, "mkfs", "--blocks", "4"},
		{img, "mkfs", "--bogus"},
		{img, "mkfs", "extra"},
	} {
		_, errOut, code := mfstool(t, args...)
		assert.Equal(t, 1, code, "%v", args)
		assert.Contains(t, errOut, "mfstool: ", "%v", args)
	}
}

func TestVerbose(t *testing.T) {
	img := mkImage(t)
	_, errOut, code := mfstool(t, "-vv", "--no-color", img, "touch", "a")
	assert.Equal(t, 0, code)
	assert.Contains(t, errOut, "AllocInode: 2")
}
