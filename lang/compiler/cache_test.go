package compiler_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seal9055/baby-interpreter/lang/compiler"
	"github.com/seal9055/baby-interpreter/lang/parser"
)

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "prog.bi")
	src := []byte(`var x = 1; console.log(x);`)
	require.NoError(t, os.WriteFile(srcPath, src, 0o644))

	prog, err := parser.ParseFile(srcPath, src)
	require.NoError(t, err)
	cprog, err := compiler.Lower(prog)
	require.NoError(t, err)

	cachePath := compiler.CachePath(srcPath)
	require.Equal(t, srcPath+".bcc", cachePath)
	require.NoError(t, compiler.SaveCache(cachePath, srcPath, cprog))

	loaded, ok, err := compiler.LoadCached(cachePath, srcPath)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, cprog, loaded)
}

func TestCacheMissWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "prog.bi")
	require.NoError(t, os.WriteFile(srcPath, []byte(`var x = 1;`), 0o644))

	_, ok, err := compiler.LoadCached(compiler.CachePath(srcPath), srcPath)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheStaleAfterSourceModified(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "prog.bi")
	src := []byte(`var x = 1; console.log(x);`)
	require.NoError(t, os.WriteFile(srcPath, src, 0o644))

	prog, err := parser.ParseFile(srcPath, src)
	require.NoError(t, err)
	cprog, err := compiler.Lower(prog)
	require.NoError(t, err)

	cachePath := compiler.CachePath(srcPath)
	require.NoError(t, compiler.SaveCache(cachePath, srcPath, cprog))

	// Touch the source with different content and a later mtime.
	later := time.Now().Add(time.Second)
	newSrc := []byte(`var x = 2; console.log(x);`)
	require.NoError(t, os.WriteFile(srcPath, newSrc, 0o644))
	require.NoError(t, os.Chtimes(srcPath, later, later))

	_, ok, err := compiler.LoadCached(cachePath, srcPath)
	require.NoError(t, err)
	require.False(t, ok, "a cache keyed to the old size/mtime must be rejected")
}
