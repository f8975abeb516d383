package sourceset_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebuild/forge/common/model"
	"github.com/forgebuild/forge/engine/sourceset"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestResolve_IncludesAndExcludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package a")
	writeFile(t, filepath.Join(dir, "b.go"), "package b")
	writeFile(t, filepath.Join(dir, "b_test.go"), "package b")

	ss := &model.SourceSet{
		Root:     dir,
		Includes: []string{"*.go"},
		Excludes: []string{"*_test.go"},
	}
	require.NoError(t, sourceset.Resolve(ss))

	rels := make([]string, len(ss.Resolved))
	for i, p := range ss.Resolved {
		rel, err := filepath.Rel(dir, p)
		require.NoError(t, err)
		rels[i] = rel
	}
	assert.Equal(t, []string{"a.go", "b.go"}, rels)
}

func TestResolve_MissingRoot(t *testing.T) {
	ss := &model.SourceSet{Root: filepath.Join(t.TempDir(), "does-not-exist")}
	err := sourceset.Resolve(ss)
	assert.Error(t, err)
}

func TestFingerprint_ChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hello")

	ss := &model.SourceSet{Root: dir, Includes: []string{"*.txt"}}
	require.NoError(t, sourceset.Resolve(ss))
	before, err := sourceset.Fingerprint(ss)
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "a.txt"), "hello modified")
	require.NoError(t, sourceset.Resolve(ss))
	after, err := sourceset.Fingerprint(ss)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestLastModifiedMillis(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, "hello")

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	ss := &model.SourceSet{Root: dir, Includes: []string{"*.txt"}}
	require.NoError(t, sourceset.Resolve(ss))

	millis, err := sourceset.LastModifiedMillis(ss)
	require.NoError(t, err)
	assert.Equal(t, old.UnixMilli(), millis)
}
