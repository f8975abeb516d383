// Package sourceset resolves model.SourceSet glob patterns against the
// filesystem (§4.C). It is kept separate from common/model so that model
// carries no dependency on the glob-matching library.
package sourceset

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v2"

	"github.com/forgebuild/forge/common/berror"
	"github.com/forgebuild/forge/common/hashutil"
	"github.com/forgebuild/forge/common/model"
)

// Resolve applies ss.Includes then ss.Excludes against ss.Root and
// populates ss.Resolved with the matching files, sorted by their path
// relative to ss.Root. The stored paths are joined onto ss.Root; they are
// not made relative. Resolution is deterministic given (root, includes,
// excludes, filesystem state).
func Resolve(ss *model.SourceSet) error {
	info, err := os.Stat(ss.Root)
	if err != nil || !info.IsDir() {
		return berror.NewMissingSource(ss.Root)
	}

	included := make(map[string]struct{})
	for _, pattern := range ss.Includes {
		matches, err := doublestar.Glob(filepath.Join(ss.Root, pattern))
		if err != nil {
			return berror.Newf(berror.KindConfiguration, berror.CodeMissingSource,
				"invalid include glob %q", pattern).Wrap(err)
		}
		for _, m := range matches {
			fi, err := os.Stat(m)
			if err != nil || fi.IsDir() {
				continue
			}
			included[m] = struct{}{}
		}
	}

	for _, pattern := range ss.Excludes {
		matches, err := doublestar.Glob(filepath.Join(ss.Root, pattern))
		if err != nil {
			return berror.Newf(berror.KindConfiguration, berror.CodeMissingSource,
				"invalid exclude glob %q", pattern).Wrap(err)
		}
		for _, m := range matches {
			delete(included, m)
		}
	}

	resolved := make([]string, 0, len(included))
	for path := range included {
		resolved = append(resolved, path)
	}
	sort.Slice(resolved, func(i, j int) bool {
		ri, _ := filepath.Rel(ss.Root, resolved[i])
		rj, _ := filepath.Rel(ss.Root, resolved[j])
		return ri < rj
	})

	ss.Resolved = resolved
	return nil
}

// Fingerprint returns HashFileSet(ss.Resolved, ss.Root), the SHA-256 over
// the ordered sequence of per-file content hashes. An empty resolved set
// hashes to the fingerprint of the empty string.
func Fingerprint(ss *model.SourceSet) (string, error) {
	fp, err := hashutil.HashFileSet(ss.Resolved, ss.Root)
	if err != nil {
		return "", err
	}
	ss.Fingerprint = fp
	return fp, nil
}

// LastModifiedMillis returns the max modification time, in epoch
// milliseconds, across ss.Resolved.
func LastModifiedMillis(ss *model.SourceSet) (int64, error) {
	var latest time.Time
	for _, path := range ss.Resolved {
		fi, err := os.Stat(path)
		if err != nil {
			return 0, berror.Newf(berror.KindEnvironment, berror.CodeIOFailure,
				"statting %s", path).Wrap(err)
		}
		if fi.ModTime().After(latest) {
			latest = fi.ModTime()
		}
	}
	ss.LastModified = latest
	return latest.UnixMilli(), nil
}
