// Package artifact implements the Artifact Manager & Cache (§4.G): it
// computes artifact fingerprints, looks up or stores cached outputs, and
// replays cached logs on a cache hit.
package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/forgebuild/forge/common/berror"
	"github.com/forgebuild/forge/common/hashutil"
	"github.com/forgebuild/forge/common/model"
	"github.com/forgebuild/forge/engine/sourceset"
)

const cacheIndexVersion = 1

// CacheEntry is the persisted record for one cached artifact build
// (§6 "Artifact cache index file").
type CacheEntry struct {
	Fingerprint      string                 `json:"fingerprint"`
	ProjectID        string                 `json:"project"`
	ArtifactName     string                 `json:"artifact"`
	Outputs          []string               `json:"outputs"`
	StoredAtMillis   int64                  `json:"stored_at"`
	LastAccessMillis int64                  `json:"last_access_at"`
	LogCache         []model.ReplayLogEntry `json:"log_cache"`
}

// Index is the on-disk artifact cache index: fingerprint -> CacheEntry,
// persisted as a single JSON document written atomically.
type Index struct {
	mu      sync.RWMutex
	path    string
	dir     string // content-addressed output directory, sibling of the index file
	entries map[string]CacheEntry
	extra   map[string]json.RawMessage
	dirty   bool
}

// OpenIndex loads path if it exists, or starts an empty index. dir is the
// content-addressed directory cached outputs are stored under.
func OpenIndex(path, dir string) (*Index, error) {
	idx := &Index{path: path, dir: dir, entries: make(map[string]CacheEntry), extra: make(map[string]json.RawMessage)}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading artifact cache index %s", path)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, berror.Newf(berror.KindInternal, berror.CodeCacheCorrupt, "artifact cache index %s is corrupt", path).Wrap(err)
	}
	if entriesRaw, ok := fields["entries"]; ok {
		if err := json.Unmarshal(entriesRaw, &idx.entries); err != nil {
			return nil, berror.Newf(berror.KindInternal, berror.CodeCacheCorrupt, "artifact cache index %s has corrupt entries", path).Wrap(err)
		}
		delete(fields, "entries")
	}
	delete(fields, "version")
	idx.extra = fields
	return idx, nil
}

// Lookup returns the cache entry for fp if present and every referenced
// output file still exists, bumping last-access-at. A missing or
// partially-evicted entry is treated as a cache miss (degrade gracefully,
// §7).
func (idx *Index) Lookup(fp string, nowMillis int64) (CacheEntry, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	entry, ok := idx.entries[fp]
	if !ok {
		return CacheEntry{}, false
	}
	for _, out := range entry.Outputs {
		if _, err := os.Stat(out); err != nil {
			return CacheEntry{}, false
		}
	}
	entry.LastAccessMillis = nowMillis
	idx.entries[fp] = entry
	idx.dirty = true
	return entry, true
}

// Store records a newly-built artifact's outputs under fp.
func (idx *Index) Store(entry CacheEntry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[entry.Fingerprint] = entry
	idx.dirty = true
}

// OutputDir returns the content-addressed subdirectory outputs for fp are
// stored under.
func (idx *Index) OutputDir(fp string) string {
	return filepath.Join(idx.dir, fp)
}

// FlushCacheToDisk writes the index atomically (temp-file + rename) if it
// has been mutated since the last flush. Unknown top-level keys read from
// disk are preserved on rewrite.
func (idx *Index) FlushCacheToDisk() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	doc := make(map[string]interface{}, len(idx.extra)+2)
	for k, v := range idx.extra {
		doc[k] = v
	}
	doc["version"] = cacheIndexVersion
	doc["entries"] = idx.entries

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshalling artifact cache index")
	}

	dir := filepath.Dir(idx.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "creating cache directory %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".artifacts-*.json")
	if err != nil {
		return errors.Wrap(err, "creating artifact cache index temp file")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "writing artifact cache index temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "closing artifact cache index temp file")
	}
	if err := os.Rename(tmpPath, idx.path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "renaming %s to %s", tmpPath, idx.path)
	}
	idx.dirty = false
	return nil
}

// Fingerprint computes the deterministic hex fingerprint of an artifact's
// build: CombineHashes(HashConfig(buildConfig), CombineHashes(sortedBy(name)
// of HashFileSet(sourceSet) for each of project's source sets)).
func Fingerprint(project *model.Project, buildConfig model.FingerprintContributor) (string, error) {
	names := make([]string, 0, len(project.SourceSets))
	for name := range project.SourceSets {
		names = append(names, name)
	}
	sort.Strings(names)

	sourceHashes := make([]string, 0, len(names))
	for _, name := range names {
		ss := project.SourceSets[name]
		fp, err := sourceset.Fingerprint(ss)
		if err != nil {
			return "", err
		}
		sourceHashes = append(sourceHashes, fp)
	}

	configHash := hashutil.HashConfig(buildConfig)
	return hashutil.CombineHashes(configHash, hashutil.CombineHashes(sourceHashes...)), nil
}
