// Package hashutil implements the deterministic content and file-set
// hashing primitives used to compute artifact fingerprints (§4.A).
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/structs"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/pkg/errors"

	"github.com/forgebuild/forge/common/model"
)

const nul = byte(0)

// HashFile returns the hex SHA-256 digest of a file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "hashing %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFileSet hashes the concatenation of relativePath + NUL + HashFile(path)
// + NUL for each path in orderedPaths, in the order given. Order is
// semantic: callers MUST pass the same iteration order the source set
// resolver produced.
func HashFileSet(orderedPaths []string, root string) (string, error) {
	h := sha256.New()
	for _, path := range orderedPaths {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return "", errors.Wrapf(err, "relativizing %s against %s", path, root)
		}
		fileHash, err := HashFile(path)
		if err != nil {
			return "", err
		}
		h.Write([]byte(rel))
		h.Write([]byte{nul})
		h.Write([]byte(fileHash))
		h.Write([]byte{nul})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CombineHashes combines an ordered list of hex digests into one, by
// hashing h0 + NUL + h1 + NUL + ... + hN.
func CombineHashes(hexes ...string) string {
	h := sha256.New()
	for i, hx := range hexes {
		if i > 0 {
			h.Write([]byte{nul})
		}
		h.Write([]byte(hx))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HashConfig hashes a FingerprintContributor's contributions, sorted by
// name so the result is stable regardless of the order
// FingerprintContributions() returned them in.
func HashConfig(cfg model.FingerprintContributor) string {
	contributions := cfg.FingerprintContributions()
	sorted := make([]model.FieldContribution, len(contributions))
	copy(sorted, contributions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	h := sha256.New()
	for _, c := range sorted {
		h.Write([]byte(c.Name))
		h.Write([]byte{nul})
		h.Write([]byte(c.Value))
		h.Write([]byte{nul})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// StructContributions builds a []model.FieldContribution from any struct
// whose exported fields carry a `fingerprint:"true"` tag, for blueprint
// authors who would rather tag fields than hand-write
// FingerprintContributions().
func StructContributions(cfg interface{}) []model.FieldContribution {
	s := structs.New(cfg)
	var out []model.FieldContribution
	for _, f := range s.Fields() {
		if f.Tag("fingerprint") != "true" {
			continue
		}
		out = append(out, model.FieldContribution{
			Name:  f.Name(),
			Value: toString(f.Value()),
		})
	}
	return out
}

// HashStructure is a fallback whole-value hash for configuration records
// that don't implement FingerprintContributor, using a structural hash of
// the entire value rather than a named-field allowlist.
func HashStructure(cfg interface{}) (string, error) {
	h, err := hashstructure.Hash(cfg, hashstructure.FormatV2, nil)
	if err != nil {
		return "", errors.Wrap(err, "hashing config structure")
	}
	return hex.EncodeToString([]byte{
		byte(h >> 56), byte(h >> 48), byte(h >> 40), byte(h >> 32),
		byte(h >> 24), byte(h >> 16), byte(h >> 8), byte(h),
	}), nil
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
