package model

import "time"

// SourceSet is a resolved file collection rooted under a directory. The
// glob-expansion/fingerprint/last-modified operations that populate the
// mutable fields live in package sourceset, which operates on this type by
// pointer; SourceSet itself is pure data so that model has no dependency
// on the glob-matching library.
type SourceSet struct {
	Root     string
	Includes []string
	Excludes []string

	// Resolved, Fingerprint and LastModified are populated by
	// sourceset.Resolve and are empty/zero until then.
	Resolved    []string
	Fingerprint string
	LastModified time.Time
}
