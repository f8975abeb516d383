package model

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// JobID is the canonical, parseable identifier of a Job:
//
//	[<component-id>][/<artifact-name>]:<job-name>
//
// <component-id> is omitted when the job's owner is the Workspace itself.
type JobID struct {
	// Component is the owning Project's identifier, or "" for a
	// workspace-owned job. May itself contain colon-separated segments
	// (e.g. "backend:api").
	Component string
	// Artifact is the owning Artifact's name, or "" if the job is not
	// owned by an artifact. Only valid when Component is set.
	Artifact string
	// Job is the job's own name.
	Job string
}

// String formats the JobID back into its canonical textual form.
// Round-trips exactly with ParseJobID for any valid identifier (P1).
func (id JobID) String() string {
	if id.Component == "" {
		return id.Job
	}
	s := id.Component
	if id.Artifact != "" {
		s += "/" + id.Artifact
	}
	return s + ":" + id.Job
}

// ParseJobID parses the canonical job identifier grammar described in the
// filesystem/identifier contract. Returns an error for any string that
// does not conform.
func ParseJobID(s string) (JobID, error) {
	if s == "" {
		return JobID{}, fmt.Errorf("job identifier must not be empty")
	}

	if slashIdx := strings.IndexByte(s, '/'); slashIdx >= 0 {
		component := s[:slashIdx]
		rest := s[slashIdx+1:]
		colonIdx := strings.IndexByte(rest, ':')
		if colonIdx < 0 {
			return JobID{}, fmt.Errorf("invalid job identifier %q: expected ':<job>' after artifact name", s)
		}
		artifact := rest[:colonIdx]
		job := rest[colonIdx+1:]
		id := JobID{Component: component, Artifact: artifact, Job: job}
		if err := id.Validate(); err != nil {
			return JobID{}, fmt.Errorf("invalid job identifier %q: %w", s, err)
		}
		return id, nil
	}

	colonIdx := strings.LastIndexByte(s, ':')
	if colonIdx < 0 {
		id := JobID{Job: s}
		if err := id.Validate(); err != nil {
			return JobID{}, fmt.Errorf("invalid job identifier %q: %w", s, err)
		}
		return id, nil
	}

	id := JobID{Component: s[:colonIdx], Job: s[colonIdx+1:]}
	if err := id.Validate(); err != nil {
		return JobID{}, fmt.Errorf("invalid job identifier %q: %w", s, err)
	}
	return id, nil
}

// Validate checks every segment of the identifier against the job
// identifier grammar's token pattern, accumulating every failing segment
// instead of stopping at the first one so a caller sees the whole set of
// problems with a malformed identifier at once.
func (id JobID) Validate() error {
	var result *multierror.Error
	if id.Component != "" {
		for _, segment := range strings.Split(id.Component, ":") {
			if err := Name(segment).Validate(); err != nil {
				result = multierror.Append(result, fmt.Errorf("invalid component segment: %w", err))
			}
		}
	}
	if id.Artifact != "" {
		if id.Component == "" {
			result = multierror.Append(result, fmt.Errorf("artifact name requires a component"))
		} else if err := Name(id.Artifact).Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid artifact name: %w", err))
		}
	}
	if err := Name(id.Job).Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid job name: %w", err))
	}
	return result.ErrorOrNil()
}
