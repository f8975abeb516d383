package model

import "regexp"

// ProjectFilter is a predicate over a Project identifier, used by
// Workspace project filter hooks.
type ProjectFilter interface {
	Matches(projectID string) bool
}

// AllFilter matches every project.
type AllFilter struct{}

func (AllFilter) Matches(string) bool { return true }

// ExactNameFilter matches a single project identifier exactly.
type ExactNameFilter struct {
	ID string
}

func (f ExactNameFilter) Matches(projectID string) bool { return projectID == f.ID }

// RegexFilter matches project identifiers against a compiled regular
// expression.
type RegexFilter struct {
	Pattern *regexp.Regexp
}

func NewRegexFilter(pattern string) (*RegexFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexFilter{Pattern: re}, nil
}

func (f *RegexFilter) Matches(projectID string) bool { return f.Pattern.MatchString(projectID) }

// OrFilter matches if any of its sub-filters match (disjunction).
type OrFilter struct {
	Filters []ProjectFilter
}

func (f OrFilter) Matches(projectID string) bool {
	for _, sub := range f.Filters {
		if sub.Matches(projectID) {
			return true
		}
	}
	return false
}

// ProjectFilterHook pairs a filter with a callback invoked for every
// Project whose identifier matches it.
type ProjectFilterHook struct {
	Filter   ProjectFilter
	Callback func(*Project)
}
