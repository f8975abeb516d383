package model

import (
	"fmt"
	"regexp"
)

// NameRegexStr matches the component/artifact/job tokens of the job
// identifier grammar: [A-Za-z0-9_]+
const NameRegexStr = "^[A-Za-z0-9_]+$"

var nameRegex = regexp.MustCompile(NameRegexStr)

// Name is a user-specified identifier for a project, artifact or job.
type Name string

func (n Name) String() string {
	return string(n)
}

func (n Name) Validate() error {
	if n == "" {
		return fmt.Errorf("name must not be empty")
	}
	if !nameRegex.MatchString(string(n)) {
		return fmt.Errorf("name %q must match %s", n, NameRegexStr)
	}
	return nil
}

func (n Name) Valid() bool {
	return n.Validate() == nil
}
