package model

// FieldContribution is a single (name, stringified-value) pair that
// contributes to a build configuration's fingerprint.
type FieldContribution struct {
	Name  string
	Value string
}

// FingerprintContributor is implemented by build-configuration records
// that want explicit control over which of their fields contribute to an
// artifact's fingerprint (REDESIGN FLAGS §9: replaces reflection-driven
// property marking with an explicit interface).
type FingerprintContributor interface {
	FingerprintContributions() []FieldContribution
}
