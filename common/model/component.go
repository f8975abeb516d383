package model

// Component is the sealed ownership variant described in REDESIGN FLAGS
// §9 ("inheritance for component polymorphism" → a small capability set
// instead of a base class). A Job is owned by exactly one Component.
type Component interface {
	// ComponentIdentifier returns the owning project's identifier, or ""
	// when the owner is the Workspace itself.
	ComponentIdentifier() string
}
