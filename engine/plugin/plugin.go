// Package plugin defines the interfaces the core consumes from plugins
// (§4.H): artifact blueprints, named components addressed by URI, and the
// registry ("ExtensionManager") that resolves those URIs. Plugins
// themselves are registered in-process; dynamic loading of plugin
// binaries is out of scope (§1 non-goals).
package plugin

import (
	"context"
	"regexp"

	"github.com/forgebuild/forge/common/berror"
	"github.com/forgebuild/forge/common/model"
)

// LogSink is the narrow surface a blueprint uses to emit log output,
// decoupling plugin code from the concrete event bus implementation.
type LogSink interface {
	Log(level, message string, fields map[string]interface{})
}

// ArtifactBlueprint builds the outputs of an Artifact. Run MUST be
// deterministic given identical inputs, since its outputs are
// content-addressed by fingerprint.
type ArtifactBlueprint interface {
	// BuildConfigType names the configuration record this blueprint
	// expects the configuration loader to have populated.
	BuildConfigType() string
	Run(ctx context.Context, artifact *model.Artifact, project *model.Project, buildConfig interface{}, logSink LogSink) ([]string, error)
}

// PluginComponent is a named capability contributed by a plugin,
// discoverable by URI (group:name@version:component).
type PluginComponent interface {
	URI() string
}

// Plugin registers artifact blueprints, components, dependency kinds and
// API types with an ExtensionManager. The core treats every Plugin as an
// opaque provider, located only via URI.
type Plugin interface {
	Name() string
	Register(m *ExtensionManager)
}

var (
	pluginRef    = regexp.MustCompile(`^[A-Za-z0-9_-]+:[A-Za-z0-9_-]+(@[0-9]+(\.[0-9]+)*)?$`)
	componentRef = regexp.MustCompile(`^[A-Za-z0-9_-]+:[A-Za-z0-9_-]+(@[0-9]+(\.[0-9]+)*)?:[A-Za-z0-9_-]+$`)
)

// ValidateComponentURI checks a "group:name@version:component" URI
// against the grammar in §6.
func ValidateComponentURI(uri string) error {
	if !componentRef.MatchString(uri) {
		return berror.Newf(berror.KindConfiguration, berror.CodeInvalidURI, "invalid plugin component URI %q", uri)
	}
	return nil
}

// ExtensionManager resolves plugin component URIs to the blueprints,
// components and dependency parsers that plugins registered.
type ExtensionManager struct {
	blueprints map[string]ArtifactBlueprint
	components map[string]PluginComponent
	dependency map[string]func(args map[string]string) (model.Dependency, error)
	plugins    []Plugin
}

func NewExtensionManager() *ExtensionManager {
	return &ExtensionManager{
		blueprints: make(map[string]ArtifactBlueprint),
		components: make(map[string]PluginComponent),
		dependency: make(map[string]func(args map[string]string) (model.Dependency, error)),
	}
}

// LoadPlugin registers p and lets it contribute its blueprints/components.
func (m *ExtensionManager) LoadPlugin(p Plugin) {
	m.plugins = append(m.plugins, p)
	p.Register(m)
}

func (m *ExtensionManager) RegisterBlueprint(uri string, b ArtifactBlueprint) error {
	if err := ValidateComponentURI(uri); err != nil {
		return err
	}
	m.blueprints[uri] = b
	return nil
}

func (m *ExtensionManager) RegisterComponent(c PluginComponent) error {
	if err := ValidateComponentURI(c.URI()); err != nil {
		return err
	}
	m.components[c.URI()] = c
	return nil
}

func (m *ExtensionManager) RegisterDependencyKind(kind string, parse func(args map[string]string) (model.Dependency, error)) {
	m.dependency[kind] = parse
}

// ResolveBlueprint looks up the blueprint for an Artifact's PluginComponentRef.
func (m *ExtensionManager) ResolveBlueprint(ref model.PluginComponentRef) (ArtifactBlueprint, error) {
	b, ok := m.blueprints[ref.URI]
	if !ok {
		return nil, berror.Newf(berror.KindConfiguration, berror.CodeUnknownPlugin, "unknown artifact blueprint %q", ref.URI)
	}
	return b, nil
}

func (m *ExtensionManager) ResolveComponent(uri string) (PluginComponent, error) {
	c, ok := m.components[uri]
	if !ok {
		return nil, berror.Newf(berror.KindConfiguration, berror.CodeUnknownPlugin, "unknown plugin component %q", uri)
	}
	return c, nil
}

func (m *ExtensionManager) ParseDependency(kind string, args map[string]string) (model.Dependency, error) {
	parse, ok := m.dependency[kind]
	if !ok {
		return nil, berror.Newf(berror.KindConfiguration, berror.CodeUnknownPlugin, "unknown dependency kind %q", kind)
	}
	return parse(args)
}
