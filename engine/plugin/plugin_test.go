package plugin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebuild/forge/common/model"
	"github.com/forgebuild/forge/engine/plugin"
)

type fakeBlueprint struct{}

func (fakeBlueprint) BuildConfigType() string { return "fake" }
func (fakeBlueprint) Run(ctx context.Context, art *model.Artifact, project *model.Project, cfg interface{}, sink plugin.LogSink) ([]string, error) {
	return nil, nil
}

type fakePlugin struct{}

func (fakePlugin) Name() string { return "fake" }
func (fakePlugin) Register(m *plugin.ExtensionManager) {
	_ = m.RegisterBlueprint("acme:docker@1:build", fakeBlueprint{})
}

func TestValidateComponentURI(t *testing.T) {
	valid := []string{
		"acme:docker@1:build",
		"acme:docker:build",
		"acme:docker@1.2.3:build",
	}
	for _, uri := range valid {
		assert.NoErrorf(t, plugin.ValidateComponentURI(uri), "expected %q to be valid", uri)
	}

	invalid := []string{
		"",
		"docker:build",     // missing third segment
		"acme/docker:build", // illegal separator
		"acme:docker@x:build",
	}
	for _, uri := range invalid {
		assert.Errorf(t, plugin.ValidateComponentURI(uri), "expected %q to be invalid", uri)
	}
}

func TestExtensionManager_LoadPluginAndResolveBlueprint(t *testing.T) {
	m := plugin.NewExtensionManager()
	m.LoadPlugin(fakePlugin{})

	b, err := m.ResolveBlueprint(model.PluginComponentRef{URI: "acme:docker@1:build"})
	require.NoError(t, err)
	assert.Equal(t, "fake", b.BuildConfigType())
}

func TestExtensionManager_ResolveUnknownBlueprint(t *testing.T) {
	m := plugin.NewExtensionManager()
	_, err := m.ResolveBlueprint(model.PluginComponentRef{URI: "acme:missing:build"})
	assert.Error(t, err)
}

func TestExtensionManager_DependencyKindRoundTrip(t *testing.T) {
	m := plugin.NewExtensionManager()
	m.RegisterDependencyKind("noop", func(args map[string]string) (model.Dependency, error) {
		return nil, nil
	})

	dep, err := m.ParseDependency("noop", map[string]string{})
	require.NoError(t, err)
	assert.Nil(t, dep)

	_, err = m.ParseDependency("unknown", map[string]string{})
	assert.Error(t, err)
}
