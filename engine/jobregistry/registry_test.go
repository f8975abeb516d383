package jobregistry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebuild/forge/common/model"
	"github.com/forgebuild/forge/engine/jobregistry"
)

type workspaceOwner struct{}

func (workspaceOwner) ComponentIdentifier() string { return "" }

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := jobregistry.New()
	job := model.NewJob("build", workspaceOwner{}, "")

	require.NoError(t, r.RegisterJob(job))
	assert.True(t, r.HasJob("build"))

	got, ok := r.GetJob("build")
	require.True(t, ok)
	assert.Same(t, job, got)
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	r := jobregistry.New()
	require.NoError(t, r.RegisterJob(model.NewJob("build", workspaceOwner{}, "")))

	err := r.RegisterJob(model.NewJob("build", workspaceOwner{}, ""))
	assert.Error(t, err)
}

func TestRegistry_All_SortedByCanonicalID(t *testing.T) {
	r := jobregistry.New()
	require.NoError(t, r.RegisterJob(model.NewJob("run", workspaceOwner{}, "")))
	require.NoError(t, r.RegisterJob(model.NewJob("build", workspaceOwner{}, "")))
	require.NoError(t, r.RegisterJob(model.NewJob("clean", workspaceOwner{}, "")))

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "build", all[0].CanonicalID())
	assert.Equal(t, "clean", all[1].CanonicalID())
	assert.Equal(t, "run", all[2].CanonicalID())
}

func TestRegistry_UnknownJob(t *testing.T) {
	r := jobregistry.New()
	_, ok := r.GetJob("missing")
	assert.False(t, ok)
	assert.False(t, r.HasJob("missing"))
}
