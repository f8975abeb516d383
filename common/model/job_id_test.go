package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebuild/forge/common/model"
)

func TestJobID_RoundTrip(t *testing.T) {
	cases := []string{
		"clean",
		"app:build",
		"app:run",
		"backend:api:build",
		"app/dist:build",
		"backend:api/dist:build",
	}

	for _, s := range cases {
		s := s
		t.Run(s, func(t *testing.T) {
			id, err := model.ParseJobID(s)
			require.NoError(t, err)
			assert.Equal(t, s, id.String())
		})
	}
}

func TestJobID_ParseInvalid(t *testing.T) {
	cases := []string{
		"",
		"app/dist",       // missing ":<job>" after artifact
		"app:",           // empty job name
		"app:build name", // space not allowed
	}

	for _, s := range cases {
		s := s
		t.Run(s, func(t *testing.T) {
			_, err := model.ParseJobID(s)
			assert.Error(t, err)
		})
	}
}

func TestJobID_WorkspaceOwnedHasNoComponent(t *testing.T) {
	id, err := model.ParseJobID("clean")
	require.NoError(t, err)
	assert.Equal(t, model.JobID{Job: "clean"}, id)
	assert.Equal(t, "clean", id.String())
}

func TestJobID_ArtifactRequiresComponent(t *testing.T) {
	err := model.JobID{Artifact: "dist", Job: "build"}.Validate()
	assert.Error(t, err)
}
