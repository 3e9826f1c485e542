package client

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dockview/pkg/errors"
)

func TestLigands_Extract(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/ligands/extract", r.URL.Path)
		assert.Equal(t, "ascending", r.URL.Query().Get("order"))
		assert.Equal(t, "docked.sdf", r.URL.Query().Get("name"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "sdf-text", string(body))
		w.Write([]byte(`{"name":"docked.sdf","blocks":2,"count":1,"records":[{"index":0,"name":"a","score":-9.1,"properties":{"minimizedAffinity":"-9.1"}}],"order":"ascending"}`))
	})

	ex, err := c.Ligands().Extract(context.Background(), "docked.sdf", "sdf-text", OrderAscending)
	require.NoError(t, err)
	assert.Equal(t, 2, ex.Blocks)
	require.Len(t, ex.Records, 1)
	assert.Equal(t, "-9.1", ex.Records[0].Properties["minimizedAffinity"])
}

func TestLigands_ExtractRejectsUnknownOrder(t *testing.T) {
	c, err := NewClient("http://localhost:1")
	require.NoError(t, err)
	_, err = c.Ligands().Extract(context.Background(), "", "x", "sideways")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestLigands_EnvironmentAndPresets(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/environment":
			w.Write([]byte(`{"tools":{"vina":false,"opendock_env":true},"ready":false}`))
		case "/api/v1/presets":
			w.Write([]byte(`{"presets":[{"id":"5ht2a","name":"5-HT2A","binding_site":{"center":[1,2,3],"size":[22,22,22]},"key_residues":[155]}]}`))
		}
	})

	env, err := c.Ligands().Environment(context.Background())
	require.NoError(t, err)
	assert.False(t, env.Ready)
	assert.True(t, env.Tools["opendock_env"])

	presets, err := c.Ligands().Presets(context.Background())
	require.NoError(t, err)
	require.Len(t, presets, 1)
	assert.Equal(t, [3]float64{22, 22, 22}, presets[0].Site.Size)
	assert.Equal(t, []int{155}, presets[0].KeyResidues)
}
