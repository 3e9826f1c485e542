package handlers

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/domain/ligand"
	"github.com/turtacn/dockview/pkg/errors"
)

func TestLigandHandler_Extract(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/ligands/extract?name=poses.sdf", bytes.NewReader(testdata(t, "poses.sdf")), "chemical/x-mdl-sdfile")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ExtractResponse
	decode(t, rec, &resp)
	assert.Equal(t, "poses.sdf", resp.Name)
	assert.Equal(t, ligand.OrderAscending, resp.Order, "the configured order is reported when none is requested")
	assert.Equal(t, 7, resp.Blocks)
	assert.Equal(t, 4, resp.Count)
	assert.Equal(t, resp.Blocks, resp.Count+len(resp.Skipped))
	assert.Equal(t, "benzene", resp.Records[0].Name)
	assert.Equal(t, -9.5, resp.Records[0].Score)

	rec = ts.do(t, http.MethodPost, "/ligands/extract?order=desc", bytes.NewReader(testdata(t, "poses.sdf")), "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Equal(t, ligand.OrderDescending, resp.Order)
	assert.Equal(t, "Ligand_2", resp.Records[0].Name)
}

func TestLigandHandler_ExtractEdgeCases(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/ligands/extract", bytes.NewReader(nil), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"blocks":0,"count":0,"records":[],"order":"ascending"}`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/ligands/extract?order=random", bytes.NewReader(testdata(t, "poses.sdf")), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(errors.ErrCodeSortOrderInvalid), errorCode(t, rec))
}

func TestLigandHandler_Environment(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/environment", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp EnvironmentResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Ready)
	assert.True(t, resp.Tools.Ready(docking.StatusVina))
	assert.False(t, resp.Tools.Ready(docking.StatusOpenDockEnv))
}

func TestLigandHandler_Presets(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/presets", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp PresetsResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Presets, 1)
	assert.Equal(t, "5n9r", resp.Presets[0].ID)
	assert.Equal(t, 25.0, resp.Presets[0].Site.Size[0])
}
