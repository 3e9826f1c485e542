package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/domain/ligand"
	"github.com/turtacn/dockview/internal/domain/protein"
	"github.com/turtacn/dockview/pkg/errors"
)

type fakeApp struct {
	gotText  string
	gotOrder ligand.ScoreOrder
	extract  ligand.Extraction
	env      docking.EnvironmentStatus
	presets  []protein.Preset
}

func (f *fakeApp) Extract(text string, order ligand.ScoreOrder) ligand.Extraction {
	f.gotText, f.gotOrder = text, order
	return f.extract
}

func (f *fakeApp) Environment(context.Context) docking.EnvironmentStatus { return f.env }

func (f *fakeApp) Presets() []protein.Preset { return f.presets }

func TestLigandService_Extract(t *testing.T) {
	app := &fakeApp{extract: ligand.Extraction{
		Blocks: 3,
		Records: []ligand.Record{
			{Index: 0, Name: "lig-a", Score: -9.2, ScoreSource: ligand.ScoreSourceText, AtomCount: 24},
			{Index: 2, Name: "lig-b", Score: -7.5, ScoreSource: ligand.ScoreSourceText, AtomCount: 18},
		},
		Skipped: []ligand.Skipped{{Index: 1, Reason: ligand.ReasonParseError, Message: "no atoms"}},
	}}
	svc := NewLigandService(app, nil)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(OrderMetadataKey, "desc"))
	out, err := svc.Extract(ctx, wrapperspb.String("$$$$"))
	require.NoError(t, err)

	assert.Equal(t, "$$$$", app.gotText)
	assert.Equal(t, ligand.OrderDescending, app.gotOrder)

	m := out.AsMap()
	assert.Equal(t, float64(3), m["blocks"])
	assert.Equal(t, float64(2), m["count"])
	assert.Equal(t, "descending", m["order"])

	records := m["records"].([]interface{})
	require.Len(t, records, 2)
	first := records[0].(map[string]interface{})
	assert.Equal(t, "lig-a", first["name"])
	assert.Equal(t, -9.2, first["score"])

	skipped := m["skipped"].([]interface{})
	require.Len(t, skipped, 1)
	assert.Equal(t, ligand.ReasonParseError, skipped[0].(map[string]interface{})["reason"])
}

func TestLigandService_ExtractEmptyRecords(t *testing.T) {
	svc := NewLigandService(&fakeApp{}, nil)
	out, err := svc.Extract(context.Background(), wrapperspb.String(""))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{}, out.AsMap()["records"])
	assert.Equal(t, float64(0), out.AsMap()["count"])
}

func TestLigandService_ExtractReportsAppliedOrder(t *testing.T) {
	app := &fakeApp{extract: ligand.Extraction{Order: ligand.OrderAscending}}
	svc := NewLigandService(app, nil)

	out, err := svc.Extract(context.Background(), wrapperspb.String("$$$$"))
	require.NoError(t, err)
	assert.Empty(t, app.gotOrder)
	assert.Equal(t, "ascending", out.AsMap()["order"])
}

func TestLigandService_ExtractInvalidOrder(t *testing.T) {
	svc := NewLigandService(&fakeApp{}, nil)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(OrderMetadataKey, "sideways"))
	_, err := svc.Extract(ctx, wrapperspb.String(""))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.Extract(context.Background(), nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestLigandService_EnvironmentAndPresets(t *testing.T) {
	app := &fakeApp{
		env: docking.EnvironmentStatus{docking.StatusVina: false, docking.StatusOpenDockEnv: true},
		presets: []protein.Preset{{
			ID:   "5n9r",
			Name: "USP7",
			Site: protein.BindingSite{Center: [3]float64{18.5, 5.2, -7.8}, Size: [3]float64{25, 25, 25}},
		}},
	}
	svc := NewLigandService(app, nil)

	env, err := svc.Environment(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, false, env.AsMap()["ready"])
	tools := env.AsMap()["tools"].(map[string]interface{})
	assert.Equal(t, true, tools[docking.StatusOpenDockEnv])

	presets, err := svc.Presets(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)
	list := presets.AsMap()["presets"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "5n9r", list[0].(map[string]interface{})["id"])

	empty, err := NewLigandService(&fakeApp{}, nil).Presets(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{}, empty.AsMap()["presets"])
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
		msg  string
	}{
		{"nil", nil, codes.OK, ""},
		{"index", errors.New(errors.ErrCodeLigandIndexInvalid, "index 9 out of range"), codes.InvalidArgument, "index 9 out of range"},
		{"session", errors.New(errors.ErrCodeSessionNotFound, "session not found"), codes.NotFound, "session not found"},
		{"no protein", errors.New(errors.ErrCodeSessionNoProtein, "load a protein first"), codes.FailedPrecondition, "load a protein first"},
		{"locked", errors.New(errors.ErrCodeSessionLocked, "busy"), codes.Aborted, "busy"},
		{"tool", errors.New(errors.ErrCodeDockingToolMissing, "vina not found"), codes.Unavailable, "vina not found"},
		{"timeout", errors.New(errors.ErrCodeDockingTimeout, "vina timed out"), codes.DeadlineExceeded, "vina timed out"},
		{"wrapped", fmt.Errorf("rescore: %w", errors.New(errors.ErrCodeBindingSiteInvalid, "size must be positive")), codes.InvalidArgument, "size must be positive"},
		{"context", context.Canceled, codes.Canceled, context.Canceled.Error()},
		{"status passthrough", status.Error(codes.PermissionDenied, "no"), codes.PermissionDenied, "no"},
		{"plain", fmt.Errorf("disk on fire"), codes.Internal, errors.DefaultMessageForCode(errors.ErrCodeInternal)},
		{"database", errors.New(errors.ErrCodeDatabaseError, "pq: relation missing"), codes.Internal, errors.DefaultMessageForCode(errors.ErrCodeInternal)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ToStatus(tt.err)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, st.Code())
			assert.Equal(t, tt.msg, st.Message())
		})
	}
}
