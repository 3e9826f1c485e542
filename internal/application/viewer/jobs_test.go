package viewer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dockview/internal/domain/docking"
	apperrors "github.com/turtacn/dockview/pkg/errors"
)

func TestSubmitRescoreJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.loaded(t)

	f.jobs.On("PublishRescoreJob", mock.Anything, mock.MatchedBy(func(j docking.RescoreJob) bool {
		return j.SessionID == id && j.JobID != "" && len(j.Indices) == 2 && j.Parallelism == f.svc.opts.Parallelism
	})).Return(nil).Once()

	job, err := f.svc.SubmitRescoreJob(ctx, id, []int{0, 4})
	require.NoError(t, err)
	assert.Equal(t, id, job.SessionID)
	f.jobs.AssertExpectations(t)
	f.vina.AssertNotCalled(t, "Rescore", mock.Anything, mock.Anything)
}

func TestSubmitRescoreJob_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.loaded(t)

	f.jobs.On("PublishRescoreJob", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
	_, err := f.svc.SubmitRescoreJob(ctx, id, nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMessagingError))

	f.svc.jobs = nil
	_, err = f.svc.SubmitRescoreJob(ctx, id, nil)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeServiceUnavailable))
}

func TestHandleRescoreJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.loaded(t)

	f.vina.On("Rescore", mock.Anything, labelled("ethanol")).Return(&docking.Result{Score: -6.6}, nil).Once()
	f.runs.On("Record", mock.Anything, mock.Anything).Return(nil)
	f.jobs.On("PublishRescoreCompleted", mock.Anything, mock.MatchedBy(func(d docking.RescoreCompleted) bool {
		return d.JobID == "job-1" && d.Scores[0] == -6.6 && d.Failures[42] == "ligand not found"
	})).Return(nil).Once()

	done, err := f.svc.HandleRescoreJob(ctx, docking.RescoreJob{JobID: "job-1", SessionID: id, Indices: []int{0, 42}, Parallelism: 2})
	require.NoError(t, err)
	assert.Len(t, done.Scores, 1)

	sess, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	pos := sess.Position(0)
	require.True(t, sess.Ligands[pos].HasVinaScore())
	assert.Equal(t, -6.6, *sess.Ligands[pos].VinaScore)
	f.jobs.AssertExpectations(t)
	f.vina.AssertExpectations(t)
}

func TestHandleRescoreJob_UnknownSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.HandleRescoreJob(context.Background(), docking.RescoreJob{JobID: "j", SessionID: "gone"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSessionNotFound))
	f.jobs.AssertNotCalled(t, "PublishRescoreCompleted", mock.Anything, mock.Anything)
}

func TestRender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.loaded(t)

	page, err := f.svc.Render(ctx, id, nil)
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "3Dmol-min.js")
	assert.Contains(t, html, "width: 900px")
	assert.Contains(t, html, "height: 700px")
	assert.Contains(t, html, "lightblue")
	assert.Contains(t, html, "200-250")
	assert.Contains(t, html, "SurfaceType.VDW")
	assert.Contains(t, html, "<title>benzene</title>")
	assert.Contains(t, html, "Ligand 1 of 4, score -9.50")
	assert.Contains(t, html, "spin( false )")
	assert.NotContains(t, html, "<script>ATOM", "structure text is escaped into a string literal")

	spin := true
	page, err = f.svc.Render(ctx, id, &spin)
	require.NoError(t, err)
	assert.Contains(t, string(page), "spin( true )")
}

func TestRender_EmptySession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.svc.Create(ctx)
	require.NoError(t, err)

	page, err := f.svc.Render(ctx, sess.ID, nil)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>DockView</title>")
	assert.True(t, strings.Contains(string(page), `var receptor = "";`) || strings.Contains(string(page), `var receptor =  "" ;`))
}
