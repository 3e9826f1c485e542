package minio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/dockview/pkg/errors"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, "dockview-uploads", cfg.Bucket)
	assert.Equal(t, time.Hour, cfg.PresignExpiry)
}

func TestNewClient_CreatesMissingBucketWithRetention(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("BucketExists", mock.Anything, "uploads").Return(false, nil)
	api.On("MakeBucket", mock.Anything, "uploads", mock.Anything).Return(nil)
	api.On("SetBucketLifecycle", mock.Anything, "uploads", mock.MatchedBy(func(lc interface{}) bool { return lc != nil })).Return(nil)

	c, err := newClientWithAPI(context.Background(), api, &Config{Bucket: "uploads", RetentionDays: 7}, logging.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, "uploads", c.Bucket())
	api.AssertExpectations(t)
}

func TestNewClient_ExistingBucketNoRetention(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("BucketExists", mock.Anything, "dockview-uploads").Return(true, nil)

	_, err := newClientWithAPI(context.Background(), api, &Config{}, logging.NewNopLogger())
	require.NoError(t, err)
	api.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "SetBucketLifecycle", mock.Anything, mock.Anything, mock.Anything)
}

func TestNewClient_BucketCheckFails(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("BucketExists", mock.Anything, mock.Anything).Return(false, errors.New("dial tcp: refused"))

	_, err := newClientWithAPI(context.Background(), api, &Config{}, logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStorageError))
}

func TestHealthCheck(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("BucketExists", mock.Anything, "dockview-uploads").Return(true, nil).Once()
	c, err := newClientWithAPI(context.Background(), api, &Config{}, logging.NewNopLogger())
	require.NoError(t, err)

	api.On("BucketExists", mock.Anything, "dockview-uploads").Return(false, nil).Once()
	assert.Error(t, c.HealthCheck(context.Background()))

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.HealthCheck(context.Background()), ErrClientClosed)
}
