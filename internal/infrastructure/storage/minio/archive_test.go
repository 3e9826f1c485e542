package minio

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/dockview/pkg/errors"
)

var fixedNow = time.Date(2026, 10, 1, 8, 30, 0, 0, time.UTC)

func newTestArchive(t *testing.T) (*Archive, *mockObjectAPI) {
	t.Helper()
	api := new(mockObjectAPI)
	api.On("BucketExists", mock.Anything, "dockview-uploads").Return(true, nil).Once()
	c, err := newClientWithAPI(context.Background(), api, &Config{}, logging.NewNopLogger())
	require.NoError(t, err)
	a := NewArchive(c, logging.NewNopLogger())
	a.now = func() time.Time { return fixedNow }
	return a, api
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{"plain", "rec.pdb", "sessions/s1/protein/20261001T083000.000Z-rec.pdb"},
		{"strips_directories", "../../etc/rec.pdb", "sessions/s1/protein/20261001T083000.000Z-rec.pdb"},
		{"windows_path", `C:\data\rec.pdb`, "sessions/s1/protein/20261001T083000.000Z-rec.pdb"},
		{"empty_name", "", "sessions/s1/protein/20261001T083000.000Z-protein"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectKey("s1", KindProtein, tt.file, fixedNow))
		})
	}
}

func TestArchive_Store(t *testing.T) {
	a, api := newTestArchive(t)
	key := "sessions/s1/ligands/20261001T083000.000Z-poses.sdf"
	api.On("PutObject", mock.Anything, "dockview-uploads", key, mock.Anything, int64(4),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool {
			return o.ContentType == "chemical/x-mdl-sdfile" && o.UserMetadata["session"] == "s1"
		})).Return(minio.UploadInfo{Key: key, Size: 4}, nil)

	got, err := a.Store(context.Background(), "s1", KindLigands, "poses.sdf", []byte("$$$$"))
	require.NoError(t, err)
	assert.Equal(t, key, got)
	api.AssertExpectations(t)
}

func TestArchive_StoreErrors(t *testing.T) {
	a, api := newTestArchive(t)

	_, err := a.Store(context.Background(), "", KindLigands, "x", nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	api.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("boom"))
	_, err = a.Store(context.Background(), "s1", KindProtein, "rec.pdb", []byte("ATOM"))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStorageError))

	require.NoError(t, a.client.Close())
	_, err = a.Store(context.Background(), "s1", KindProtein, "rec.pdb", nil)
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestArchive_Fetch(t *testing.T) {
	a, api := newTestArchive(t)
	api.On("GetObject", mock.Anything, "dockview-uploads", "k1", mock.Anything).
		Return(io.NopCloser(strings.NewReader("ATOM 1")), nil)
	api.On("GetObject", mock.Anything, "dockview-uploads", "missing", mock.Anything).
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey"})

	data, err := a.Fetch(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, "ATOM 1", string(data))

	_, err = a.Fetch(context.Background(), "missing")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestArchive_List(t *testing.T) {
	a, api := newTestArchive(t)
	ch := make(chan minio.ObjectInfo, 2)
	ch <- minio.ObjectInfo{Key: "sessions/s1/protein/a-rec.pdb", Size: 10}
	ch <- minio.ObjectInfo{Key: "sessions/s1/ligands/b-poses.sdf", Size: 20}
	close(ch)
	api.On("ListObjects", mock.Anything, "dockview-uploads",
		minio.ListObjectsOptions{Prefix: "sessions/s1/", Recursive: true}).Return((<-chan minio.ObjectInfo)(ch))

	objs, err := a.List(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, int64(20), objs[1].Size)
}

func TestArchive_ListError(t *testing.T) {
	a, api := newTestArchive(t)
	ch := make(chan minio.ObjectInfo, 1)
	ch <- minio.ObjectInfo{Err: errors.New("denied")}
	close(ch)
	api.On("ListObjects", mock.Anything, mock.Anything, mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	_, err := a.List(context.Background(), "s1")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStorageError))
}

func TestArchive_PresignedURL(t *testing.T) {
	a, api := newTestArchive(t)
	u, _ := url.Parse("https://minio.local/dockview-uploads/k1?sig=x")
	api.On("StatObject", mock.Anything, "dockview-uploads", "k1", mock.Anything).Return(minio.ObjectInfo{Key: "k1"}, nil)
	api.On("PresignedGetObject", mock.Anything, "dockview-uploads", "k1", time.Hour, url.Values(nil)).Return(u, nil)
	api.On("StatObject", mock.Anything, "dockview-uploads", "gone", mock.Anything).
		Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"})

	got, err := a.PresignedURL(context.Background(), "k1", 0)
	require.NoError(t, err)
	assert.Equal(t, u.String(), got)

	_, err = a.PresignedURL(context.Background(), "gone", 0)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}
