package minio

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dockview/pkg/errors"
)

// Upload kinds.
const (
	KindProtein = "protein"
	KindLigands = "ligands"
	KindPoses   = "poses"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")
	ErrInvalidUpload  = errors.New(errors.ErrCodeValidation, "invalid upload")
)

// ObjectInfo describes one archived upload.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Archive stores uploads under sessions/<id>/<kind>/<timestamp>-<name>.
type Archive struct {
	client *Client
	logger logging.Logger
	now    func() time.Time
}

// NewArchive returns an Archive writing to the client's bucket.
func NewArchive(client *Client, log logging.Logger) *Archive {
	return &Archive{client: client, logger: log, now: time.Now}
}

// ObjectKey builds the key for an upload. The file name is reduced to its
// base name.
func ObjectKey(sessionID, kind, name string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = kind
	}
	return path.Join("sessions", sessionID, kind, at.UTC().Format("20060102T150405.000Z")+"-"+base)
}

// Store uploads content and returns its object key.
func (a *Archive) Store(ctx context.Context, sessionID, kind, name string, content []byte) (string, error) {
	if a.client.isClosed() {
		return "", ErrClientClosed
	}
	if sessionID == "" || kind == "" {
		return "", ErrInvalidUpload.WithDetail("session and kind are required")
	}
	key := ObjectKey(sessionID, kind, name, a.now())
	opts := minio.PutObjectOptions{
		ContentType: contentType(kind),
		UserMetadata: map[string]string{
			"session":  sessionID,
			"filename": name,
		},
	}
	info, err := a.client.api.PutObject(ctx, a.client.Bucket(), key, bytes.NewReader(content), int64(len(content)), opts)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "upload failed").WithDetail(key)
	}
	a.logger.Debug("upload archived",
		logging.String(logging.FieldSessionID, sessionID),
		logging.String("key", key),
		logging.Int64("size", info.Size))
	return key, nil
}

// Fetch downloads an archived object.
func (a *Archive) Fetch(ctx context.Context, key string) ([]byte, error) {
	if a.client.isClosed() {
		return nil, ErrClientClosed
	}
	obj, err := a.client.api.GetObject(ctx, a.client.Bucket(), key, minio.GetObjectOptions{})
	if err != nil {
		return nil, a.mapError(err, key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, a.mapError(err, key)
	}
	return data, nil
}

// List returns the uploads archived for a session, oldest first.
func (a *Archive) List(ctx context.Context, sessionID string) ([]ObjectInfo, error) {
	prefix := path.Join("sessions", sessionID) + "/"
	var out []ObjectInfo
	for obj := range a.client.api.ListObjects(ctx, a.client.Bucket(), minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeStorageError, "list failed")
		}
		out = append(out, ObjectInfo{Key: obj.Key, Size: obj.Size, ETag: obj.ETag, LastModified: obj.LastModified})
	}
	return out, nil
}

// PresignedURL returns a time-limited download link.
func (a *Archive) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = a.client.config.PresignExpiry
	}
	if _, err := a.client.api.StatObject(ctx, a.client.Bucket(), key, minio.StatObjectOptions{}); err != nil {
		return "", a.mapError(err, key)
	}
	u, err := a.client.api.PresignedGetObject(ctx, a.client.Bucket(), key, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "presign failed")
	}
	return u.String(), nil
}

func (a *Archive) mapError(err error, key string) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrObjectNotFound.WithDetail(key)
	}
	return errors.Wrap(err, errors.ErrCodeStorageError, "download failed").WithDetail(key)
}

func contentType(kind string) string {
	switch kind {
	case KindProtein:
		return "chemical/x-pdb"
	case KindLigands:
		return "chemical/x-mdl-sdfile"
	default:
		return "text/plain"
	}
}
