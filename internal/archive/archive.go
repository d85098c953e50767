// Package archive stores retrieved price files in object storage so any
// import can be replayed or audited later.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"catalog_sync_backend/platform/apperr"
	"catalog_sync_backend/platform/logger"
)

// Archiver writes price files to a MinIO bucket.
type Archiver struct {
	client *minio.Client
	bucket string
	log    *logger.Logger
	now    func() time.Time
}

// New connects to the object store. The bucket is created on first use if
// it does not exist.
func New(endpoint, accessKey, secretKey, bucket string, useSSL bool, log *logger.Logger) (*Archiver, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, apperr.Config(fmt.Sprintf("object storage endpoint %q is invalid", endpoint))
	}
	return &Archiver{client: client, bucket: bucket, log: log, now: time.Now}, nil
}

// EnsureBucket creates the archive bucket when missing.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return apperr.Transient("object storage unavailable", err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return apperr.Transient("create archive bucket failed", err)
	}
	a.log.Info("created archive bucket", "bucket", a.bucket)
	return nil
}

// StorePriceFile archives one retrieved file under
// {supplier}/{date}/{uuid}_{filename} and returns the object name. The
// UUID prefix keeps same-named files from different runs apart.
func (a *Archiver) StorePriceFile(ctx context.Context, supplierCode, filename string, data []byte) (string, error) {
	object := fmt.Sprintf("%s/%s/%s_%s",
		supplierCode,
		a.now().Format("2006-01-02"),
		uuid.New(),
		path.Base(filename),
	)

	_, err := a.client.PutObject(ctx, a.bucket, object, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType(filename)})
	if err != nil {
		a.log.Error("archive upload failed", "object", object, "error", err.Error())
		return "", apperr.Transient("archive upload failed", err)
	}

	a.log.Info("archived price file", "object", object, "bytes", len(data))
	return object, nil
}

// FetchPriceFile reads an archived file back, for replaying an import.
func (a *Archiver) FetchPriceFile(ctx context.Context, object string) ([]byte, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, apperr.Transient("archive download failed", err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, apperr.Transient("archive download failed", err)
	}
	return buf.Bytes(), nil
}

func contentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".csv", ".txt":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
