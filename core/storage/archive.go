package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/minio/minio-go/v7"
)

// Archive stores JSON run reports under <prefix>/<job>/<yyyy>/<mm>/<dd>/<run_id>.json.
type Archive struct {
	client Client
	bucket string
	region string
	prefix string

	ensured bool
}

// NewArchive returns an Archive writing to cfg.Bucket through client.
func NewArchive(client Client, cfg Config) *Archive {
	return &Archive{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		prefix: cfg.Prefix,
	}
}

// ObjectName returns the object name of a report.
func (a *Archive) ObjectName(job, runID string, at time.Time) string {
	at = at.UTC()
	return path.Join(a.prefix, job, at.Format("2006"), at.Format("01"), at.Format("02"), runID+".json")
}

// PutReport serialises report and uploads it. It returns the object name.
func (a *Archive) PutReport(ctx context.Context, job, runID string, at time.Time, report any) (string, error) {
	if err := a.ensureBucket(ctx); err != nil {
		return "", err
	}

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "encode run report")
	}

	name := a.ObjectName(job, runID, at)
	_, err = a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", errors.Wrapf(err, "upload %s", name)
	}
	return name, nil
}

func (a *Archive) ensureBucket(ctx context.Context) error {
	if a.ensured {
		return nil
	}
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return errors.Wrapf(err, "check bucket %s", a.bucket)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: a.region}); err != nil {
			return errors.Wrapf(err, "create bucket %s", a.bucket)
		}
	}
	a.ensured = true
	return nil
}
