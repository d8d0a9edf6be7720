// Package objstore provides an S3-compatible object store client over minio-go
package objstore

import (
	"bytes"
	"context"
	"io"
	"strings"

	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config configures the object store connection
type Config struct {
	Endpoint  string // host:port, no scheme
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool

	// EnsureBuckets are created at Open when missing
	EnsureBuckets []string
}

// Client reads and writes objects
type Client struct {
	cli *minio.Client
	cfg Config
	log *logger.Logger
}

var newMinio = minio.New

// Open builds the client and makes sure configured buckets exist
func Open(ctx context.Context, cfg Config) (*Client, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	cli, err := newMinio(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "objstore: client for %q", endpoint)
	}

	c := &Client{cli: cli, cfg: cfg, log: logger.Named("objstore")}
	for _, b := range cfg.EnsureBuckets {
		if err := c.ensureBucket(ctx, b); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Client) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := c.cli.BucketExists(ctx, bucket)
	if err != nil {
		return perr.FromObjectStoref(err, perr.ErrorCodeUnavailable, "objstore: bucket exists %s", bucket)
	}
	if exists {
		return nil
	}
	if err := c.cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.cfg.Region}); err != nil {
		return perr.FromObjectStoref(err, perr.ErrorCodeStorageWrite, "objstore: make bucket %s", bucket)
	}
	c.log.Info().Str("bucket", bucket).Msg("created bucket")
	return nil
}

// Download streams bucket/key into w and returns the byte count
func (c *Client) Download(ctx context.Context, bucket, key string, w io.Writer) (int64, error) {
	obj, err := c.cli.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return 0, perr.FromObjectStoref(err, perr.ErrorCodeUnavailable, "objstore: get %s/%s", bucket, key)
	}
	defer obj.Close()

	n, err := io.Copy(w, obj)
	if err != nil {
		return n, perr.FromObjectStoref(err, perr.ErrorCodeUnavailable, "objstore: read %s/%s", bucket, key)
	}
	return n, nil
}

// Put writes body to bucket/key, replacing any existing object
func (c *Client) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	_, err := c.cli.PutObject(ctx, bucket, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return perr.FromObjectStoref(err, perr.ErrorCodeStorageWrite, "objstore: put %s/%s", bucket, key)
	}
	return nil
}

// Ping checks that the endpoint answers and credentials are accepted
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.cli.ListBuckets(ctx); err != nil {
		return perr.FromObjectStore(err, perr.ErrorCodeUnavailable, "objstore: ping")
	}
	return nil
}
