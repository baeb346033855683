package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/shashiranjanraj/wellness360/config"
)

// S3Config describes an S3-compatible bucket (AWS, MinIO, R2).
type S3Config struct {
	Bucket    string
	Region    string
	Key       string
	Secret    string
	Endpoint  string // non-empty switches to path-style addressing
	Prefix    string // key namespace, default "uploads"
	PublicURL string
}

func s3ConfigFromEnv() S3Config {
	return S3Config{
		Bucket:    config.Get("S3_BUCKET", ""),
		Region:    config.Get("S3_REGION", "us-east-1"),
		Key:       config.Get("S3_KEY", ""),
		Secret:    config.Get("S3_SECRET", ""),
		Endpoint:  config.Get("S3_ENDPOINT", ""),
		Prefix:    config.Get("S3_PREFIX", "uploads"),
		PublicURL: config.Get("S3_URL", ""),
	}
}

// objectAPI is the part of *s3.Client the disk calls.
type objectAPI interface {
	PutObject(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(context.Context, *s3.DeleteObjectInput, ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(context.Context, *s3.DeleteObjectsInput, ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	s3.ListObjectsV2APIClient
}

type s3Disk struct {
	api     objectAPI
	bucket  string
	prefix  string
	baseURL string
}

// NewS3Disk loads AWS credentials (static when Key and Secret are set,
// the default chain otherwise) and returns the disk.
func NewS3Disk(ctx context.Context, c S3Config) (Disk, error) {
	if c.Bucket == "" {
		return nil, errors.New("storage/s3: S3_BUCKET is not configured")
	}
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(c.Region)}
	if c.Key != "" && c.Secret != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.Key, c.Secret, "")))
	}
	awsConf, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage/s3: load config: %w", err)
	}
	client := s3.NewFromConfig(awsConf, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Disk(client, c), nil
}

func newS3Disk(api objectAPI, c S3Config) *s3Disk {
	base := strings.TrimRight(c.PublicURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
	}
	return &s3Disk{api: api, bucket: c.Bucket, prefix: strings.Trim(c.Prefix, "/"), baseURL: base}
}

func (d *s3Disk) Name() string { return "s3" }

func (d *s3Disk) objectKey(p string) string {
	return strings.TrimLeft(path.Join(d.prefix, strings.TrimLeft(p, "/")), "/")
}

func (d *s3Disk) Put(ctx context.Context, p string, content []byte) error {
	in := &s3.PutObjectInput{
		Bucket: &d.bucket,
		Key:    aws.String(d.objectKey(p)),
		Body:   bytes.NewReader(content),
	}
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		in.ContentType = aws.String(ct)
	}
	if _, err := d.api.PutObject(ctx, in); err != nil {
		return fmt.Errorf("storage/s3: put %s: %w", p, err)
	}
	return nil
}

// PutStream reads r fully first; request signing needs a seekable body.
func (d *s3Disk) PutStream(ctx context.Context, p string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("storage/s3: read %s: %w", p, err)
	}
	return d.Put(ctx, p, data)
}

func (d *s3Disk) GetStream(ctx context.Context, p string) (io.ReadCloser, error) {
	out, err := d.api.GetObject(ctx, &s3.GetObjectInput{Bucket: &d.bucket, Key: aws.String(d.objectKey(p))})
	if err != nil {
		return nil, fmt.Errorf("storage/s3: get %s: %w", p, err)
	}
	return out.Body, nil
}

func (d *s3Disk) Exists(ctx context.Context, p string) bool {
	_, err := d.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &d.bucket, Key: aws.String(d.objectKey(p))})
	return err == nil
}

func (d *s3Disk) URL(p string) string { return d.baseURL + "/" + d.objectKey(p) }

func (d *s3Disk) Delete(ctx context.Context, p string) error {
	_, err := d.api.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &d.bucket, Key: aws.String(d.objectKey(p))})
	var missing *types.NoSuchKey
	if err != nil && !errors.As(err, &missing) {
		return fmt.Errorf("storage/s3: delete %s: %w", p, err)
	}
	return nil
}

// DeleteDirectory removes every object under p, one listing page per batch.
func (d *s3Disk) DeleteDirectory(ctx context.Context, p string) error {
	pages := s3.NewListObjectsV2Paginator(d.api, &s3.ListObjectsV2Input{
		Bucket: &d.bucket,
		Prefix: aws.String(strings.TrimRight(d.objectKey(p), "/") + "/"),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("storage/s3: list %s: %w", p, err)
		}
		if len(page.Contents) == 0 {
			continue
		}
		batch := &types.Delete{Objects: make([]types.ObjectIdentifier, 0, len(page.Contents))}
		for _, obj := range page.Contents {
			batch.Objects = append(batch.Objects, types.ObjectIdentifier{Key: obj.Key})
		}
		if _, err := d.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{Bucket: &d.bucket, Delete: batch}); err != nil {
			return fmt.Errorf("storage/s3: delete %s: %w", p, err)
		}
	}
	return nil
}
