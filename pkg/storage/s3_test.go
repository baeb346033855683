package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bucket is an in-memory objectAPI.
type bucket struct {
	objects map[string][]byte
	types   map[string]string
}

func newBucket() *bucket { return &bucket{objects: map[string][]byte{}, types: map[string]string{}} }

func (b *bucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, _ := io.ReadAll(in.Body)
	b.objects[*in.Key] = data
	b.types[*in.Key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (b *bucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := b.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (b *bucket) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := b.objects[*in.Key]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (b *bucket) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if _, ok := b.objects[*in.Key]; !ok {
		return nil, &types.NoSuchKey{}
	}
	delete(b.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (b *bucket) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	for _, o := range in.Delete.Objects {
		delete(b.objects, *o.Key)
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func (b *bucket) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	for k := range b.objects {
		if strings.HasPrefix(k, *in.Prefix) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
		}
	}
	return out, nil
}

func TestS3DiskKeysAndURLs(t *testing.T) {
	b := newBucket()
	d := newS3Disk(b, S3Config{Bucket: "w360", Region: "eu-west-1", Prefix: "/uploads/"})
	ctx := context.Background()

	require.NoError(t, d.PutStream(ctx, "/u1/p9/image_a.jpg", strings.NewReader("jpeg")))
	assert.Contains(t, b.objects, "uploads/u1/p9/image_a.jpg")
	assert.Equal(t, "image/jpeg", b.types["uploads/u1/p9/image_a.jpg"])
	assert.Equal(t, "https://w360.s3.eu-west-1.amazonaws.com/uploads/u1/p9/image_a.jpg", d.URL("u1/p9/image_a.jpg"))
	assert.True(t, d.Exists(ctx, "u1/p9/image_a.jpg"))

	rc, err := d.GetStream(ctx, "u1/p9/image_a.jpg")
	require.NoError(t, err)
	got, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "jpeg", string(got))

	require.NoError(t, d.Delete(ctx, "u1/p9/missing.jpg"))
	_, err = d.GetStream(ctx, "u1/p9/missing.jpg")
	assert.Error(t, err)
}

func TestS3DiskDeleteDirectory(t *testing.T) {
	b := newBucket()
	d := newS3Disk(b, S3Config{Bucket: "w360", PublicURL: "https://cdn.example.com/"})
	ctx := context.Background()
	for _, p := range []string{"u1/p9/a.jpg", "u1/p9/b.png", "u1/p10/c.jpg"} {
		require.NoError(t, d.Put(ctx, p, []byte("x")))
	}

	require.NoError(t, d.DeleteDirectory(ctx, "u1/p9"))
	assert.Len(t, b.objects, 1)
	assert.Contains(t, b.objects, "u1/p10/c.jpg")
	assert.Equal(t, "https://cdn.example.com/u1/p10/c.jpg", d.URL("u1/p10/c.jpg"))
}
