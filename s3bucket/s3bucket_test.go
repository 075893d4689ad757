package s3bucket

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeClient) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestUpload(t *testing.T) {
	client := &fakeClient{}
	bucket := NewS3BucketWithClient(client, "eu-central-1", "grades")

	url, err := bucket.Upload(context.Background(), []byte("xlsx"), "reports/r.xlsx", "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, "https://grades.s3.eu-central-1.amazonaws.com/reports/r.xlsx", url)
	assert.Equal(t, "grades", *client.input.Bucket)
	assert.Equal(t, "reports/r.xlsx", *client.input.Key)
	assert.Equal(t, []byte("xlsx"), client.body)
}

func TestUploadError(t *testing.T) {
	bucket := NewS3BucketWithClient(&fakeClient{err: errors.New("denied")}, "eu-central-1", "grades")
	_, err := bucket.Upload(context.Background(), nil, "k", "text/plain")
	assert.ErrorContains(t, err, "denied")
}
