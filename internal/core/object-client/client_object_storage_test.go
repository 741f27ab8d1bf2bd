package objectclient

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"

	"github.com/markdave123-py/Coverly/internal/config"
	"github.com/markdave123-py/Coverly/internal/core"
)

func TestObjectURL(t *testing.T) {
	assert.Equal(t,
		"https://uploads.s3.us-east-2.amazonaws.com/u1/batch%201/jobs.xlsx",
		ObjectURL("uploads", "us-east-2", "u1/batch 1/jobs.xlsx"))
}

func TestNewS3ClientRequiresSettings(t *testing.T) {
	_, err := NewS3Client(context.Background(), &config.Config{}, nil)
	assert.ErrorContains(t, err, "AWS credentials")

	_, err = NewS3Client(context.Background(), &config.Config{AwsAccessKey: "a", AwsSecretKey: "b", AwsRegion: "us-east-2"}, nil)
	assert.ErrorContains(t, err, "bucket")
}

func TestGetErrorMapsMissingKey(t *testing.T) {
	err := getError("k", fmt.Errorf("operation error S3: GetObject: %w", &types.NoSuchKey{}))
	assert.ErrorIs(t, err, core.ErrObjectNotFound)

	err = getError("k", errors.New("access denied"))
	assert.NotErrorIs(t, err, core.ErrObjectNotFound)
	assert.ErrorContains(t, err, "access denied")
}
