package objectclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	cfg "github.com/markdave123-py/Coverly/internal/config"
	"github.com/markdave123-py/Coverly/internal/core"
	"github.com/markdave123-py/Coverly/internal/platform/logger"
)

// S3Client archives raw uploads in S3.
type S3Client struct {
	client *s3.Client
	region string
	log    *logger.Logger
}

func NewS3Client(ctx context.Context, c *cfg.Config, log *logger.Logger) (core.ObjectClient, error) {
	if c.AwsAccessKey == "" || c.AwsSecretKey == "" {
		return nil, fmt.Errorf("AWS credentials not set")
	}
	if c.AwsRegion == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}
	if c.BucketName == "" {
		return nil, fmt.Errorf("S3 bucket name not set")
	}
	if log == nil {
		log = logger.Nop()
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(c.AwsRegion),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AwsAccessKey, c.AwsSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	log.Info("s3 client ready", "region", c.AwsRegion, "bucket", c.BucketName)
	return &S3Client{
		client: s3.NewFromConfig(awsCfg),
		region: c.AwsRegion,
		log:    log,
	}, nil
}

// ObjectURL is the virtual-hosted URL of key in bucket.
func ObjectURL(bucket, region, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, (&url.URL{Path: key}).EscapedPath())
}

// UploadFile streams data to S3 and returns the object URL.
func (c *S3Client) UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (string, error) {
	uploader := manager.NewUploader(c.client)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	}

	ctxUpload, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if _, err := uploader.Upload(ctxUpload, input); err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}
	c.log.Debug("s3 upload", "bucket", bucket, "key", key)
	return ObjectURL(bucket, c.region, key), nil
}

func (c *S3Client) DeleteFile(ctx context.Context, bucket, key string) error {
	ctxDel, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := c.client.DeleteObject(ctxDel, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

// GetFile reads a whole object. A missing key yields core.ErrObjectNotFound.
func (c *S3Client) GetFile(ctx context.Context, bucket, key string) ([]byte, error) {
	ctxGet, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := c.client.GetObject(ctxGet, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, getError(key, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func getError(key string, err error) error {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return fmt.Errorf("%w: %s", core.ErrObjectNotFound, key)
	}
	return fmt.Errorf("s3 get failed: %w", err)
}
