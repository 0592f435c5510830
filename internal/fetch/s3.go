package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"resumatch/internal/config"
	resumatchErrors "resumatch/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// ObjectGetter is the subset of the S3 client used to read resumes
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client builds an S3 client, honouring a custom endpoint for R2 or MinIO
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// fetchObject reads s3://bucket/key
func (f *Fetcher) fetchObject(ctx context.Context, target *url.URL) (*Document, error) {
	if f.objects == nil {
		return nil, resumatchErrors.NewValidationError(resumatchErrors.ErrCodeInvalidRequest,
			"s3:// resume URLs are not enabled on this server", nil)
	}

	bucket := target.Host
	key := strings.TrimPrefix(target.Path, "/")
	if key == "" {
		return nil, resumatchErrors.NewValidationError(resumatchErrors.ErrCodeInvalidRequest,
			"Resume URL is missing an object key", nil).WithContext("url", target.String())
	}

	out, err := f.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, f.classifyObject(err, target)
	}
	defer out.Body.Close()

	if out.ContentLength != nil && *out.ContentLength > f.maxBytes {
		return nil, f.tooLarge(target)
	}

	data, err := f.readLimited(out.Body)
	if err != nil {
		if appErr, ok := resumatchErrors.As(err); ok && appErr.Code == resumatchErrors.ErrCodeDocumentTooLarge {
			return nil, f.tooLarge(target)
		}
		return nil, f.classify(err, target)
	}

	return &Document{
		Data:        data,
		ContentType: aws.ToString(out.ContentType),
		Filename:    path.Base(key),
	}, nil
}

// classifyObject keeps the store's HTTP status so a missing object reads as a client error
func (f *Fetcher) classifyObject(err error, target *url.URL) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return resumatchErrors.NewDownloadError(resumatchErrors.ErrCodeDownloadFailed,
			"Resume object not found", 404, err).WithContext("url", target.String())
	}

	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		return resumatchErrors.NewDownloadError(resumatchErrors.ErrCodeDownloadFailed,
			fmt.Sprintf("Failed to download resume: object store returned %d", respErr.HTTPStatusCode()),
			respErr.HTTPStatusCode(), err).WithContext("url", target.String())
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return resumatchErrors.NewDownloadError(resumatchErrors.ErrCodeDownloadFailed,
			"Failed to download resume: "+apiErr.ErrorCode(), 0, err).WithContext("url", target.String())
	}

	return f.classify(err, target)
}
