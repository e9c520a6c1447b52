package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/kbukum/s3fm/logger"
	"github.com/kbukum/s3fm/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderS3, func(ctx context.Context, cfg storage.Config, providerCfg any, log *logger.Logger) (storage.ObjectStore, error) {
		c := &Config{}
		if providerCfg != nil {
			pc, ok := providerCfg.(*Config)
			if !ok {
				return nil, fmt.Errorf("s3: expected *s3.Config, got %T", providerCfg)
			}
			c = pc
		}
		if c.Bucket == "" {
			c.Bucket = cfg.Bucket
		}
		c.ApplyDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		s, err := NewStore(ctx, c)
		if err != nil {
			return nil, err
		}
		log.Debug("s3 client ready", logger.Fields(logger.FieldBucket, c.Bucket, "region", c.Region, "endpoint", c.Endpoint))
		return s, nil
	})
}

// Client is the subset of the S3 API the store calls.
type Client interface {
	ListObjectsV2(ctx context.Context, in *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, in *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	CopyObject(ctx context.Context, in *awss3.CopyObjectInput, optFns ...func(*awss3.Options)) (*awss3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, in *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, in *awss3.DeleteObjectsInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectsOutput, error)
}

// Presigner is the subset of the S3 presign API the store calls.
type Presigner interface {
	PresignPutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, in *awss3.GetObjectInput, optFns ...func(*awss3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Store implements storage.ObjectStore on Amazon S3 or an S3-compatible service.
type Store struct {
	client  Client
	presign Presigner
	bucket  string
}

var _ storage.ObjectStore = (*Store)(nil)

// NewStore creates an S3 client from cfg.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.pathStyle()
	})
	return NewStoreWithClient(client, awss3.NewPresignClient(client), cfg.Bucket), nil
}

// NewStoreWithClient builds a Store around existing clients.
func NewStoreWithClient(client Client, presign Presigner, bucket string) *Store {
	return &Store{client: client, presign: presign, bucket: bucket}
}

// Bucket returns the bucket name.
func (s *Store) Bucket() string { return s.bucket }

// ListPage runs one ListObjectsV2 request.
func (s *Store) ListPage(ctx context.Context, in storage.ListInput) (*storage.ListPage, error) {
	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(in.Prefix),
	}
	if in.Delimiter != "" {
		input.Delimiter = aws.String(in.Delimiter)
	}
	if in.MaxKeys > 0 {
		input.MaxKeys = aws.Int32(in.MaxKeys)
	}
	if in.Cursor != "" {
		input.ContinuationToken = aws.String(in.Cursor)
	}

	out, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("storage: s3 list %q: %w", in.Prefix, mapError(err))
	}

	page := &storage.ListPage{
		Objects:        make([]storage.Object, 0, len(out.Contents)),
		CommonPrefixes: make([]string, 0, len(out.CommonPrefixes)),
	}
	for _, obj := range out.Contents {
		if obj.Key == nil {
			continue
		}
		page.Objects = append(page.Objects, storage.Object{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			ETag:         aws.ToString(obj.ETag),
		})
	}
	for _, cp := range out.CommonPrefixes {
		if cp.Prefix != nil {
			page.CommonPrefixes = append(page.CommonPrefixes, aws.ToString(cp.Prefix))
		}
	}
	if aws.ToBool(out.IsTruncated) {
		page.Truncated = true
		page.NextCursor = aws.ToString(out.NextContinuationToken)
	}
	return page, nil
}

// Head returns the object's size, ETag and attributes.
func (s *Store) Head(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: s3 head %q: %w", key, mapError(err))
	}
	return &storage.ObjectInfo{
		Object: storage.Object{
			Key:          key,
			Size:         aws.ToInt64(out.ContentLength),
			LastModified: aws.ToTime(out.LastModified),
			ETag:         aws.ToString(out.ETag),
		},
		Attributes: storage.Attributes{
			ContentType:        aws.ToString(out.ContentType),
			CacheControl:       aws.ToString(out.CacheControl),
			ContentDisposition: aws.ToString(out.ContentDisposition),
			Metadata:           out.Metadata,
			Expires:            parseExpires(out.ExpiresString),
		},
	}, nil
}

// Get reads the whole object body.
func (s *Store) Get(ctx context.Context, key string) ([]byte, *storage.ObjectInfo, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("storage: s3 get %q: %w", key, mapError(err))
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("storage: s3 read %q: %w", key, err)
	}
	info := &storage.ObjectInfo{
		Object: storage.Object{
			Key:          key,
			Size:         int64(len(data)),
			LastModified: aws.ToTime(out.LastModified),
			ETag:         aws.ToString(out.ETag),
		},
		Attributes: storage.Attributes{
			ContentType: aws.ToString(out.ContentType),
			Metadata:    out.Metadata,
		},
	}
	return data, info, nil
}

// Put writes a small object.
func (s *Store) Put(ctx context.Context, in storage.PutInput) (string, error) {
	input := &awss3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(in.Key),
		Body:          bytes.NewReader(in.Body),
		ContentLength: aws.Int64(int64(len(in.Body))),
	}
	applyPutAttributes(input, in.Attributes)
	if in.IfNoneMatch != "" {
		input.IfNoneMatch = aws.String(in.IfNoneMatch)
	}

	out, err := s.client.PutObject(ctx, input)
	if err != nil {
		return "", fmt.Errorf("storage: s3 put %q: %w", in.Key, mapError(err))
	}
	return aws.ToString(out.ETag), nil
}

// Copy runs a server side CopyObject.
func (s *Store) Copy(ctx context.Context, in storage.CopyInput) error {
	input := &awss3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(in.DestKey),
		CopySource: aws.String(CopySource(s.bucket, in.SourceKey)),
	}
	if in.IfMatch != "" {
		input.CopySourceIfMatch = aws.String(in.IfMatch)
	}
	if in.Replace != nil {
		a := in.Replace
		input.MetadataDirective = types.MetadataDirectiveReplace
		input.Metadata = a.Metadata
		if a.ContentType != "" {
			input.ContentType = aws.String(a.ContentType)
		}
		if a.CacheControl != "" {
			input.CacheControl = aws.String(a.CacheControl)
		}
		if a.ContentDisposition != "" {
			input.ContentDisposition = aws.String(a.ContentDisposition)
		}
		if a.Expires != nil {
			input.Expires = aws.Time(*a.Expires)
		}
	}

	if _, err := s.client.CopyObject(ctx, input); err != nil {
		return fmt.Errorf("storage: s3 copy %q to %q: %w", in.SourceKey, in.DestKey, mapError(err))
	}
	return nil
}

// Delete removes one object.
func (s *Store) Delete(ctx context.Context, in storage.DeleteInput) error {
	input := &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(in.Key),
	}
	if in.IfMatch != "" {
		input.IfMatch = aws.String(in.IfMatch)
	}
	if _, err := s.client.DeleteObject(ctx, input); err != nil {
		return fmt.Errorf("storage: s3 delete %q: %w", in.Key, mapError(err))
	}
	return nil
}

// DeleteBatch issues a quiet DeleteObjects request.
func (s *Store) DeleteBatch(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if len(keys) > storage.MaxDeleteBatch {
		return fmt.Errorf("storage: s3 delete batch of %d exceeds %d", len(keys), storage.MaxDeleteBatch)
	}

	ids := make([]types.ObjectIdentifier, len(keys))
	for i, k := range keys {
		ids[i] = types.ObjectIdentifier{Key: aws.String(k)}
	}
	out, err := s.client.DeleteObjects(ctx, &awss3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("storage: s3 delete batch: %w", mapError(err))
	}
	if len(out.Errors) > 0 {
		first := out.Errors[0]
		return fmt.Errorf("storage: s3 delete batch: %d of %d keys failed, first %q: %s %s",
			len(out.Errors), len(keys), aws.ToString(first.Key), aws.ToString(first.Code), aws.ToString(first.Message))
	}
	return nil
}

// PresignPut returns a presigned PutObject URL. Every attribute set on in is
// signed, so the uploader must send the matching headers.
func (s *Store) PresignPut(ctx context.Context, in storage.PresignPutInput) (string, error) {
	input := &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(in.Key),
	}
	applyPutAttributes(input, in.Attributes)
	if in.IfNoneMatch != "" {
		input.IfNoneMatch = aws.String(in.IfNoneMatch)
	}

	req, err := s.presign.PresignPutObject(ctx, input, func(o *awss3.PresignOptions) {
		o.Expires = in.TTL
	})
	if err != nil {
		return "", fmt.Errorf("storage: s3 presign put %q: %w", in.Key, err)
	}
	return req.URL, nil
}

// PresignGet returns a presigned GetObject URL.
func (s *Store) PresignGet(ctx context.Context, in storage.PresignGetInput) (string, error) {
	input := &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(in.Key),
	}
	if in.ResponseContentDisposition != "" {
		input.ResponseContentDisposition = aws.String(in.ResponseContentDisposition)
	}

	req, err := s.presign.PresignGetObject(ctx, input, func(o *awss3.PresignOptions) {
		o.Expires = in.TTL
	})
	if err != nil {
		return "", fmt.Errorf("storage: s3 presign get %q: %w", in.Key, err)
	}
	return req.URL, nil
}

// CopySource encodes bucket/key for the x-amz-copy-source header. Every
// byte is percent-encoded except unreserved characters and the slash.
func CopySource(bucket, key string) string {
	escaped := url.QueryEscape(bucket + "/" + key)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	return strings.ReplaceAll(escaped, "%2F", "/")
}

func applyPutAttributes(input *awss3.PutObjectInput, a storage.Attributes) {
	if a.ContentType != "" {
		input.ContentType = aws.String(a.ContentType)
	}
	if a.CacheControl != "" {
		input.CacheControl = aws.String(a.CacheControl)
	}
	if a.ContentDisposition != "" {
		input.ContentDisposition = aws.String(a.ContentDisposition)
	}
	if len(a.Metadata) > 0 {
		input.Metadata = a.Metadata
	}
	if a.Expires != nil {
		input.Expires = aws.Time(*a.Expires)
	}
}

func parseExpires(v *string) *time.Time {
	if v == nil || *v == "" {
		return nil
	}
	t, err := http.ParseTime(*v)
	if err != nil {
		return nil
	}
	return &t
}

// mapError translates S3 not-found and precondition responses into the
// storage sentinels while keeping the original error in the chain.
func mapError(err error) error {
	switch {
	case isNotFound(err):
		return errors.Join(storage.ErrNotFound, err)
	case isPreconditionFailed(err):
		return errors.Join(storage.ErrPreconditionFailed, err)
	default:
		return err
	}
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	if status, ok := httpStatusCode(err); ok {
		return status == http.StatusNotFound
	}
	return false
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	if status, ok := httpStatusCode(err); ok {
		return status == http.StatusPreconditionFailed
	}
	return false
}

func httpStatusCode(err error) (int, bool) {
	var statusErr interface{ HTTPStatusCode() int }
	if errors.As(err, &statusErr) {
		return statusErr.HTTPStatusCode(), true
	}
	return 0, false
}
