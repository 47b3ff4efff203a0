// Package s3 stores specimen media in an S3 or MinIO bucket. It backs shared
// atlas deployments where several collectors submit against one server and
// download links must outlive the serving process.
package s3

import (
	"context"
	"dentalatlas/internal/blob/core"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// usidMetadataKey is the S3 user metadata entry carrying the owning record
// identifier. S3 lowercases metadata keys on the wire.
const usidMetadataKey = "usid"

// defaultURLTTL bounds presigned download links when the caller does not ask
// for a specific lifetime.
const defaultURLTTL = 15 * time.Minute

// Store keeps every media object in one bucket, keyed directly by the
// identifier-derived media key.
type Store struct {
	client  *s3.Client
	bucket  string
	presign *s3.PresignClient
}

// Config holds explicit construction parameters. Production deployments set
// the equivalent environment variables instead.
type Config struct {
	Region    string
	Bucket    string
	Endpoint  string // optional, enables MinIO or another compatible endpoint
	PathStyle bool
}

// Environment variables:
//
//	DENTALATLAS_BLOB_DRIVER=s3
//	DENTALATLAS_BLOB_S3_BUCKET=<bucket> (required)
//	DENTALATLAS_BLOB_S3_REGION=<region> (default us-east-1)
//	DENTALATLAS_BLOB_S3_ENDPOINT=<url> (optional, for MinIO)
//	DENTALATLAS_BLOB_S3_PATH_STYLE=true|false (default false)
//	AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN (optional)

// New creates an S3 media store from Config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Store{client: client, bucket: cfg.Bucket, presign: s3.NewPresignClient(client)}, nil
}

// OpenFromEnv constructs an S3 store from process environment.
func OpenFromEnv(ctx context.Context) (*Store, error) {
	bucket := os.Getenv("DENTALATLAS_BLOB_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("DENTALATLAS_BLOB_S3_BUCKET required for s3 driver")
	}
	return New(ctx, Config{
		Bucket:    bucket,
		Region:    os.Getenv("DENTALATLAS_BLOB_S3_REGION"),
		Endpoint:  os.Getenv("DENTALATLAS_BLOB_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("DENTALATLAS_BLOB_S3_PATH_STYLE"), "true"),
	})
}

func (s *Store) Driver() core.Driver { return core.DriverS3 }

// Put uploads a new object. S3 has no native create-only put for plain
// buckets, so a Stat check enforces it; the record append that follows keeps
// the same key from being derived twice in normal operation.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Object, error) {
	if _, err := s.Stat(ctx, key); err == nil {
		return core.Object{}, fmt.Errorf("media %s already stored", key)
	}
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &key, Body: r}
	if opts.ContentType != "" {
		input.ContentType = &opts.ContentType
	}
	if opts.USID != "" {
		input.Metadata = map[string]string{usidMetadataKey: opts.USID}
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return core.Object{}, err
	}
	return s.Stat(ctx, key)
}

func (s *Store) Open(ctx context.Context, key string) (core.Object, io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return core.Object{}, nil, err
	}
	obj := describe(key, aws.ToInt64(out.ContentLength), out.ContentType, out.ETag, out.Metadata, out.LastModified)
	return obj, out.Body, nil
}

func (s *Store) Stat(ctx context.Context, key string) (core.Object, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return core.Object{}, err
	}
	return describe(key, aws.ToInt64(out.ContentLength), out.ContentType, out.ETag, out.Metadata, out.LastModified), nil
}

// ForRecord lists the bucket under the identifier prefix, then filters to the
// keys actually derived from it: the prefix alone would also match longer
// identifiers that share leading digits.
func (s *Store) ForRecord(ctx context.Context, usid string) ([]core.Object, error) {
	var objects []core.Object
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: &s.bucket, Prefix: &usid, ContinuationToken: token})
		if err != nil {
			return nil, err
		}
		for _, item := range out.Contents {
			key := aws.ToString(item.Key)
			if !core.BelongsTo(key, usid) {
				continue
			}
			objects = append(objects, core.Object{
				Key:      key,
				USID:     usid,
				Size:     aws.ToInt64(item.Size),
				StoredAt: aws.ToTime(item.LastModified),
			})
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// ResolveURL mints a presigned download URL valid for ttl.
func (s *Store) ResolveURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultURLTTL
	}
	out, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key},
		func(po *s3.PresignOptions) { po.Expires = ttl })
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

func describe(key string, size int64, contentType, etag *string, md map[string]string, lastModified *time.Time) core.Object {
	obj := core.Object{
		Key:         key,
		USID:        md[usidMetadataKey],
		Size:        size,
		ContentType: aws.ToString(contentType),
		Checksum:    strings.Trim(aws.ToString(etag), `"`),
		StoredAt:    time.Now().UTC(),
	}
	if lastModified != nil {
		obj.StoredAt = *lastModified
	}
	return obj
}
