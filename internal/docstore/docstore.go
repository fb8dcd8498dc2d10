// Package docstore reads result documents from the Ceph (S3 compatible)
// bucket the Thoth components write to.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var ErrNotFound = errors.New("document not found")

// API is the subset of the S3 client the store needs.
type API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Options struct {
	Endpoint     string
	Region       string
	Bucket       string
	BucketPrefix string
	Deployment   string
	AccessKey    string
	SecretKey    string
}

type Store struct {
	client API
	opts   Options
}

// New builds a store on a path-style S3 client for the configured endpoint.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("missing document bucket")
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if opts.AccessKey != "" || opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = true
	})
	return NewWithClient(client, opts), nil
}

func NewWithClient(client API, opts Options) *Store {
	return &Store{client: client, opts: opts}
}

// KeyPrefix returns the key prefix holding documents stored under prefix.
func (s *Store) KeyPrefix(prefix string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.opts.BucketPrefix, s.opts.Deployment, prefix} {
		if p = strings.Trim(p, "/"); p != "" {
			parts = append(parts, p)
		}
	}
	return path.Join(parts...) + "/"
}

// ListDocumentIDs returns the ids of all documents directly under prefix,
// in the order the bucket lists them.
func (s *Store) ListDocumentIDs(ctx context.Context, prefix string) ([]string, error) {
	keyPrefix := s.KeyPrefix(prefix)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.opts.Bucket),
		Prefix:    aws.String(keyPrefix),
		Delimiter: aws.String("/"),
	})

	var ids []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", keyPrefix, err)
		}
		for _, obj := range page.Contents {
			id := strings.TrimPrefix(aws.ToString(obj.Key), keyPrefix)
			if id == "" || strings.Contains(id, "/") {
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Store) RetrieveDocument(ctx context.Context, prefix, documentID string) ([]byte, error) {
	key := s.KeyPrefix(prefix) + documentID
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
