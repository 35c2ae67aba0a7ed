// Package s3bucket loads tabular objects (CSV or XLSX) from Amazon S3 into a
// table.Table for hydration.
package s3bucket

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hengadev/hydrx"
	"github.com/hengadev/hydrx/internal/reliability"
	"github.com/hengadev/hydrx/providers/table"
	"github.com/hengadev/hydrx/providers/xlsx"
)

var ErrInvalidURI = errors.New("invalid s3 uri")

// AWSS3Downloader defines the method used to download from S3
type AWSS3Downloader interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Option configures a Source.
type Option func(*Source)

// WithTableOptions passes options to every table the source loads.
func WithTableOptions(opts ...table.Option) Option {
	return func(s *Source) { s.tableOpts = append(s.tableOpts, opts...) }
}

// WithCSVOptions configures the CSV reader.
func WithCSVOptions(opts ...table.CSVOption) Option {
	return func(s *Source) { s.csvOpts = append(s.csvOpts, opts...) }
}

// WithSheet selects the worksheet read from XLSX objects. Default: the first sheet.
func WithSheet(name string) Option {
	return func(s *Source) { s.sheet = name }
}

// WithRetry sets how many times a download is attempted. Transient
// failures are retried with exponential backoff starting at delay.
// attempts of 1 disables retries.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(s *Source) {
		s.retry.MaxAttempts = attempts
		s.retry.InitialDelay = delay
	}
}

// Source reads objects from one bucket.
type Source struct {
	client    AWSS3Downloader
	bucket    string
	sheet     string
	csvOpts   []table.CSVOption
	tableOpts []table.Option
	retry     reliability.RetryConfig
}

func New(client AWSS3Downloader, bucket string, opts ...Option) *Source {
	s := &Source{client: client, bucket: bucket, retry: reliability.DefaultRetryConfig()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewClientFromDefaultConfig builds an S3 client from the default AWS
// credential chain (environment, shared config, instance role).
func NewClientFromDefaultConfig(ctx context.Context, optFns ...func(*config.LoadOptions) error) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Load downloads key and parses it. Keys ending in .xlsx are read as
// workbooks; anything else as CSV with a header row.
func (s *Source) Load(ctx context.Context, key string) (*table.Table, error) {
	body, err := reliability.Value(ctx, s.retry, func(ctx context.Context) ([]byte, error) {
		return s.download(ctx, key)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, key, err)
	}

	var t *table.Table
	if strings.EqualFold(pathExt(key), ".xlsx") {
		t, err = xlsx.Read(bytes.NewReader(body), s.sheet, s.tableOpts...)
	} else {
		t, err = table.FromCSV(bytes.NewReader(body), s.csvOpts, s.tableOpts...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse s3://%s/%s: %w", s.bucket, key, err)
	}
	return t, nil
}

// download reads the whole object so that a body cut off mid-stream is
// retried along with the request.
func (s *Source) download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Hydrate loads key and builds one T per row.
func Hydrate[T any](ctx context.Context, e *hydrx.Engine[T], s *Source, key string, opts ...hydrx.CallOption) ([]*T, error) {
	t, err := s.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return table.Hydrate(e, t, append([]hydrx.CallOption{hydrx.WithContext(ctx)}, opts...)...)
}

// ParseURI splits s3://bucket/key.
func ParseURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q must start with s3://", ErrInvalidURI, uri)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q must be s3://bucket/key", ErrInvalidURI, uri)
	}
	return bucket, key, nil
}

func pathExt(key string) string {
	i := strings.LastIndexByte(key, '.')
	if i < 0 || strings.Contains(key[i:], "/") {
		return ""
	}
	return key[i:]
}

