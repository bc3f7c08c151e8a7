// Package delivery hands finished export artifacts to their destination.
package delivery

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hashicorp-forge/hermes-export/pkg/export"
	"github.com/hashicorp-forge/hermes-export/pkg/s3store"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
)

// Sink stores an artifact and returns where it was stored.
type Sink interface {
	Deliver(ctx context.Context, a *export.Artifact) (string, error)
}

// FileSink writes artifacts into a directory.
type FileSink struct {
	fs        afero.Fs
	dir       string
	overwrite bool
	logger    hclog.Logger
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite replaces existing files instead of picking a free name.
func WithOverwrite() FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = true
	}
}

// WithFileLogger sets the logger.
func WithFileLogger(l hclog.Logger) FileSinkOption {
	return func(s *FileSink) {
		s.logger = l
	}
}

// NewFileSink returns a sink writing into dir on fs.
func NewFileSink(fs afero.Fs, dir string, opts ...FileSinkOption) *FileSink {
	s := &FileSink{
		fs:     fs,
		dir:    dir,
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("file-sink")
	return s
}

// Deliver implements Sink. Without WithOverwrite an existing file is kept
// and the artifact is written as "<name> (2).<ext>", "<name> (3).<ext>", ...
func (s *FileSink) Deliver(_ context.Context, a *export.Artifact) (string, error) {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating output directory: %w", err)
	}

	name, err := s.target(a.Filename)
	if err != nil {
		return "", err
	}
	if err := afero.WriteFile(s.fs, name, a.Payload, 0o644); err != nil {
		return "", fmt.Errorf("error writing %s: %w", name, err)
	}

	s.logger.Info("artifact written", "path", name, "bytes", len(a.Payload))
	return name, nil
}

func (s *FileSink) target(filename string) (string, error) {
	base := filepath.Base(filename)
	name := filepath.Join(s.dir, base)
	if s.overwrite {
		return name, nil
	}

	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]
	for i := 2; ; i++ {
		exists, err := afero.Exists(s.fs, name)
		if err != nil {
			return "", fmt.Errorf("error checking %s: %w", name, err)
		}
		if !exists {
			return name, nil
		}
		name = filepath.Join(s.dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
}

// Putter is the subset of the S3 client used by S3Sink.
type Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads artifacts to a bucket.
type S3Sink struct {
	client Putter
	cfg    s3store.Config
	logger hclog.Logger
}

// NewS3Sink returns a sink uploading with client into the bucket and prefix
// of cfg.
func NewS3Sink(client Putter, cfg s3store.Config, logger hclog.Logger) *S3Sink {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &S3Sink{client: client, cfg: cfg, logger: logger.Named("s3-sink")}
}

// Deliver implements Sink. The object is keyed by the artifact ID so exports
// of equally named documents never collide; the file name is kept in the
// content disposition.
func (s *S3Sink) Deliver(ctx context.Context, a *export.Artifact) (string, error) {
	key := s.cfg.Key(path.Join(a.ID.String(), a.Filename))
	input := &s3.PutObjectInput{
		Bucket:             aws.String(s.cfg.Bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(a.Payload),
		ContentType:        aws.String(a.MediaType),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", a.Filename)),
		Metadata: map[string]string{
			"format":   string(a.Format),
			"exported": a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		},
	}
	if len(a.Degraded) > 0 {
		input.Metadata["degraded"] = fmt.Sprint(len(a.Degraded))
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to put object to S3: %w", err)
	}

	location := "s3://" + s.cfg.Bucket + "/" + key
	s.logger.Info("artifact uploaded", "location", location, "bytes", len(a.Payload))
	return location, nil
}
