package exportdoc

import (
	"context"
	"fmt"

	"github.com/hashicorp-forge/hermes-export/internal/config"
	"github.com/hashicorp-forge/hermes-export/pkg/delivery"
	"github.com/hashicorp-forge/hermes-export/pkg/export"
	"github.com/hashicorp-forge/hermes-export/pkg/resource"
	"github.com/hashicorp-forge/hermes-export/pkg/resource/httpfetch"
	"github.com/hashicorp-forge/hermes-export/pkg/resource/s3fetch"
	"github.com/hashicorp-forge/hermes-export/pkg/s3store"
	"github.com/hashicorp-forge/hermes-export/pkg/serializer/docx"
	"github.com/hashicorp-forge/hermes-export/pkg/serializer/markdown"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
)

// S3Client is the part of the S3 API used for fetching resources and
// uploading artifacts.
type S3Client interface {
	s3fetch.ObjectGetter
	delivery.Putter
}

// S3ClientFactory creates the S3 client from configuration.
type S3ClientFactory func(ctx context.Context, cfg *s3store.Config) (S3Client, error)

func defaultS3Client(ctx context.Context, cfg *s3store.Config) (S3Client, error) {
	client, err := s3store.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// newFetcher routes data:, http(s): and, when an s3 block is configured,
// s3: URLs.
func newFetcher(cfg *config.Config, s3Client S3Client, log hclog.Logger) resource.Fetcher {
	router := resource.NewRouter()

	web := httpfetch.New(*cfg.Fetch, httpfetch.WithLogger(log))
	router.Handle("http", web)
	router.Handle("https", web)

	if s3Client != nil {
		router.Handle("s3", s3fetch.New(s3Client, log))
	}

	return resource.Limit(resource.NewLimiter(cfg.Resolver.RatePerSecond), router)
}

func newExporter(cfg *config.Config, fetcher resource.Fetcher, log hclog.Logger) *export.Exporter {
	resolver := resource.NewResolver(fetcher,
		resource.WithLogger(log),
		resource.WithConcurrency(cfg.Resolver.Concurrency),
		resource.WithTimeout(cfg.Resolver.Timeout()),
		resource.WithMaxBytes(cfg.Resolver.MaxBytes),
	)

	mdOpts := []markdown.Option{markdown.WithLogger(log)}
	if cfg.Markdown.FrontMatter {
		mdOpts = append(mdOpts, markdown.WithFrontMatter(cfg.Markdown.Generator))
	}
	if cfg.Markdown.LooseLists {
		mdOpts = append(mdOpts, markdown.WithLooseLists())
	}

	return export.New(
		export.WithLogger(log),
		export.WithResolver(resolver),
		export.WithSerializer(markdown.New(mdOpts...)),
		export.WithSerializer(docx.New(
			docx.WithLogger(log),
			docx.WithCreator(cfg.Docx.Creator),
			docx.WithHighlightStyle(cfg.Docx.HighlightStyle),
		)),
	)
}

func newSink(cfg *config.Config, fs afero.Fs, dir string, s3Client S3Client, log hclog.Logger) (delivery.Sink, error) {
	switch cfg.Output.Destination {
	case config.DestinationS3:
		if s3Client == nil {
			return nil, fmt.Errorf("s3 output requires an s3 block")
		}
		return delivery.NewS3Sink(s3Client, *cfg.S3, log), nil
	default:
		if dir == "" {
			dir = cfg.Output.Directory
		}
		opts := []delivery.FileSinkOption{delivery.WithFileLogger(log)}
		if cfg.Output.Overwrite {
			opts = append(opts, delivery.WithOverwrite())
		}
		return delivery.NewFileSink(fs, dir, opts...), nil
	}
}
