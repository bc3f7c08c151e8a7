// Package export orchestrates one document export: it validates the request
// and the tree, resolves the resources the target format embeds, runs the
// format's serializer and packages the result as an Artifact.
//
// An Exporter holds no per-export state and may be used concurrently.
// Every export gets its own resource cache, which is discarded once the
// artifact has been produced. Exports are never retried.
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/hashicorp-forge/hermes-export/pkg/doctree"
	"github.com/hashicorp-forge/hermes-export/pkg/exporterr"
	"github.com/hashicorp-forge/hermes-export/pkg/resource"
	"github.com/hashicorp-forge/hermes-export/pkg/serializer"
	"github.com/hashicorp-forge/hermes-export/pkg/serializer/docx"
	"github.com/hashicorp-forge/hermes-export/pkg/serializer/jsondoc"
	"github.com/hashicorp-forge/hermes-export/pkg/serializer/markdown"
	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/hashicorp-forge/hermes-export/pkg/export"

// State is the lifecycle state of one export.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateEmitting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateEmitting:
		return "emitting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Observer is notified of every state an export enters.
type Observer func(State)

// Resolver resolves the resources of one export.
type Resolver interface {
	ResolveAll(ctx context.Context, urls []string) (*resource.Cache, error)
}

// Request describes one export.
type Request struct {
	// Tree is the document to export.
	Tree *doctree.Node

	// Format is the target format or one of its aliases.
	Format Format

	// Title overrides the title taken from the document.
	Title string
}

// Validate checks that the request is complete.
func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Tree, validation.Required),
		validation.Field(&r.Format, validation.Required),
		validation.Field(&r.Title, validation.Length(0, 1024)),
	)
}

// Exporter runs exports.
type Exporter struct {
	logger      hclog.Logger
	resolver    Resolver
	serializers map[Format]serializer.Serializer
	now         func() time.Time
	tracer      trace.Tracer
	observer    Observer
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(e *Exporter) {
		e.logger = l
	}
}

// WithResolver sets the resource resolver. The default only resolves data
// URLs.
func WithResolver(r Resolver) Option {
	return func(e *Exporter) {
		e.resolver = r
	}
}

// WithSerializer registers s under its format name, replacing the built-in
// serializer of that format.
func WithSerializer(s serializer.Serializer) Option {
	return func(e *Exporter) {
		e.serializers[Canonical(Format(s.Format()))] = s
	}
}

// WithClock sets the source of export timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		e.now = now
	}
}

// WithTracer sets the tracer. The default comes from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Exporter) {
		e.tracer = t
	}
}

// WithObserver sets a function notified of state transitions.
func WithObserver(o Observer) Option {
	return func(e *Exporter) {
		e.observer = o
	}
}

// New returns an Exporter with the built-in Markdown, JSON and docx
// serializers.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		logger:      hclog.NewNullLogger(),
		serializers: make(map[Format]serializer.Serializer),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("export")

	if _, ok := e.serializers[FormatMarkdown]; !ok {
		e.serializers[FormatMarkdown] = markdown.New(markdown.WithLogger(e.logger))
	}
	if _, ok := e.serializers[FormatJSON]; !ok {
		e.serializers[FormatJSON] = jsondoc.New(jsondoc.WithLogger(e.logger))
	}
	if _, ok := e.serializers[FormatDocx]; !ok {
		e.serializers[FormatDocx] = docx.New(docx.WithLogger(e.logger))
	}
	if e.resolver == nil {
		e.resolver = resource.NewResolver(resource.NewRouter(), resource.WithLogger(e.logger))
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(instrumentationName)
	}
	return e
}

// Supports reports whether f (or the format it aliases) has a serializer.
func (e *Exporter) Supports(f Format) bool {
	_, ok := e.serializers[Canonical(f)]
	return ok
}

// Check reports whether tree is well formed and every node and mark in it
// can be represented in format, without producing output.
func (e *Exporter) Check(tree *doctree.Node, format Format) error {
	ser, ok := e.serializers[Canonical(format)]
	if !ok {
		return exporterr.New("Check", exporterr.ErrUnsupportedFormat, fmt.Sprintf("unknown format %q", format))
	}
	if err := doctree.Validate(tree); err != nil {
		return err
	}
	return ser.Check(tree)
}

// Export converts req.Tree into req.Format.
//
// Errors carry one of the exporterr kinds: ErrInvalidRequest,
// ErrUnsupportedFormat, ErrMalformedTree, ErrUnsupportedNodeType,
// ErrPackageWriteFailure or ErrCanceled. Unavailable resources never fail an
// export; they are listed in Artifact.Degraded.
func (e *Exporter) Export(ctx context.Context, req Request) (*Artifact, error) {
	format := Canonical(req.Format)
	ctx, span := e.tracer.Start(ctx, "export", trace.WithAttributes(
		attribute.String("export.format", string(format)),
	))
	defer span.End()

	r := &run{exporter: e, logger: e.logger.With("format", format)}
	r.enter(StateIdle)

	artifact, err := r.export(ctx, req, format)
	if err != nil {
		r.enter(StateFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("export failed", "error", err)
		return nil, err
	}

	r.enter(StateDone)
	span.SetAttributes(
		attribute.Int("export.bytes", len(artifact.Payload)),
		attribute.Int("export.degraded", len(artifact.Degraded)),
	)
	r.logger.Info("export complete",
		"id", artifact.ID,
		"filename", artifact.Filename,
		"bytes", len(artifact.Payload),
		"degraded", len(artifact.Degraded),
	)
	return artifact, nil
}

// run is the state of a single export.
type run struct {
	exporter *Exporter
	logger   hclog.Logger
	state    State
}

func (r *run) enter(s State) {
	r.state = s
	r.logger.Trace("export state", "state", s)
	if r.exporter.observer != nil {
		r.exporter.observer(s)
	}
}

func (r *run) export(ctx context.Context, req Request, format Format) (*Artifact, error) {
	e := r.exporter

	if err := req.Validate(); err != nil {
		return nil, &exporterr.Error{Op: "Export", Kind: exporterr.ErrInvalidRequest, Err: err}
	}
	ser, ok := e.serializers[format]
	if !ok {
		return nil, exporterr.New("Export", exporterr.ErrUnsupportedFormat, fmt.Sprintf("unknown format %q", req.Format))
	}
	if err := doctree.Validate(req.Tree); err != nil {
		return nil, err
	}
	if err := ser.Check(req.Tree); err != nil {
		r.logger.Error("document contains a type the format cannot represent", "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, exporterr.Wrap("Export", exporterr.ErrCanceled, err)
	}

	var lookup resource.Lookup
	cache := resource.NewCache()
	if collector, ok := ser.(serializer.ResourceCollector); ok {
		r.enter(StateResolving)
		resolved, err := r.resolve(ctx, collector.Resources(req.Tree))
		if err != nil {
			return nil, err
		}
		if resolved != nil {
			cache = resolved
		}
		lookup = cache
	}
	defer cache.Clear()

	r.enter(StateEmitting)
	created := e.now().UTC()
	title := resolveTitle(req)

	_, span := e.tracer.Start(ctx, "export.emit")
	payload, err := ser.Serialize(serializer.Input{
		Root:      req.Tree,
		Title:     title,
		Created:   created,
		Resources: lookup,
	})
	span.End()
	if err != nil {
		return nil, err
	}

	return &Artifact{
		ID:        uuid.New(),
		Format:    format,
		Payload:   payload,
		Filename:  Filename(title, format),
		MediaType: format.MediaType(),
		Degraded:  cache.Failed(),
		CreatedAt: created,
	}, nil
}

func (r *run) resolve(ctx context.Context, urls []string) (*resource.Cache, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	ctx, span := r.exporter.tracer.Start(ctx, "export.resolve", trace.WithAttributes(
		attribute.Int("export.resources", len(urls)),
	))
	defer span.End()

	cache, err := r.exporter.resolver.ResolveAll(ctx, urls)
	if err != nil {
		span.RecordError(err)
		if ctx.Err() != nil {
			return nil, exporterr.Wrap("Export", exporterr.ErrCanceled, err)
		}
		return nil, exporterr.Wrap("Export", exporterr.ErrResourceFetch, err)
	}
	return cache, nil
}

// resolveTitle returns the request title, else the text of the first title
// node, else DefaultTitle.
func resolveTitle(req Request) string {
	if t := strings.TrimSpace(req.Title); t != "" {
		return t
	}
	if n := doctree.FirstOfType(req.Tree, doctree.TypeTitle); n != nil {
		if t := strings.TrimSpace(n.TextContent()); t != "" {
			return t
		}
	}
	return DefaultTitle
}
