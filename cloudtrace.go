// Copyright The OpenTelemetry Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//       http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloudtrace // import "go.opentelemetry.io/contrib/exporters/cloudtrace"

import (
	"context"
	"errors"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	tracepb "google.golang.org/genproto/googleapis/devtools/cloudtrace/v2"
)

var (
	errNoProjectID = errors.New("cloudtrace: project id is required")
	errNoClient    = errors.New("cloudtrace: trace client is required")
)

// TraceClient sends converted span batches to the backend. Transport, retry,
// and credential handling live behind this interface; the exporter only
// builds requests.
type TraceClient interface {
	// BatchWriteSpans writes a batch of new spans to the project.
	BatchWriteSpans(ctx context.Context, req *tracepb.BatchWriteSpansRequest) error
	// Close releases the client's underlying connection.
	Close() error
}

// Exporter converts completed spans to Cloud Trace records and writes them
// through a TraceClient. It implements sdktrace.SpanExporter.
type Exporter struct {
	transformer *Transformer
	client      TraceClient
	logger      *zap.Logger
}

var _ sdktrace.SpanExporter = (*Exporter)(nil)

// New returns an Exporter. WithProjectID and WithClient are required.
func New(opts ...Option) (*Exporter, error) {
	cfg := newConfig(opts...)
	if cfg.client == nil {
		return nil, errNoClient
	}
	transformer, err := NewTransformer(opts...)
	if err != nil {
		return nil, err
	}
	return &Exporter{
		transformer: transformer,
		client:      cfg.client,
		logger:      cfg.logger,
	}, nil
}

// ExportSpans converts the batch and issues a single BatchWriteSpans call.
// Conversion itself cannot fail; only the client can.
func (e *Exporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if len(spans) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	pbSpans := make([]*tracepb.Span, 0, len(spans))
	for _, sd := range spans {
		pbSpans = append(pbSpans, e.transformer.Span(sd))
	}
	e.logger.Debug("writing span batch", zap.Int("spans", len(pbSpans)))
	return e.client.BatchWriteSpans(ctx, &tracepb.BatchWriteSpansRequest{
		Name:  "projects/" + e.transformer.projectID,
		Spans: pbSpans,
	})
}

// Shutdown closes the underlying client.
func (e *Exporter) Shutdown(ctx context.Context) error {
	return multierr.Append(e.client.Close(), ctx.Err())
}
