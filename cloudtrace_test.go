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

package cloudtrace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	tracepb "google.golang.org/genproto/googleapis/devtools/cloudtrace/v2"
)

type fakeClient struct {
	requests []*tracepb.BatchWriteSpansRequest
	writeErr error
	closed   bool
}

func (c *fakeClient) BatchWriteSpans(_ context.Context, req *tracepb.BatchWriteSpansRequest) error {
	c.requests = append(c.requests, req)
	return c.writeErr
}

func (c *fakeClient) Close() error {
	c.closed = true
	return nil
}

func testSpans(t *testing.T, n int) []sdktrace.ReadOnlySpan {
	t.Helper()
	spans := make([]sdktrace.ReadOnlySpan, 0, n)
	for i := 0; i < n; i++ {
		stub := tracetest.SpanStub{
			Name:        "span",
			SpanContext: spanContext(t, "2dd5f1f2f6eb1b2fa4ddeb4b4bb63034", "53995c3f42cd8ad8"),
		}
		spans = append(spans, stub.Snapshot())
	}
	return spans
}

func TestNewValidation(t *testing.T) {
	_, err := New(WithProjectID("project-id"))
	assert.ErrorIs(t, err, errNoClient)

	_, err = New(WithClient(&fakeClient{}))
	assert.ErrorIs(t, err, errNoProjectID)

	_, err = NewTransformer()
	assert.ErrorIs(t, err, errNoProjectID)
}

func TestExportSpans(t *testing.T) {
	client := &fakeClient{}
	exporter, err := New(WithProjectID("project-id"), WithClient(client))
	require.NoError(t, err)

	require.NoError(t, exporter.ExportSpans(context.Background(), testSpans(t, 3)))

	require.Len(t, client.requests, 1)
	assert.Equal(t, "projects/project-id", client.requests[0].Name)
	assert.Len(t, client.requests[0].Spans, 3)
}

func TestExportSpansEmptyBatch(t *testing.T) {
	client := &fakeClient{}
	exporter, err := New(WithProjectID("project-id"), WithClient(client))
	require.NoError(t, err)

	require.NoError(t, exporter.ExportSpans(context.Background(), nil))
	assert.Empty(t, client.requests)
}

func TestExportSpansCanceledContext(t *testing.T) {
	client := &fakeClient{}
	exporter, err := New(WithProjectID("project-id"), WithClient(client))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, exporter.ExportSpans(ctx, testSpans(t, 1)), context.Canceled)
	assert.Empty(t, client.requests)
}

func TestShutdown(t *testing.T) {
	client := &fakeClient{}
	exporter, err := New(WithProjectID("project-id"), WithClient(client))
	require.NoError(t, err)

	require.NoError(t, exporter.Shutdown(context.Background()))
	assert.True(t, client.closed)
}
