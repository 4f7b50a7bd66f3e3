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
	"fmt"
	"math"
	"regexp"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genproto/googleapis/api/monitoredres"
	tracepb "google.golang.org/genproto/googleapis/devtools/cloudtrace/v2"
	codepb "google.golang.org/genproto/googleapis/rpc/code"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// agentLabelKey is the reserved attribute identifying the producing
// instrumentation/exporter pair. Exactly one is attached to every span.
const agentLabelKey = "g.co/agent"

// globalResourceType is the monitored-resource type that stands for "no
// specific resource". It contributes no g.co/r/ labels.
const globalResourceType = "global"

// httpAttributeRenames maps OpenTelemetry HTTP semantic-convention keys to
// their reserved Cloud Trace label names. Keys not listed here pass through
// unchanged.
var httpAttributeRenames = map[attribute.Key]string{
	semconv.HTTPMethodKey:                "/http/method",
	semconv.HTTPURLKey:                   "/http/url",
	semconv.HTTPHostKey:                  "/http/host",
	semconv.HTTPSchemeKey:                "/http/client_protocol",
	semconv.HTTPStatusCodeKey:            "/http/status_code",
	semconv.HTTPUserAgentKey:             "/http/user_agent",
	semconv.HTTPRequestContentLengthKey:  "/http/request/size",
	semconv.HTTPResponseContentLengthKey: "/http/response/size",
	semconv.HTTPRouteKey:                 "/http/route",
}

// MonitoredResourceMapper derives the backend's typed resource descriptor
// from a span's resource. A nil return is treated the same as the "global"
// type. The default is resourcemapping.Map; see WithMonitoredResourceMapper.
type MonitoredResourceMapper func(res *sdkresource.Resource, projectID string) *monitoredres.MonitoredResource

// Transformer converts completed spans into Cloud Trace API v2 span records.
// It captures only read-only configuration and is safe for concurrent use.
type Transformer struct {
	projectID      string
	resourceFilter *regexp.Regexp
	resourceMapper MonitoredResourceMapper
	agentLabel     string
}

// NewTransformer returns a Transformer for the given options. WithProjectID
// is required.
func NewTransformer(opts ...Option) (*Transformer, error) {
	cfg := newConfig(opts...)
	if cfg.projectID == "" {
		return nil, errNoProjectID
	}
	return &Transformer{
		projectID:      cfg.projectID,
		resourceFilter: cfg.resourceFilter,
		resourceMapper: cfg.resourceMapper,
		agentLabel: fmt.Sprintf("opentelemetry-go %s; google-cloud-trace-exporter %s",
			otel.Version(), Version()),
	}, nil
}

// Span converts one completed span. It never fails: attribute values outside
// the backend's value union are dropped and counted, and unknown kind or
// status enumerators map to conservative defaults.
func (t *Transformer) Span(sd sdktrace.ReadOnlySpan) *tracepb.Span {
	sc := sd.SpanContext()
	traceID := sc.TraceID().String()
	spanID := sc.SpanID().String()

	s := &tracepb.Span{
		Name:                    fmt.Sprintf("projects/%s/traces/%s/spans/%s", t.projectID, traceID, spanID),
		SpanId:                  spanID,
		DisplayName:             truncatableString(sd.Name()),
		StartTime:               timestampProto(sd.StartTime()),
		EndTime:                 timestampProto(sd.EndTime()),
		SpanKind:                spanKind(sd.SpanKind()),
		Attributes:              t.spanAttributes(sd),
		TimeEvents:              timeEvents(sd.Events(), sd.DroppedEvents()),
		Links:                   links(sd.Links(), sd.DroppedLinks()),
		Status:                  statusProto(sd.Status()),
		SameProcessAsParentSpan: wrapperspb.Bool(!sd.Parent().IsRemote()),
	}
	if sd.Parent().HasSpanID() {
		s.ParentSpanId = sd.Parent().SpanID().String()
	}
	return s
}

// spanAttributes merges the span's own attributes (with the agent label
// injected before coercion) with resource-derived attributes. On key
// collision the resource-derived value wins; dropped counts are summed, not
// recomputed.
func (t *Transformer) spanAttributes(sd sdktrace.ReadOnlySpan) *tracepb.Span_Attributes {
	kvs := make([]attribute.KeyValue, 0, len(sd.Attributes())+1)
	kvs = append(kvs, sd.Attributes()...)
	kvs = append(kvs, attribute.String(agentLabelKey, t.agentLabel))

	attrs := transformAttributes(kvs)
	resAttrs := t.resourceAttributes(sd.Resource())
	for k, v := range resAttrs.AttributeMap {
		attrs.AttributeMap[k] = v
	}
	attrs.DroppedAttributesCount += resAttrs.DroppedAttributesCount
	attrs.DroppedAttributesCount += int32(sd.DroppedAttributes())
	return attrs
}

// resourceAttributes projects resource identity into span attributes. Keys
// matching the configured filter are copied verbatim; monitored-resource
// labels are folded in under g.co/r/<type>/<label>. The backend trace record
// has no resource field of its own, so this prefix encoding is the only way
// resource identity survives export.
func (t *Transformer) resourceAttributes(res *sdkresource.Resource) *tracepb.Span_Attributes {
	var kvs []attribute.KeyValue
	if t.resourceFilter != nil && res != nil {
		for _, kv := range res.Attributes() {
			if t.resourceFilter.MatchString(string(kv.Key)) {
				kvs = append(kvs, kv)
			}
		}
	}
	if mr := t.resourceMapper(res, t.projectID); mr != nil && mr.GetType() != globalResourceType {
		for k, v := range mr.GetLabels() {
			kvs = append(kvs, attribute.String(fmt.Sprintf("g.co/r/%s/%s", mr.GetType(), k), v))
		}
	}
	return transformAttributes(kvs)
}

// transformAttributes renames well-known keys, coerces values into the
// backend value union, and accounts for everything it could not keep.
// Renaming happens before coercion, so a dropped value under a renamed key
// still counts exactly once.
func transformAttributes(kvs []attribute.KeyValue) *tracepb.Span_Attributes {
	attrMap := make(map[string]*tracepb.AttributeValue, len(kvs))
	for _, kv := range kvs {
		key := string(kv.Key)
		if renamed, ok := httpAttributeRenames[kv.Key]; ok {
			key = renamed
		}
		if v, ok := attributeValue(kv.Value); ok {
			attrMap[key] = v
		}
	}
	return &tracepb.Span_Attributes{
		AttributeMap:           attrMap,
		DroppedAttributesCount: int32(len(kvs) - len(attrMap)),
	}
}

// attributeValue coerces a single value into the backend union. The second
// return reports whether the value is representable; slice and invalid values
// are not.
func attributeValue(v attribute.Value) (*tracepb.AttributeValue, bool) {
	switch v.Type() {
	case attribute.STRING:
		return &tracepb.AttributeValue{
			Value: &tracepb.AttributeValue_StringValue{StringValue: truncatableString(v.AsString())},
		}, true
	case attribute.BOOL:
		return &tracepb.AttributeValue{
			Value: &tracepb.AttributeValue_BoolValue{BoolValue: v.AsBool()},
		}, true
	case attribute.INT64:
		return &tracepb.AttributeValue{
			Value: &tracepb.AttributeValue_IntValue{IntValue: v.AsInt64()},
		}, true
	case attribute.FLOAT64:
		// The backend has no float field. Round to the nearest integer, even
		// when that loses precision.
		return &tracepb.AttributeValue{
			Value: &tracepb.AttributeValue_IntValue{IntValue: int64(math.Round(v.AsFloat64()))},
		}, true
	default:
		return nil, false
	}
}

// truncatableString wraps s without truncating; length limits are enforced
// by the backend.
func truncatableString(s string) *tracepb.TruncatableString {
	return &tracepb.TruncatableString{Value: s}
}

func timestampProto(ts time.Time) *timestamppb.Timestamp {
	return timestamppb.New(ts)
}

// statusProto maps span status onto google.rpc.Status. Unset means no status
// at all. Anything that is not Ok, including status codes unknown to this
// version, maps to UNKNOWN with the original description preserved.
func statusProto(s sdktrace.Status) *statuspb.Status {
	switch s.Code {
	case codes.Unset:
		return nil
	case codes.Ok:
		return &statuspb.Status{Code: int32(codepb.Code_OK)}
	default:
		return &statuspb.Status{Code: int32(codepb.Code_UNKNOWN), Message: s.Description}
	}
}

func spanKind(kind trace.SpanKind) tracepb.Span_SpanKind {
	switch kind {
	case trace.SpanKindInternal:
		return tracepb.Span_INTERNAL
	case trace.SpanKindServer:
		return tracepb.Span_SERVER
	case trace.SpanKindClient:
		return tracepb.Span_CLIENT
	case trace.SpanKindProducer:
		return tracepb.Span_PRODUCER
	case trace.SpanKindConsumer:
		return tracepb.Span_CONSUMER
	default:
		return tracepb.Span_SPAN_KIND_UNSPECIFIED
	}
}

// links builds the output link sequence in input order. Link type inference
// (parent/child) is not attempted.
func links(ls []sdktrace.Link, dropped int) *tracepb.Span_Links {
	if len(ls) == 0 && dropped == 0 {
		return nil
	}
	out := make([]*tracepb.Span_Link, 0, len(ls))
	for _, l := range ls {
		attrs := transformAttributes(l.Attributes)
		attrs.DroppedAttributesCount += int32(l.DroppedAttributeCount)
		out = append(out, &tracepb.Span_Link{
			TraceId:    l.SpanContext.TraceID().String(),
			SpanId:     l.SpanContext.SpanID().String(),
			Type:       tracepb.Span_Link_TYPE_UNSPECIFIED,
			Attributes: attrs,
		})
	}
	return &tracepb.Span_Links{
		Link:              out,
		DroppedLinksCount: int32(dropped),
	}
}

// timeEvents builds the output annotation sequence in input order.
func timeEvents(events []sdktrace.Event, dropped int) *tracepb.Span_TimeEvents {
	if len(events) == 0 && dropped == 0 {
		return nil
	}
	out := make([]*tracepb.Span_TimeEvent, 0, len(events))
	for _, e := range events {
		attrs := transformAttributes(e.Attributes)
		attrs.DroppedAttributesCount += int32(e.DroppedAttributeCount)
		out = append(out, &tracepb.Span_TimeEvent{
			Time: timestampProto(e.Time),
			Value: &tracepb.Span_TimeEvent_Annotation_{
				Annotation: &tracepb.Span_TimeEvent_Annotation{
					Description: truncatableString(e.Name),
					Attributes:  attrs,
				},
			},
		})
	}
	return &tracepb.Span_TimeEvents{
		TimeEvent:               out,
		DroppedAnnotationsCount: int32(dropped),
	}
}
