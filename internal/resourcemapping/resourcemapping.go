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

// Package resourcemapping derives Google Cloud monitored resources from
// OpenTelemetry resource attributes.
package resourcemapping // import "go.opentelemetry.io/contrib/exporters/cloudtrace/internal/resourcemapping"

import (
	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"google.golang.org/genproto/googleapis/api/monitoredres"
)

// globalType is the monitored-resource type used when nothing more specific
// can be derived.
const globalType = "global"

const projectIDLabel = "project_id"

type labelMapping struct {
	key      attribute.Key
	label    string
	optional bool
}

// resourceMapping declares one candidate monitored-resource type. A mapping
// applies when the provider guard and every non-optional label key are
// present.
type resourceMapping struct {
	resourceType string
	// required value of cloud.provider; empty means any
	provider string
	labels   []labelMapping
}

// mappings is evaluated in order, first match wins, so more specific types
// come first.
var mappings = []resourceMapping{
	{
		resourceType: "k8s_container",
		provider:     semconv.CloudProviderGCP.Value.AsString(),
		labels: []labelMapping{
			{key: semconv.CloudAvailabilityZoneKey, label: "location", optional: true},
			{key: semconv.K8SClusterNameKey, label: "cluster_name"},
			{key: semconv.K8SNamespaceNameKey, label: "namespace_name"},
			{key: semconv.K8SPodNameKey, label: "pod_name"},
			{key: semconv.ContainerNameKey, label: "container_name"},
		},
	},
	{
		resourceType: "gce_instance",
		provider:     semconv.CloudProviderGCP.Value.AsString(),
		labels: []labelMapping{
			{key: semconv.HostIDKey, label: "instance_id"},
			{key: semconv.CloudAvailabilityZoneKey, label: "zone"},
		},
	},
	{
		resourceType: "aws_ec2_instance",
		provider:     semconv.CloudProviderAWS.Value.AsString(),
		labels: []labelMapping{
			{key: semconv.HostIDKey, label: "instance_id"},
			{key: semconv.CloudRegionKey, label: "region"},
			{key: semconv.CloudAccountIDKey, label: "aws_account"},
		},
	},
	{
		resourceType: "generic_task",
		labels: []labelMapping{
			{key: semconv.ServiceNamespaceKey, label: "namespace", optional: true},
			{key: semconv.ServiceNameKey, label: "job"},
			{key: semconv.ServiceInstanceIDKey, label: "task_id"},
			{key: semconv.CloudAvailabilityZoneKey, label: "location", optional: true},
		},
	},
}

// Map derives the monitored resource for res. Every derived resource carries
// a project_id label; when no mapping applies the result has the global type.
func Map(res *sdkresource.Resource, projectID string) *monitoredres.MonitoredResource {
	attrs := attributeStrings(res)
	for _, m := range mappings {
		if m.provider != "" && attrs[string(semconv.CloudProviderKey)] != m.provider {
			continue
		}
		labels, ok := deriveLabels(m, attrs, projectID)
		if !ok {
			continue
		}
		return &monitoredres.MonitoredResource{Type: m.resourceType, Labels: labels}
	}
	return &monitoredres.MonitoredResource{
		Type:   globalType,
		Labels: map[string]string{projectIDLabel: projectID},
	}
}

func deriveLabels(m resourceMapping, attrs map[string]string, projectID string) (map[string]string, bool) {
	labels := map[string]string{projectIDLabel: projectID}
	for _, lm := range m.labels {
		v, ok := attrs[string(lm.key)]
		if !ok {
			if lm.optional {
				continue
			}
			return nil, false
		}
		labels[lm.label] = v
	}
	return labels, true
}

func attributeStrings(res *sdkresource.Resource) map[string]string {
	if res == nil {
		return nil
	}
	kvs := res.Attributes()
	attrs := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	return attrs
}
