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
	"regexp"

	"go.uber.org/zap"

	"go.opentelemetry.io/contrib/exporters/cloudtrace/internal/resourcemapping"
)

// config holds construction-time settings. It is fixed once New or
// NewTransformer returns and never mutated per call.
type config struct {
	projectID      string
	resourceFilter *regexp.Regexp
	resourceMapper MonitoredResourceMapper
	client         TraceClient
	logger         *zap.Logger
}

// Option configures the exporter or a standalone Transformer.
type Option func(*config)

func newConfig(opts ...Option) config {
	cfg := config{
		resourceMapper: resourcemapping.Map,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithProjectID sets the Google Cloud project the spans are written to. It
// is required.
func WithProjectID(projectID string) Option {
	return func(cfg *config) {
		cfg.projectID = projectID
	}
}

// WithResourceAttributeFilter copies resource attributes whose key matches
// the pattern onto every exported span, in addition to the monitored-resource
// labels that are always attached.
func WithResourceAttributeFilter(filter *regexp.Regexp) Option {
	return func(cfg *config) {
		cfg.resourceFilter = filter
	}
}

// WithMonitoredResourceMapper replaces the default monitored-resource
// derivation. The mapper is consulted once per span; returning a resource of
// type "global" (or nil) attaches no g.co/r/ labels.
func WithMonitoredResourceMapper(mapper MonitoredResourceMapper) Option {
	return func(cfg *config) {
		cfg.resourceMapper = mapper
	}
}

// WithClient sets the client used to send converted spans. It is required
// for New; NewTransformer ignores it.
func WithClient(client TraceClient) Option {
	return func(cfg *config) {
		cfg.client = client
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}
