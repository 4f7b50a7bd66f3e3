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

// Package cloudtrace converts completed OpenTelemetry spans into Google
// Cloud Trace API v2 span records and hands them to a span-sending client.
//
// The conversion renames well-known HTTP semantic-convention attribute keys
// into the Cloud Trace label namespace, coerces attribute values into the
// backend's closed value union (string, int, bool), folds resource identity
// into span attributes under the g.co/r/ key prefix, and maps span kind and
// status onto the backend enumerations. Attribute values the backend cannot
// represent are dropped and counted, never rejected: the transform path
// returns no errors for any input span.
//
// Transport, authentication, and batching are out of scope; callers supply a
// TraceClient and typically register the Exporter with a batching span
// processor from the SDK.
package cloudtrace // import "go.opentelemetry.io/contrib/exporters/cloudtrace"
