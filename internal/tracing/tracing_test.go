// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetup_None(t *testing.T) {
	before := otel.GetTracerProvider()

	for _, exporter := range []string{"", ExporterNone} {
		shutdown, err := Setup(context.Background(), Config{Exporter: exporter})
		require.NoError(t, err)
		assert.NoError(t, shutdown(context.Background()))
	}
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestSetup_Console(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Setup(context.Background(), Config{
		Exporter:       ExporterConsole,
		Writer:         &buf,
		ServiceVersion: "1.2.3",
	})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "console.Attach")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Name": "console.Attach"`)
	assert.Contains(t, out, ServiceName)
	assert.Contains(t, out, "1.2.3")
}

func TestSetup_OTLP(t *testing.T) {
	for _, exporter := range []string{ExporterOTLP, ExporterOTLPHTTP} {
		t.Run(exporter, func(t *testing.T) {
			// Exporters connect lazily, so setup succeeds without a collector.
			shutdown, err := Setup(context.Background(), Config{
				Exporter: exporter,
				Endpoint: "127.0.0.1:1",
				Insecure: true,
			})
			require.NoError(t, err)
			assert.IsType(t, &sdktrace.TracerProvider{}, otel.GetTracerProvider())

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = shutdown(ctx)
		})
	}
}

func TestSetup_UnknownExporter(t *testing.T) {
	_, err := Setup(context.Background(), Config{Exporter: "zipkin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown exporter type: zipkin")
}
