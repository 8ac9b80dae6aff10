package pipeline

import "go.opentelemetry.io/otel"

const scopeName = "github.com/NoeFlandre/meeting-report-mistral/internal/pipeline"

var tracer = otel.Tracer(scopeName)
