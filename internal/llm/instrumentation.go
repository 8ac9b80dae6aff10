package llm

import "go.opentelemetry.io/otel"

const scopeName = "github.com/NoeFlandre/meeting-report-mistral/internal/llm"

var tracer = otel.Tracer(scopeName)
