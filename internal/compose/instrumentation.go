package compose

import "go.opentelemetry.io/otel"

const scopeName = "github.com/NoeFlandre/meeting-report-mistral/internal/compose"

var tracer = otel.Tracer(scopeName)
