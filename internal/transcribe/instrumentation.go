package transcribe

import "go.opentelemetry.io/otel"

const scopeName = "github.com/NoeFlandre/meeting-report-mistral/internal/transcribe"

var tracer = otel.Tracer(scopeName)
