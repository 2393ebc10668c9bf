package config

import (
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/config"

var tracer = otel.Tracer(scopeName)
