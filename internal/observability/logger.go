package observability

import "go.uber.org/zap"

// NewLogger builds the process logger. "json" selects the production encoder,
// anything else the development console encoder.
func NewLogger(format string) (*zap.Logger, error) {
	if format == "json" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
