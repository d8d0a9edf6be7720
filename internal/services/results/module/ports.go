package module

import "github.com/ferroh-aws/transcribe-comprehend/internal/services/results/domain"

// Ports exposes the ingestion entrypoint to other triggers
type Ports struct {
	Handler domain.HandlerPort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Handler returns the ingestion port for direct callers such as the replay command
func (m *Module) Handler() domain.HandlerPort { return m.ports.Handler }
