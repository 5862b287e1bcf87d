package execution

import (
	"fmt"

	"github.com/rileyhilliard/execctx/internal/logger"
)

// SimpleLogging logs every call it forwards. Results are not logged.
type SimpleLogging struct {
	inner Context
	log   logger.Logger
}

// NewSimpleLogging wraps inner (Local when nil) and logs to log (the package
// default logger when nil).
func NewSimpleLogging(inner Context, log logger.Logger) *SimpleLogging {
	if log == nil {
		log = logger.Default()
	}
	return &SimpleLogging{inner: orLocal(inner), log: log}
}

func (s *SimpleLogging) String() string {
	return fmt.Sprintf("SimpleLogging atop %s", describe(s.inner))
}

func (s *SimpleLogging) Start(call Call) (Process, error) {
	s.log.Info("Execution started: %q within environment %v on %s", call.Args, call.Env, describe(s.inner))
	return s.inner.Start(call)
}
