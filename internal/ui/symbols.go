package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess = "✓" // Exit status 0
	SymbolFail    = "✗" // Non-zero exit status
	SymbolSignal  = "⊘" // Killed by a signal
	SymbolArrow   = "→" // State transition
)
