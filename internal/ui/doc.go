// Package ui renders the styled terminal output of the execctx CLI.
//
// Colors are ANSI codes so output stays readable on 16-color terminals:
//
//	ColorSuccess   (green)  - Zero exit status
//	ColorError     (red)    - Failures
//	ColorWarning   (yellow) - Commands killed by a signal
//	ColorInfo      (cyan)   - Host aliases
//	ColorSecondary (blue)   - State transitions
//	ColorMuted     (gray)   - Secondary text
//
// Tables are laid out with lipgloss.Width so ANSI sequences do not skew
// the column widths.
package ui
