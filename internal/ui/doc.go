// Package ui renders terminal status output with lipgloss: per-line progress, the run summary and the
// history table.
package ui
