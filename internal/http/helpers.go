package http

import (
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"stepqueen/internal/core"
	"stepqueen/internal/services"
)

// formatSteps renders a step count with thousands separators (e.g. "12,345").
func formatSteps(n int64) string {
	return humanize.Comma(n)
}

// formatMonth renders a month label such as "June 2024".
func formatMonth(ym core.YearMonth) string {
	return fmt.Sprintf("%s %d", ym.Month, ym.Year)
}

// templateFuncs are available to every page and partial.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"steps":    formatSteps,
		"month":    formatMonth,
		"monthNum": func(ym core.YearMonth) int { return int(ym.Month) },
	}
}

// isInputError reports whether err was caused by the submitted values rather
// than the record store.
func isInputError(err error) bool {
	for _, target := range []error{
		services.ErrUnknownParticipant,
		core.ErrZeroDate,
		core.ErrEmptyPerson,
		core.ErrNegativeSteps,
		core.ErrInvalidSteps,
		core.ErrInvalidDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// inputErrorMessage maps a validation error to a user-facing message.
func inputErrorMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrUnknownParticipant):
		return "Unknown participant"
	case errors.Is(err, core.ErrInvalidDate), errors.Is(err, core.ErrZeroDate):
		return "Invalid date"
	case errors.Is(err, core.ErrEmptyPerson):
		return "Pick a participant"
	case errors.Is(err, core.ErrNegativeSteps):
		return "Steps cannot be negative"
	default:
		return "Invalid step count"
	}
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	return "req_" + uuid.NewString()
}
