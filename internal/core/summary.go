package core

import (
	"fmt"
	"strings"
)

const (
	Daily   Window = "daily"
	Weekly  Window = "weekly"
	Monthly Window = "monthly"
)

type (
	// Window selects which transactions a dashboard aggregates.
	Window string

	Totals struct {
		Income  float64
		Expense float64
		Balance float64
	}

	// CategoryAmount represents an amount aggregated by category name.
	CategoryAmount struct {
		Name   string
		Amount float64
	}

	// DashboardSummary is what the dashboard renders for one window.
	DashboardSummary struct {
		Window     Window
		Totals     Totals
		ByCategory []CategoryAmount
		Recent     []Transaction
		Count      int
	}

	// GoalStatus is a goal with its derived display values.
	GoalStatus struct {
		Goal      Goal
		Progress  float64
		Remaining float64
	}
)

// ParseWindow accepts the canonical names and the labels shown in the app.
func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "diario":
		return Daily, nil
	case "weekly", "semanal":
		return Weekly, nil
	case "monthly", "mensual", "":
		return Monthly, nil
	}
	return "", fmt.Errorf("unknown window %q", s)
}

// Label returns the name shown on the dashboard tabs.
func (w Window) Label() string {
	switch w {
	case Daily:
		return "Diario"
	case Weekly:
		return "Semanal"
	case Monthly:
		return "Mensual"
	}
	return string(w)
}

func (w Window) Valid() bool {
	return w == Daily || w == Weekly || w == Monthly
}
