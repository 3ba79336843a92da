package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"growly/internal/core"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func displayDate(t core.Transaction) string {
	ts, err := t.Time()
	if err != nil {
		return t.Date
	}
	return ts.Local().Format("02/01/2006 15:04")
}

func methodLabel(m core.PaymentMethod) string {
	for _, opt := range core.PaymentOptions() {
		if opt.Method == m {
			return opt.Icon + " " + opt.Label
		}
	}
	return string(m)
}

func renderTransactions(w io.Writer, txs []core.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(w, "No hay movimientos registrados.")
		return
	}
	tw := newTable(w)
	for _, t := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", displayDate(t), t.Category, core.FormatSigned(t), methodLabel(t.PaymentMethod), t.Note)
	}
	tw.Flush()
}

func renderDashboard(w io.Writer, sum core.DashboardSummary) {
	fmt.Fprintf(w, "Resumen %s\n\n", sum.Window.Label())

	tw := newTable(w)
	fmt.Fprintf(tw, "  Ingresos\t%s\n", core.FormatAmount(sum.Totals.Income))
	fmt.Fprintf(tw, "  Gastos\t%s\n", core.FormatAmount(sum.Totals.Expense))
	fmt.Fprintf(tw, "  Balance\t%s\n", core.FormatAmount(sum.Totals.Balance))
	tw.Flush()

	if len(sum.ByCategory) > 0 {
		fmt.Fprintln(w, "\nGastos por categoría")
		tw = newTable(w)
		for i, c := range sum.ByCategory {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", c.Name, core.FormatAmount(c.Amount), core.ColorAt(i))
		}
		tw.Flush()
	}

	fmt.Fprintln(w, "\nMovimientos recientes")
	renderTransactions(w, sum.Recent)
}

func renderGoals(w io.Writer, goals []core.GoalStatus) {
	if len(goals) == 0 {
		fmt.Fprintln(w, "Aún no tienes metas.")
		return
	}
	tw := newTable(w)
	for _, s := range goals {
		fmt.Fprintf(tw, "%s\t%s\t%s / %s\t%.0f%%\tFalta %s\n",
			s.Goal.ID, s.Goal.Name,
			core.FormatAmount(s.Goal.CurrentAmount), core.FormatAmount(s.Goal.TargetAmount),
			s.Progress, core.FormatAmount(s.Remaining))
	}
	tw.Flush()
}
