package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"growly/internal/core"
	"growly/internal/persistence"
	"growly/internal/services"
)

var errUsage = errors.New("usage")

type app struct {
	svc       *services.BudgetService
	in        io.Reader
	out       io.Writer
	backupDir string
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage(a.out)
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "add":
		return a.add(ctx, rest)
	case "list":
		return a.list(rest)
	case "dashboard":
		return a.dashboard(ctx, rest)
	case "goal":
		return a.goal(ctx, rest)
	case "categories":
		return a.categories(rest)
	case "export":
		return a.export(ctx, rest)
	case "import":
		return a.importFile(ctx, rest)
	case "help", "-h", "--help":
		usage(a.out)
		return nil
	default:
		usage(a.out)
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: growly <command> [flags]

Commands:
  add         -type expense|income -amount 12,50 -category Alimentos -method Yape [-note texto]
  list        [-n 20]
  dashboard   [-window daily|weekly|monthly]
  goal add    -name Viaje -target 1000 [-current 0] [-color #10b981]
  goal edit   <id> [-name ...] [-target ...] [-current ...] [-color ...]
  goal delete <id>
  goal list
  categories  [-type expense|income]
  export      [-dir ./backups]
  import      [-yes] <file>
`)
}

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := a.newFlagSet("add")
	typ := fs.String("type", "expense", "expense or income")
	amount := fs.String("amount", "", "amount, comma or dot decimals")
	category := fs.String("category", "", "category name")
	method := fs.String("method", string(core.Cash), "payment method")
	note := fs.String("note", "", "optional note")
	if err := fs.Parse(args); err != nil {
		return err
	}

	t, err := parseType(*typ)
	if err != nil {
		return err
	}
	value, err := core.ParseAmount(*amount)
	if err != nil {
		return fmt.Errorf("amount %q: %w", *amount, err)
	}
	m, err := parseMethod(*method)
	if err != nil {
		return err
	}

	tx, err := a.svc.RecordTransaction(ctx, core.TransactionInput{
		Type:          t,
		Amount:        value,
		Category:      matchCategory(t, *category),
		Note:          *note,
		PaymentMethod: m,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registrado: %s %s (%s)\n", tx.Category, core.FormatSigned(tx), tx.ID)
	return nil
}

func (a *app) list(args []string) error {
	fs := a.newFlagSet("list")
	n := fs.Int("n", 0, "show only the latest n transactions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	txs := a.svc.Transactions()
	if *n > 0 {
		txs = core.Recent(txs, *n)
	}
	renderTransactions(a.out, txs)
	return nil
}

func (a *app) dashboard(ctx context.Context, args []string) error {
	fs := a.newFlagSet("dashboard")
	window := fs.String("window", string(core.Monthly), "daily, weekly or monthly")
	if err := fs.Parse(args); err != nil {
		return err
	}
	w, err := core.ParseWindow(*window)
	if err != nil {
		return err
	}
	sum, err := a.svc.Dashboard(ctx, w)
	if err != nil {
		return err
	}
	renderDashboard(a.out, sum)
	return nil
}

func (a *app) goal(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage(a.out)
		return errUsage
	}
	switch args[0] {
	case "add":
		return a.goalAdd(ctx, args[1:])
	case "edit":
		return a.goalEdit(ctx, args[1:])
	case "delete", "rm":
		if len(args) != 2 {
			return fmt.Errorf("%w: goal delete <id>", errUsage)
		}
		if err := a.svc.RemoveGoal(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Meta eliminada.")
		return nil
	case "list":
		renderGoals(a.out, a.svc.GoalStatuses())
		return nil
	default:
		return fmt.Errorf("%w: unknown goal command %q", errUsage, args[0])
	}
}

type goalFlags struct {
	fs      *flag.FlagSet
	name    *string
	target  *string
	current *string
	color   *string
}

func (a *app) goalFlagSet(name string) goalFlags {
	fs := a.newFlagSet(name)
	return goalFlags{
		fs:      fs,
		name:    fs.String("name", "", "goal name"),
		target:  fs.String("target", "", "target amount"),
		current: fs.String("current", "0", "amount saved so far"),
		color:   fs.String("color", "", "palette color"),
	}
}

func (a *app) goalAdd(ctx context.Context, args []string) error {
	f := a.goalFlagSet("goal add")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	target, err := core.ParseAmount(*f.target)
	if err != nil {
		return fmt.Errorf("target %q: %w", *f.target, core.ErrInvalidTarget)
	}
	current, err := parseSaved(*f.current)
	if err != nil {
		return err
	}
	g, err := a.svc.CreateGoal(ctx, core.GoalInput{
		Name:          *f.name,
		TargetAmount:  target,
		CurrentAmount: current,
		Color:         *f.color,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Meta creada: %s (%s)\n", g.Name, g.ID)
	return nil
}

// goalEdit changes only the flags given; the rest keep their stored values.
func (a *app) goalEdit(ctx context.Context, args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return fmt.Errorf("%w: goal edit <id> [flags]", errUsage)
	}
	id := args[0]
	existing, ok := a.svc.Goal(id)
	if !ok {
		return fmt.Errorf("%w: %s", services.ErrGoalNotFound, id)
	}

	f := a.goalFlagSet("goal edit")
	if err := f.fs.Parse(args[1:]); err != nil {
		return err
	}
	in := core.GoalInput{
		Name:          existing.Name,
		TargetAmount:  existing.TargetAmount,
		CurrentAmount: existing.CurrentAmount,
		Color:         existing.Color,
	}

	var err error
	f.fs.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "name":
			in.Name = *f.name
		case "color":
			in.Color = *f.color
		case "target":
			if in.TargetAmount, err = core.ParseAmount(*f.target); err != nil {
				err = fmt.Errorf("target %q: %w", *f.target, core.ErrInvalidTarget)
			}
		case "current":
			in.CurrentAmount, err = parseSaved(*f.current)
		}
	})
	if err != nil {
		return err
	}

	g, err := a.svc.EditGoal(ctx, id, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Meta actualizada: %s\n", g.Name)
	return nil
}

func (a *app) categories(args []string) error {
	fs := a.newFlagSet("categories")
	typ := fs.String("type", "expense", "expense or income")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, err := parseType(*typ)
	if err != nil {
		return err
	}
	for _, c := range core.Categories(t) {
		fmt.Fprintln(a.out, c)
	}
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := a.newFlagSet("export")
	dir := fs.String("dir", a.backupDir, "directory for the backup file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := a.svc.ExportTo(ctx, *dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Copia de seguridad guardada en %s\n", path)
	return nil
}

func (a *app) importFile(ctx context.Context, args []string) error {
	fs := a.newFlagSet("import")
	yes := fs.Bool("yes", false, "replace data without asking")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: import [-yes] <file>", errUsage)
	}

	confirm := func(core.AppData) bool { return true }
	if !*yes {
		confirm = a.confirmReplace
	}
	ok, err := a.svc.ImportFrom(ctx, fs.Arg(0), confirm)
	if err != nil {
		fmt.Fprintln(a.out, persistence.Message(err))
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Importación cancelada.")
		return nil
	}
	fmt.Fprintln(a.out, persistence.Message(nil))
	return nil
}

func (a *app) confirmReplace(data core.AppData) bool {
	fmt.Fprintf(a.out, "Esto reemplazará todos tus datos actuales con %d movimientos y %d metas. ¿Continuar? [s/N] ",
		len(data.Transactions), len(data.Goals))
	line, _ := bufio.NewReader(a.in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "s", "si", "sí", "y", "yes":
		return true
	}
	return false
}

func parseType(s string) (core.TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense", "gasto":
		return core.Expense, nil
	case "income", "ingreso":
		return core.Income, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrInvalidType, s)
}

func parseMethod(s string) (core.PaymentMethod, error) {
	s = strings.TrimSpace(s)
	for _, opt := range core.PaymentOptions() {
		if strings.EqualFold(s, string(opt.Method)) || strings.EqualFold(s, opt.Label) {
			return opt.Method, nil
		}
	}
	return "", fmt.Errorf("%w: %q", core.ErrInvalidPaymentMethod, s)
}

// matchCategory resolves s case-insensitively against the catalog and
// returns it unchanged when nothing matches, leaving the rejection to
// validation.
func matchCategory(t core.TransactionType, s string) string {
	s = strings.TrimSpace(s)
	for _, c := range core.Categories(t) {
		if strings.EqualFold(c, s) {
			return c
		}
	}
	return s
}

// parseSaved accepts zero, unlike ParseAmount.
func parseSaved(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("current %q: %w", s, core.ErrInvalidCurrent)
	}
	return v, nil
}
