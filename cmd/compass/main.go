package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"compass/internal/analytics"
	"compass/internal/cli"
	"compass/internal/core"
	"compass/internal/localstore"
	"compass/internal/log"
	"compass/internal/remote"
	"compass/internal/sync"
)

const usage = `compass - campus expense tracker

Usage:
  compass signup [-email addr]        register the current user
  compass budget <amount>             set the monthly budget
  compass add -amount N -category C [-date YYYY-MM-DD] [-desc text]
  compass update -id ID [-amount N] [-category C] [-date YYYY-MM-DD] [-desc text]
  compass delete -id ID
  compass list                        list expenses
  compass dashboard [-days 7|30]      spending overview and insights
  compass export [-o file]            write a CSV report
  compass logout                      clear local state
`

func main() {
	logger := cli.SetupLogger(log.ComponentApp)
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	local := localstore.NewFromDir(cfg.DataDir)
	client := remote.NewClient(cfg.RemoteBaseURL, cfg.RemoteTimeout)
	svc := sync.NewService(local, client, cli.IdentityFromConfig(cfg), cfg.RemoteTimeout, logger)

	ctx := context.Background()
	var err error
	switch os.Args[1] {
	case "signup":
		err = runSignup(ctx, svc, os.Args[2:])
	case "budget":
		err = runBudget(ctx, svc, os.Args[2:])
	case "add":
		err = runAdd(ctx, svc, os.Args[2:])
	case "update":
		err = runUpdate(ctx, svc, os.Args[2:])
	case "delete":
		err = runDelete(ctx, svc, os.Args[2:])
	case "list":
		err = runList(ctx, svc)
	case "dashboard":
		err = runDashboard(ctx, svc, os.Args[2:])
	case "export":
		err = runExport(ctx, svc, os.Args[2:])
	case "logout":
		svc.Logout()
		fmt.Println("Logged out, local state cleared.")
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Let background reconciliation finish before the process exits.
	svc.Wait()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runSignup(ctx context.Context, svc *sync.Service, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	_ = fs.Parse(args)

	u, err := svc.CreateUser(ctx, *email)
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s (%s)\n", u.UserID, u.Email)
	return nil
}

func runBudget(ctx context.Context, svc *sync.Service, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: compass budget <amount>")
	}
	// Zero clears the budget, so this is not ParseAmount territory.
	amount, err := strconv.ParseFloat(strings.ReplaceAll(args[0], ",", "."), 64)
	if err != nil {
		return fmt.Errorf("invalid budget %q", args[0])
	}
	u, err := svc.SetMonthlyBudget(ctx, amount)
	if err != nil {
		return err
	}
	fmt.Printf("Monthly budget set to %s\n", core.FormatRupees(u.MonthlyBudget))
	return nil
}

func runAdd(ctx context.Context, svc *sync.Service, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	amountStr := fs.String("amount", "", "expense amount")
	categoryStr := fs.String("category", "", "expense category")
	dateStr := fs.String("date", "", "date (YYYY-MM-DD), defaults to today")
	desc := fs.String("desc", "", "description")
	_ = fs.Parse(args)

	amount, err := core.ParseAmount(*amountStr)
	if err != nil {
		return err
	}
	category, err := core.ParseCategory(*categoryStr)
	if err != nil {
		return err
	}
	date := core.Today()
	if *dateStr != "" {
		date, err = core.ParseDate(*dateStr)
		if err != nil {
			return err
		}
	}

	e, err := svc.AddExpense(ctx, sync.ExpenseInput{
		Amount:      amount,
		Category:    category,
		Date:        date,
		Description: *desc,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Added %s %s on %s (%s)\n", core.FormatRupees(e.Amount), e.Category, e.Date.Key(), e.ExpenseID)
	return nil
}

func runUpdate(ctx context.Context, svc *sync.Service, args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	id := fs.String("id", "", "expense id")
	amountStr := fs.String("amount", "", "new amount")
	categoryStr := fs.String("category", "", "new category")
	dateStr := fs.String("date", "", "new date (YYYY-MM-DD)")
	desc := fs.String("desc", "", "new description")
	_ = fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("usage: compass update -id ID [fields]")
	}

	var upd sync.ExpenseUpdate
	if *amountStr != "" {
		amount, err := core.ParseAmount(*amountStr)
		if err != nil {
			return err
		}
		upd.Amount = &amount
	}
	if *categoryStr != "" {
		category, err := core.ParseCategory(*categoryStr)
		if err != nil {
			return err
		}
		upd.Category = &category
	}
	if *dateStr != "" {
		date, err := core.ParseDate(*dateStr)
		if err != nil {
			return err
		}
		upd.Date = &date
	}
	if *desc != "" {
		upd.Description = desc
	}

	e, err := svc.UpdateExpense(ctx, *id, upd)
	if err != nil {
		return err
	}
	fmt.Printf("Updated %s: %s %s on %s\n", e.ExpenseID, core.FormatRupees(e.Amount), e.Category, e.Date.Key())
	return nil
}

func runDelete(ctx context.Context, svc *sync.Service, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.String("id", "", "expense id")
	_ = fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("usage: compass delete -id ID")
	}
	if err := svc.DeleteExpense(ctx, *id); err != nil {
		return err
	}
	fmt.Println("Deleted", *id)
	return nil
}

func runList(ctx context.Context, svc *sync.Service) error {
	expenses, err := svc.Expenses(ctx)
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		fmt.Println("No expenses recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tAMOUNT\tCATEGORY\tDESCRIPTION\tID")
	for _, e := range expenses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Date.Key(), core.FormatRupees(e.Amount), e.Category, e.Description, e.ExpenseID)
	}
	return w.Flush()
}

func runDashboard(ctx context.Context, svc *sync.Service, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	days := fs.Int("days", analytics.DaysMonth, "window size in days (7 or 30)")
	_ = fs.Parse(args)

	user, err := svc.UserDetails(ctx)
	if err != nil {
		return err
	}
	expenses, err := svc.Expenses(ctx)
	if err != nil {
		return err
	}

	rep := analytics.BuildReport(expenses, user.MonthlyBudget, core.Today(), *days, analytics.DefaultThresholds())

	fmt.Printf("Total spent: %s\n", core.FormatRupees(rep.TotalSpent))
	if user.MonthlyBudget > 0 {
		fmt.Printf("Budget: %s (remaining %s)\n",
			core.FormatRupees(user.MonthlyBudget), core.FormatRupees(rep.RemainingBudget))
	}

	if len(rep.Summary) > 0 {
		fmt.Println("\nBy category:")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, cs := range rep.Summary {
			fmt.Fprintf(w, "  %s\t%s\t%d%%\n", cs.Category, core.FormatRupees(cs.Amount), cs.Percentage)
		}
		w.Flush()
	}

	if rep.Trend.NoPriorData {
		fmt.Println("\nTrend: not enough history yet")
	} else {
		fmt.Printf("\nTrend: %+.1f%% vs previous week\n", rep.Trend.PercentChange)
	}

	if len(rep.Insights) > 0 {
		fmt.Println("\nInsights:")
		for _, in := range rep.Insights {
			fmt.Printf("  [%s] %s: %s\n", in.Kind, in.Title, in.Description)
		}
	}
	return nil
}

func runExport(ctx context.Context, svc *sync.Service, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("o", "", "output file (defaults to the report name)")
	_ = fs.Parse(args)

	name, data, err := svc.ExportCSV(ctx)
	if err != nil {
		return err
	}
	if *out != "" {
		name = *out
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	fmt.Println("Report written to", name)
	return nil
}
