package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/apet97/worklens/internal/analysis"
	"github.com/apet97/worklens/internal/model"
	"github.com/apet97/worklens/internal/timecalc"
)

var (
	reportFrom    string
	reportTo      string
	reportGroupBy string
	reportBasis   string
	reportMode    string
	reportSource  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetch entries and show the overtime/billing analysis",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	now := time.Now()
	monday, sunday := timecalc.WeekRange(now)
	reportCmd.Flags().StringVar(&reportFrom, "from", timecalc.DateKey(monday), "Range start (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportTo, "to", timecalc.DateKey(sunday), "Range end (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportGroupBy, "group-by", "user", "Grouping: user, project, client, task, week")
	reportCmd.Flags().StringVar(&reportBasis, "basis", "daily", "Overtime basis: daily or weekly")
	reportCmd.Flags().StringVar(&reportMode, "mode", "earned", "Amount column: earned, cost, profit")
	reportCmd.Flags().StringVar(&reportSource, "source", "entries", "Data source: entries or detailed-report")
}

func runReport(cmd *cobra.Command, args []string) error {
	from, err := timecalc.ParseDateKey(reportFrom)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := timecalc.ParseDateKey(reportTo)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}

	client, tok, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	st, kv, err := openStore(tok.Claims.WorkspaceID)
	if err != nil {
		return err
	}
	defer kv.Close()

	wsCfg := st.Config()
	params := analysis.CalcParams{
		Start:              from,
		End:                to,
		Basis:              analysis.Basis(reportBasis),
		GroupBy:            analysis.Dimension(reportGroupBy),
		AmountMode:         analysis.AmountMode(reportMode),
		Tiered:             wsCfg.Tiered,
		Tiers:              wsCfg.Tiers,
		OvertimeMultiplier: wsCfg.OvertimeMultiplier,
		AdjustForTimeOff:   wsCfg.AdjustForTimeOff,
	}
	if err := params.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	workspaceID := tok.Claims.WorkspaceID

	users, err := client.Users(ctx, workspaceID)
	if err != nil {
		log.WithError(err).Warn("user list unavailable, capacity falls back to defaults")
	}
	profiles := client.AllProfiles(ctx, workspaceID, users)
	cal := client.Calendar(ctx, workspaceID, from, to)

	var entries []model.TimeEntry
	if reportSource == "detailed-report" {
		entries = client.DetailedReport(ctx, workspaceID, timecalc.StartOfDay(from), timecalc.EndOfDay(to))
	} else {
		ids := make([]string, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		entries = client.Entries(ctx, workspaceID, ids, timecalc.StartOfDay(from), timecalc.EndOfDay(to))
	}

	result := analysis.Calculate(entries, profiles, st, cal, params)
	printResult(result, params.AmountMode)

	status := client.Status()
	if status.ProfilesFailed > 0 {
		fmt.Printf("\nNote: %d of %d profile fetches failed; defaults were used for those users.\n",
			status.ProfilesFailed, status.ProfilesAttempted)
	}
	return nil
}

func printResult(result analysis.Result, mode analysis.AmountMode) {
	fmt.Printf("%-28s %10s %10s %10s %12s\n", "Group", "Total", "Regular", "Overtime", string(mode))
	fmt.Println("------------------------------------------------------------------------------")
	for _, g := range result.Groups {
		fmt.Printf("%-28s %10s %10s %10s %12s\n",
			g.Label,
			timecalc.FormatHours(g.TotalHours),
			timecalc.FormatHours(g.RegularHours),
			timecalc.FormatHours(g.OvertimeHours),
			humanize.CommafWithDigits(amountFor(g, mode), 2))
	}
	fmt.Println("------------------------------------------------------------------------------")
	t := result.Totals
	fmt.Printf("%-28s %10s %10s %10s %12s\n",
		"Total",
		timecalc.FormatHours(t.TotalHours),
		timecalc.FormatHours(t.RegularHours),
		timecalc.FormatHours(t.OvertimeHours),
		humanize.CommafWithDigits(amountFor(t, mode), 2))
}

func amountFor(g analysis.GroupSummary, mode analysis.AmountMode) float64 {
	switch mode {
	case analysis.AmountCost:
		return g.Amounts.Cost.Total()
	case analysis.AmountProfit:
		return g.Amounts.Profit.Total()
	default:
		return g.Amounts.Earned.Total()
	}
}
