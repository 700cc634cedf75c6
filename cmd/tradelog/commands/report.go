package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelog/backend/internal/journal"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "성과 리포트 생성",
	Long: `한 사용자의 종료 거래 전체에 대한 성과 리포트를 생성합니다.

지표: 승률, 손익비, 기대값, 연속 승/패, 변동성, 샤프/소르티노/칼마,
VaR/CVaR, 최대 낙폭, 심볼/전략/태그별 분해.

Example:
  go run ./cmd/tradelog report --user 42
  go run ./cmd/tradelog report --user 42 --json`,
	RunE: runReport,
}

var (
	reportUserID int64
	reportJSON   bool
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().Int64Var(&reportUserID, "user", 0, "사용자 ID (필수)")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "JSON 출력")
	reportCmd.MarkFlagRequired("user")
}

func runReport(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx := cmd.Context()

	trades, err := rt.tradeRepo.GetClosedByUser(ctx, reportUserID)
	if err != nil {
		return fmt.Errorf("load trades: %w", err)
	}

	series, err := journal.NewSeries(trades)
	if err != nil {
		return fmt.Errorf("build series: %w", err)
	}

	report, err := rt.assembler.Assemble(ctx, reportUserID, series)
	if err != nil {
		return fmt.Errorf("assemble report: %w", err)
	}

	if reportJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	m := report.Metrics
	fmt.Printf("=== Performance Report (user %d) ===\n\n", reportUserID)
	fmt.Printf("Trades:        %d (%dW / %dL / %dB)\n", m.TotalTrades, m.WinningTrades, m.LosingTrades, m.BreakevenTrades)
	fmt.Printf("Win rate:      %.2f%%\n", m.WinRate)
	fmt.Printf("Total PnL:     %s\n", m.TotalPnL)
	fmt.Printf("Profit factor: %.2f\n", m.ProfitFactor)
	fmt.Printf("Expectancy:    %s\n", m.Expectancy)
	fmt.Printf("Best / Worst:  %s / %s\n", m.BestTrade, m.WorstTrade)

	s := report.Streaks
	fmt.Printf("\nStreaks:       longest win %d, longest loss %d, current %+d\n",
		s.LongestWinStreak, s.LongestLossStreak, s.CurrentStreak)

	r := report.Risk
	fmt.Printf("\nRisk (%d trading days)\n", r.TradingDays)
	fmt.Printf("Volatility:    %.2f\n", r.Volatility)
	fmt.Printf("Sharpe:        %.2f   Sortino: %.2f   Calmar: %.2f\n", r.SharpeRatio, r.SortinoRatio, r.CalmarRatio)
	fmt.Printf("VaR 95/99:     %.2f / %.2f\n", r.VaR95, r.VaR99)
	fmt.Printf("CVaR 95/99:    %.2f / %.2f\n", r.CVaR95, r.CVaR99)
	fmt.Printf("Max drawdown:  %.2f%% (%d days)\n", r.MaxDrawdown*100, r.MaxDrawdownDurationDays)

	fmt.Printf("\nBy symbol:\n")
	for _, g := range report.Symbols {
		fmt.Printf("  %-8s %3d trades  win %.1f%%  pnl %s\n",
			g.Key, g.TradeCount, g.Metrics.WinRate, g.Metrics.TotalPnL)
	}

	return nil
}
