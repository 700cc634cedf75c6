package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelog/backend/internal/analytics"
	"github.com/wonny/tradelog/backend/internal/journal"
)

// taxesCmd represents the taxes command
var taxesCmd = &cobra.Command{
	Use:   "taxes",
	Short: "세금 리포트 생성",
	Long: `한 과세연도의 실현 손익 리포트를 생성합니다.

장/단기 분류 (365일 초과 보유 = 장기), 워시세일 플래그 (±30일),
분기별 요약을 포함합니다.

Example:
  go run ./cmd/tradelog taxes --user 42 --year 2024`,
	RunE: runTaxes,
}

var (
	taxUserID int64
	taxYear   int
	taxJSON   bool
)

func init() {
	rootCmd.AddCommand(taxesCmd)

	taxesCmd.Flags().Int64Var(&taxUserID, "user", 0, "사용자 ID (필수)")
	taxesCmd.Flags().IntVar(&taxYear, "year", time.Now().UTC().Year()-1, "과세연도")
	taxesCmd.Flags().BoolVar(&taxJSON, "json", false, "JSON 출력")
	taxesCmd.MarkFlagRequired("user")
}

func runTaxes(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	trades, err := rt.tradeRepo.GetClosedByUserAndYear(cmd.Context(), taxUserID, taxYear, analytics.WashSaleWindowDays)
	if err != nil {
		return fmt.Errorf("load trades: %w", err)
	}

	series, err := journal.NewSeries(trades)
	if err != nil {
		return fmt.Errorf("build series: %w", err)
	}

	report := analytics.ComputeTaxes(series, taxYear)

	if taxJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("=== Tax Report %d (user %d) ===\n\n", taxYear, taxUserID)
	fmt.Printf("Lots:            %d\n", len(report.Lots))
	fmt.Printf("Short-term gain: %s\n", report.ShortTermGain)
	fmt.Printf("Long-term gain:  %s\n", report.LongTermGain)
	fmt.Printf("Net gain:        %s\n", report.NetGain)
	fmt.Printf("Wash sales:      %d\n", report.WashSaleCount)

	fmt.Printf("\nQuarters:\n")
	for _, q := range report.Quarters {
		fmt.Printf("  %s  %3d lots  net %s", q.Quarter, q.Lots, q.NetGain)
		if q.WashSale > 0 {
			fmt.Printf("  (%d wash sales)", q.WashSale)
		}
		fmt.Println()
	}

	return nil
}
