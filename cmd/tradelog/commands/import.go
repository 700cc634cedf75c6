package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelog/backend/internal/importer"
	"github.com/wonny/tradelog/backend/pkg/redis"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "거래 내역 임포트",
	Long: `브로커 거래 내역 HTML 파일을 파싱해서 저장합니다.

같은 파일을 다시 임포트해도 중복 저장되지 않습니다.

Example:
  go run ./cmd/tradelog import --user 42 --file statement.html`,
	RunE: runImport,
}

var (
	importUserID int64
	importFile   string
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Int64Var(&importUserID, "user", 0, "사용자 ID (필수)")
	importCmd.Flags().StringVar(&importFile, "file", "", "거래 내역 HTML 파일 (필수)")
	importCmd.MarkFlagRequired("user")
	importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	file, err := os.Open(importFile)
	if err != nil {
		return fmt.Errorf("open statement: %w", err)
	}
	defer file.Close()

	statementImporter := importer.NewStatementImporter(rt.log)

	result, err := statementImporter.Parse(file, importUserID)
	if err != nil {
		return fmt.Errorf("parse statement: %w", err)
	}

	inserted, err := rt.tradeRepo.InsertBatch(cmd.Context(), result.Trades)
	if err != nil {
		return fmt.Errorf("store trades: %w", err)
	}

	// Stale cached reports would hide the new trades
	if err := rt.cache.Delete(cmd.Context(), redis.ReportKey(importUserID)); err != nil {
		rt.log.WithError(err).Warn("Failed to invalidate report cache")
	}

	fmt.Printf("✅ Imported %d trades (%d parsed, %d skipped)\n", inserted, len(result.Trades), result.Skipped)
	return nil
}
