package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tradelog",
	Short: "Tradelog - 트레이딩 저널 성과 분석 엔진",
	Long: `Tradelog Unified CLI

매매 일지에서 성과/리스크 지표를 계산하는 분석 백엔드.
리포트 생성, 세금 리포트, 거래 내역 임포트, API 서버를 제공.

Usage:
  go run ./cmd/tradelog [command]

Examples:
  go run ./cmd/tradelog api
  go run ./cmd/tradelog report --user 42
  go run ./cmd/tradelog taxes --user 42 --year 2024
  go run ./cmd/tradelog import --user 42 --file statement.html`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
