package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelog/backend/internal/api"
	"github.com/wonny/tradelog/backend/internal/api/handlers"
	"github.com/wonny/tradelog/backend/internal/importer"
	"github.com/wonny/tradelog/backend/internal/observability"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                            - Health check
  GET  /api/users/{id}/report             - 성과 리포트
  GET  /api/users/{id}/report/groups      - 그룹별 분해 (?by=symbol|strategy|hour|weekday|month|quarter|tag)
  GET  /api/users/{id}/taxes/{year}       - 세금 리포트
  POST /api/users/{id}/import             - 거래 내역 임포트

Example:
  go run ./cmd/tradelog api
  go run ./cmd/tradelog api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본값: PORT 환경변수)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Tradelog API Server ===")

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	if apiPort != "" {
		rt.cfg.Port = apiPort
	}

	rt.log.WithFields(map[string]interface{}{
		"port": rt.cfg.Port,
		"env":  rt.cfg.Env,
	}).Info("Initializing API server")

	statementImporter := importer.NewStatementImporter(rt.log)

	reportHandler := handlers.NewReportHandler(rt.tradeRepo, rt.assembler, rt.cache, rt.metrics, rt.log)
	importHandler := handlers.NewImportHandler(statementImporter, rt.tradeRepo, rt.cache, rt.metrics, rt.log)

	router := api.NewRouter(reportHandler, importHandler, rt.metrics, rt.log)
	server := api.New(rt.cfg, rt.log, router)

	// Metrics endpoint on its own port
	var metricsServer *http.Server
	if rt.cfg.MetricsEnabled {
		metricsServer = &http.Server{
			Addr:    ":" + rt.cfg.MetricsPort,
			Handler: observability.Handler(),
		}
		go func() {
			rt.log.WithField("port", rt.cfg.MetricsPort).Info("Starting metrics server")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				rt.log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	go func() {
		if err := server.Start(); err != nil {
			rt.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", rt.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	rt.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		_ = metricsServer.Shutdown(ctx)
	}
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	rt.log.Info("Server stopped")
	return nil
}
