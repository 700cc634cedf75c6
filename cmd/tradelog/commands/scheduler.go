package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelog/backend/internal/scheduler"
	"github.com/wonny/tradelog/backend/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 시작",
	Long: `예약 작업 스케줄러를 시작합니다.

Jobs:
  report_warm - 활성 사용자 전체의 리포트를 미리 계산해서 캐시

Example:
  go run ./cmd/tradelog scheduler
  go run ./cmd/tradelog scheduler --run-now`,
	RunE: runScheduler,
}

var schedulerRunNow bool

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().BoolVar(&schedulerRunNow, "run-now", false, "시작하자마자 report_warm 1회 실행")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Tradelog Scheduler ===")

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	sched := scheduler.New(rt.log)

	warmJob := jobs.NewReportWarmJob(
		rt.tradeRepo, rt.assembler, rt.cache, rt.metrics, rt.log,
		rt.cfg.Scheduler.ReportWarmSchedule, rt.cfg.Scheduler.ReportWarmWorkers,
	)
	if err := sched.AddJob(warmJob); err != nil {
		return fmt.Errorf("register warm job: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	if schedulerRunNow {
		if err := sched.RunJob(warmJob.Name()); err != nil {
			return err
		}
	}

	fmt.Println("\n✅ Scheduler running. Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}
