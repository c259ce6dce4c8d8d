package cron

import (
	"context"
	"os"
	"sync"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"

	"github.com/williamcjrogers/VeriCaseJet-sub003/config"
	cron_config "github.com/williamcjrogers/VeriCaseJet-sub003/internal/cron/config"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/logger"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/tracing"
	"github.com/williamcjrogers/VeriCaseJet-sub003/services/ingestion"
)

// GroupIngestion serializes jobs that touch container state: two sweeps
// running at once would race on the same pending containers.
const GroupIngestion = "ingestion"

var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupIngestion: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg       *config.Config
	log       logger.Logger
	cron      *cronv3.Cron
	stopCh    chan struct{}
	jobIDs    map[string]cronv3.EntryID
	ingestion *ingestion.IngestionService
}

func NewCronManager(cfg *config.Config, log logger.Logger, ingestionService *ingestion.IngestionService) *CronManager {
	return &CronManager{
		cfg:       cfg,
		log:       log,
		stopCh:    make(chan struct{}),
		jobIDs:    make(map[string]cronv3.EntryID),
		ingestion: ingestionService,
	}
}

// Start initializes and starts the cron scheduler
func (cm *CronManager) Start() {
	cm.log.Info("Starting cron manager")
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		// Wait for jobs to finish
		<-ctx.Done()
	}
	close(cm.stopCh)
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	if cronConfig.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	if cronConfig.CronSchedulePendingSweep != "" {
		id, err := c.AddFunc(cronConfig.CronSchedulePendingSweep, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupIngestion].Lock()
			defer jobLocks.locks[GroupIngestion].Unlock()
			cm.sweepPendingContainers()
		})
		if err != nil {
			cm.log.Fatalf("Could not add pending sweep cron job: %v", err)
		}
		cm.jobIDs["pending_sweep"] = id
		cm.log.Infof("Registered pending sweep job with schedule: %s", cronConfig.CronSchedulePendingSweep)
	}
}

func (cm *CronManager) sweepPendingContainers() {
	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.sweepPendingContainers")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	if err := cm.ingestion.ProcessPending(ctx); err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to sweep pending containers: %v", err)
		return
	}
}
