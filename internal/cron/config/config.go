package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Sweep for containers registered but never ingested, every 5 minutes
	CronSchedulePendingSweep string `env:"CRON_SCHEDULE_PENDING_SWEEP" envDefault:"0 */5 * * * *"`
}
