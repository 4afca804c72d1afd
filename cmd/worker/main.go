package main

import (
	"context"
	"log"
	"os"

	"lookbookapi/dbhelper"
	"lookbookapi/services"
	"lookbookapi/tasks"

	"github.com/hibiken/asynq"
)

func runScheduler() {

	scheduler := asynq.NewScheduler(asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")}, &asynq.SchedulerOpts{

		LogLevel: asynq.InfoLevel,
	})

	sweepTask, err := tasks.NewLooksPrecomputeMissingTask(3)
	if err != nil {
		log.Fatalf("Failed to build precompute sweep task: %v", err)
	}

	// Schedule daily tasks with different cron expressions
	scheduled := []struct {
		cron string
		task *asynq.Task
		desc string
	}{
		{
			cron: "0 3 * * *", // 3:00 AM daily, after the nightly graph refresh
			task: sweepTask,
			desc: "Precompute looks for anchors without a stored payload",
		},
	}

	// Register all tasks
	for _, t := range scheduled {
		entryID, err := scheduler.Register(t.cron, t.task)
		if err != nil {
			log.Fatalf("Failed to register task '%s': %v", t.desc, err)
		}
		log.Printf("Registered task '%s' with ID: %s, cron: %s", t.desc, entryID, t.cron)
	}

	log.Println("Starting scheduler...")
	if err := scheduler.Run(); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
}

func main() {
	// Initialize asynq server
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")},
		asynq.Config{Concurrency: 10, Queues: map[string]int{
			"generate": 7,
		}},
	)

	db := dbhelper.SetupDB()
	cfg := services.LoadLookGeneratorConfig()
	fingerprintCache, err := services.NewFingerprintCache(cfg.CacheCapacity, cfg.CacheTTL)
	if err != nil {
		log.Fatal("[Queue] Failed to initialize fingerprint cache")
	}
	products := services.NewGormProductStore(db)
	edges := services.NewGormEdgeStore(db)
	generator := services.NewLookGenerator(products, edges, fingerprintCache, cfg)

	// Set up task handler
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeLooksPrecompute, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleLooksPrecomputeTask(ctx, t, db, generator)
	})
	mux.HandleFunc(tasks.TypeLooksPrecomputeMissing, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleLooksPrecomputeMissingTask(ctx, t, db)
	})

	go runScheduler()
	// Run the worker
	if err := srv.Run(mux); err != nil {
		log.Fatal(err)
	}
}
