package background

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/niel17/invoiceflow/internal/repositories"
	"github.com/niel17/invoiceflow/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// JobScheduler manages recurring background jobs
type JobScheduler struct {
	scheduler    gocron.Scheduler
	dashboardSvc services.DashboardService
	userRepo     repositories.UserRepository
	jobs         map[string]gocron.Job
	mu           sync.RWMutex
}

func NewJobScheduler(dashboardSvc services.DashboardService, userRepo repositories.UserRepository) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler:    scheduler,
		dashboardSvc: dashboardSvc,
		userRepo:     userRepo,
		jobs:         make(map[string]gocron.Job),
	}

	js.registerJobs()
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	statsJob, err := js.scheduler.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(js.refreshDashboardStats, context.Background()),
		gocron.WithName("dashboard-stats-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create dashboard stats job: %v", err)
	} else {
		js.jobs["dashboard-stats"] = statsJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

// refreshDashboardStats recomputes cached dashboard aggregates for every
// user so dashboard reads stay warm between cache expiries.
func (js *JobScheduler) refreshDashboardStats(ctx context.Context) error {
	userIDs, err := js.userRepo.ListIDs(ctx, 1000, 0)
	if err != nil {
		log.Printf("Failed to list users for dashboard refresh: %v", err)
		return err
	}

	semaphore := make(chan struct{}, 5)
	var wg sync.WaitGroup

	for _, id := range userIDs {
		wg.Add(1)
		go func(userID uuid.UUID) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if _, err := js.dashboardSvc.RefreshStats(ctx, userID); err != nil {
				log.Printf("Failed to refresh dashboard stats for user %s: %v", userID.String(), err)
			}
		}(id)
	}

	wg.Wait()
	log.Printf("Completed dashboard stats refresh for %d users", len(userIDs))
	return nil
}
