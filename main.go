package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/okonma/citymood/cmd"
	"github.com/okonma/citymood/collector"
	"github.com/okonma/citymood/config"
	"github.com/okonma/citymood/db"
	"github.com/okonma/citymood/db/repository"
	"github.com/okonma/citymood/db/service"
	"github.com/okonma/citymood/logger"
	"github.com/okonma/citymood/notifications"
	"github.com/okonma/citymood/reddit"
	"github.com/okonma/citymood/scheduler"
	"github.com/okonma/citymood/sentiment"
	"github.com/okonma/citymood/server"
	"github.com/okonma/citymood/ui"
)

const version = "v0.1.0"

func main() {
	flags := cmd.ParseFlags()

	if flags.Version {
		fmt.Printf("citymood %s\n", version)
		return
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = config.GetConfigPath()
		if err := config.EnsureConfigExists(configPath); err != nil {
			log.Fatal(err)
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.InitLogger(cfg); err != nil {
		log.Fatal(err)
	}
	logger.Logger.Printf("Starting citymood version %s", version)

	if flags.City != "" {
		if _, ok := cfg.Cities[flags.City]; !ok {
			log.Fatalf("city %q is not configured", flags.City)
		}
		sub := cfg.Cities[flags.City]
		cfg.Cities = map[string]string{flags.City: sub}
	}

	database, err := db.NewDatabase(cfg.Storage.SaveLocation)
	if err != nil {
		logger.Logger.Fatal(err)
	}
	defer database.Close()

	posts := service.NewPostService(repository.NewPostRepository(database.DB))
	comments := service.NewCommentService(repository.NewCommentRepository(database.DB))

	if flags.Summary {
		printSummaries(cfg, posts)
		return
	}

	analyzer := sentiment.NewAnalyzer(cfg.Collection.MinTextLength,
		cfg.Sentiment.VeryPositiveThreshold, cfg.Sentiment.VeryNegativeThreshold)
	client := reddit.NewClient(cfg)
	pipeline := collector.New(client, analyzer, posts, comments, cfg)

	if flags.Collect {
		runOnce(cfg, pipeline)
		return
	}

	serve(cfg, pipeline, posts, comments)
}

// runOnce executes a single collection cycle with a progress bar and
// prints the summary.
func runOnce(cfg *config.Config, pipeline *collector.Collector) {
	bar := progressbar.NewOptions(len(cfg.Cities),
		progressbar.OptionSetDescription("Collecting"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	pipeline.OnCityDone = func(city collector.CityStats) {
		bar.Describe(fmt.Sprintf("Collected %s", city.City))
		bar.Add(1)
	}

	stats := pipeline.RunCycle(context.Background())
	bar.Finish()
	fmt.Print(ui.RenderCycleSummary(stats))
}

func printSummaries(cfg *config.Config, posts *service.PostService) {
	names := make([]string, 0, len(cfg.Cities))
	for name := range cfg.Cities {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) > 1 {
		global, err := posts.Summary("")
		if err != nil {
			logger.Logger.Fatal(err)
		}
		fmt.Print(ui.RenderCitySummary(global))
	}

	for _, name := range names {
		summary, err := posts.Summary(name)
		if err != nil {
			logger.Logger.Fatal(err)
		}
		fmt.Print(ui.RenderCitySummary(summary))
	}
}

// serve runs the scheduler and the dashboard API until interrupted.
func serve(cfg *config.Config, pipeline *collector.Collector,
	posts *service.PostService, comments *service.CommentService) {

	hub := server.NewHub()
	notifier := notifications.NewNotificationService(cfg)

	sched, err := scheduler.EnsureStarted(pipeline, cfg.Interval(),
		func(stats collector.CycleStats) {
			hub.Broadcast(stats)
			notifier.NotifyCycleComplete(stats)
		})
	if err != nil {
		logger.Logger.Fatal(err)
	}
	defer sched.Stop()

	srv := server.New(cfg, posts, comments, sched, hub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })

	if err := g.Wait(); err != nil {
		logger.Logger.Fatal(err)
	}
	logger.Logger.Printf("Shutdown complete")
}
