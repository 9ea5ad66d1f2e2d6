package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/pubsearch/api"
	"github.com/gcbaptista/pubsearch/config"
	"github.com/gcbaptista/pubsearch/internal/engine"
	"github.com/gcbaptista/pubsearch/internal/jobs"
	"github.com/gcbaptista/pubsearch/internal/metrics"
	"github.com/gcbaptista/pubsearch/internal/scheduler"
	"github.com/gcbaptista/pubsearch/store"
)

func main() {
	// Define command-line flags
	var (
		help       = flag.Bool("help", false, "Show help message")
		version    = flag.Bool("version", false, "Show version information")
		configPath = flag.String("config", "", "Path to the YAML configuration file")
	)

	flag.Parse()

	// Handle help flag
	if *help {
		fmt.Printf("pubsearch - publication search service with a weighted TF-IDF index\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s                          # Start with built-in defaults\n", os.Args[0])
		fmt.Printf("  %s --config config.yaml     # Start with a configuration file\n", os.Args[0])
		return
	}

	// Handle version flag
	if *version {
		fmt.Printf("pubsearch v1.0.0\n")
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	st, err := store.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		log.Fatalf("Failed to open publication store: %v", err)
	}
	defer st.Close()

	var met *metrics.Metrics
	if cfg.Metrics.Enabled {
		met = metrics.New()
	}

	// Initialize the search engine
	eng := engine.NewEngine(cfg.Index.SnippetWindow)
	if err := loadIndex(eng, st, cfg); err != nil {
		log.Fatalf("Failed to initialize index: %v", err)
	}
	met.ObserveIndexSize(eng.DocumentCount(), eng.VocabularySize())

	manager := jobs.NewManager(eng, st, cfg, met)
	manager.Start()
	defer manager.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(cfg.Scheduler, manager)
		go sched.Start(ctx)
	}

	// Initialize Gin router
	router := gin.Default()

	// Setup API routes
	api.SetupRoutes(router, api.NewAPI(eng, st, manager, cfg, met))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start the server
	go func() {
		log.Printf("Starting server on port %d...", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: Server shutdown: %v", err)
	}
}

// loadIndex restores the persisted index. When the file is absent or
// unusable the index is rebuilt from the publication store, which is the
// source of truth.
func loadIndex(eng *engine.Engine, st *store.Store, cfg *config.Config) error {
	loaded, err := eng.Load(cfg.Index.Path)
	if err != nil {
		log.Printf("Warning: persisted index unusable, rebuilding from store: %v", err)
	}
	if loaded {
		log.Printf("Loaded index from %s (%d documents, %d terms)",
			cfg.Index.Path, eng.DocumentCount(), eng.VocabularySize())
		return nil
	}

	pubs, err := st.AllPublications(context.Background())
	if err != nil {
		return fmt.Errorf("loading publications: %w", err)
	}
	if len(pubs) == 0 {
		log.Printf("No persisted index and no stored publications; starting empty")
		return nil
	}

	for i := range pubs {
		eng.AddDocument(pubs[i].Document(), pubs[i].DocID(), true)
	}
	eng.RebuildVectors()
	if err := eng.Save(cfg.Index.Path); err != nil {
		return fmt.Errorf("saving rebuilt index: %w", err)
	}
	log.Printf("Rebuilt index from store (%d documents)", len(pubs))
	return nil
}
