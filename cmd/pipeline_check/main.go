package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"svomo/internal/config"
	"svomo/internal/llm"
	"svomo/internal/service"
	"svomo/internal/tmdb"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorReset = "\033[0m"
)

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	path := flag.String("scenarios", "", "YAML file with scenarios (defaults to the built-in set)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	scenarios, err := loadScenarios(*path)
	if err != nil {
		log.Fatal(err)
	}

	llmClient, err := llm.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("llm client: %v", err)
	}
	var catalog service.MetadataCatalog
	if cfg.TMDBAPIToken != "" {
		catalog = tmdb.NewBreakerClient(tmdb.NewClient(tmdb.Options{
			BaseURL:           cfg.TMDBBaseURL,
			Token:             cfg.TMDBAPIToken,
			Language:          cfg.TMDBLanguage,
			Timeout:           cfg.TMDBTimeout(),
			RequestsPerSecond: cfg.TMDBRequestsPerSecond,
		}, logger), logger)
	}
	recommender := service.NewRecommendationService(llmClient, catalog, logger)

	failed := 0
	for _, sc := range scenarios {
		fmt.Printf("%s[Scenario]%s %s\n", colorCyan, colorReset, sc.Name)

		recs := recommender.Recommend(ctx, sc.Persona, sc.Mood)
		for i, r := range recs {
			fmt.Printf("  %d. %s (%s) [%s] tier=%s\n", i+1, r.Title, r.Year, r.MediaKind, r.Resolution)
		}

		rep := evaluate(sc, recs)
		if rep.Passed() {
			fmt.Printf("  %sPASS%s %d results, %d resolved\n\n", colorGreen, colorReset, rep.Results, rep.Resolved)
			continue
		}
		failed++
		fmt.Printf("  %sFAIL%s\n", colorRed, colorReset)
		for _, f := range rep.Failures {
			fmt.Printf("   - %s\n", f)
		}
		fmt.Println()
	}

	fmt.Println("==== Summary ====")
	fmt.Printf("Passed: %d/%d\n", len(scenarios)-failed, len(scenarios))
	if failed > 0 {
		os.Exit(1)
	}
}
