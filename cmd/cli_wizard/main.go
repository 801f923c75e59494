package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"svomo/internal/config"
	"svomo/internal/domain"
	"svomo/internal/llm"
	"svomo/internal/service"
	"svomo/internal/tmdb"
)

const (
	overviewDisplayLimit = 150
	noResultsMessage     = "We couldn't find recommendations that match your preferences. Please try again."
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

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

	wizard := service.NewWizardService(
		service.NewQuestionService(llmClient, logger),
		service.NewRecommendationService(llmClient, catalog, logger),
		logger,
	)

	printBanner(os.Stdout)
	session := wizard.Start(ctx)
	if err := run(ctx, reader, os.Stdout, wizard, session); err != nil && !errors.Is(err, io.EOF) {
		log.Fatal(err)
	}
	fmt.Println("Bye!")
}

func printBanner(w io.Writer) {
	fmt.Fprintln(w, "==============================")
	fmt.Fprintln(w, "     SVOMO RECOMMENDATION")
	fmt.Fprintln(w, "==============================")
}

// run es el loop interactivo; termina con "q" o al cerrarse la entrada.
func run(ctx context.Context, reader *bufio.Reader, w io.Writer, wizard *service.WizardService, session *domain.WizardSession) error {
	for {
		view := wizard.View(session)
		if view.Stage == domain.StageResults {
			printResults(w, view)
			fmt.Fprint(w, "[R] Start Over  [Q] Quit: ")
		} else {
			printQuestion(w, view)
			fmt.Fprint(w, "Choose an option ([b] back, [r] restart, [q] quit): ")
		}

		line, err := reader.ReadString('\n')
		input := strings.ToLower(strings.TrimSpace(line))
		if err != nil && input == "" {
			return err
		}

		switch input {
		case "q":
			return nil
		case "r":
			wizard.Restart(ctx, session)
			continue
		case "b":
			if err := wizard.Retreat(session); err != nil {
				fmt.Fprintln(w, "You are already at the first question.")
			}
			continue
		}
		if view.Stage == domain.StageResults || view.Question == nil {
			fmt.Fprintln(w, "Invalid option.")
			continue
		}

		idx, err := strconv.Atoi(input)
		if err != nil || idx < 1 || idx > len(view.Question.Options) {
			fmt.Fprintln(w, "Invalid option.")
			continue
		}
		if err := wizard.SubmitAnswer(session, view.Question.Options[idx-1]); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			continue
		}
		if view.Stage == domain.StageMood && view.Progress.Index == view.Progress.Total {
			fmt.Fprintln(w, "\nSearching for the perfect recommendations for you...")
		}
		if err := wizard.Advance(ctx, session); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
	}
}

func printQuestion(w io.Writer, view domain.WizardView) {
	if view.Question == nil {
		return
	}
	label := "About you"
	if view.Stage == domain.StageMood {
		label = "Right now"
	}
	fmt.Fprintf(w, "\n%s - Question %d of %d (step %d/%d)\n", label, view.Progress.Index, view.Progress.Total, view.Progress.Step, view.Progress.Steps)
	fmt.Fprintln(w, view.Question.Text)
	for i, o := range view.Question.Options {
		marker := " "
		if o == view.Selected {
			marker = "*"
		}
		fmt.Fprintf(w, " %s[%d] %s\n", marker, i+1, o)
	}
}

func printResults(w io.Writer, view domain.WizardView) {
	fmt.Fprintln(w, "\n===== Your recommendations =====")
	if view.NoRecommendations {
		fmt.Fprintln(w, noResultsMessage)
		return
	}
	for i, r := range view.Recommendations {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, formatRecommendation(r))
	}
}

func formatRecommendation(r domain.Recommendation) string {
	var sb strings.Builder
	sb.WriteString(r.Title)
	if year := truncateText(r.Year, 4, false); year != "" {
		sb.WriteString(" (" + year + ")")
	}
	sb.WriteString(" [" + string(r.MediaKind) + "]\n")
	sb.WriteString("   Genres: " + strings.Join(r.Genres, ", ") + "\n")
	sb.WriteString("   " + truncateText(r.Overview, overviewDisplayLimit, true) + "\n")
	if r.Rationale != "" {
		sb.WriteString("   Why: " + r.Rationale + "\n")
	}
	sb.WriteString("   Poster: " + r.PosterURL)
	return sb.String()
}

// truncateText corta por runas; con ellipsis agrega "..." cuando recorta.
func truncateText(s string, limit int, ellipsis bool) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	out := string(runes[:limit])
	if ellipsis {
		out = strings.TrimRight(out, " ") + "..."
	}
	return out
}
