// Command lead-rescore re-runs AI scoring for leads whose original scoring
// attempt failed (ai_score IS NULL).
package main

import (
	"context"
	"flag"
	"os"

	"golang.org/x/sync/errgroup"

	"leadintake_backend/internal/leads/repository"
	"leadintake_backend/internal/leads/scoring"
	"leadintake_backend/platform/config"
	"leadintake_backend/platform/db"
	"leadintake_backend/platform/logger"
)

func main() {
	limit := flag.Int("limit", 100, "maximum number of leads to rescore")
	concurrency := flag.Int("concurrency", 4, "number of concurrent scoring calls")
	dryRun := flag.Bool("dry-run", false, "list candidates without scoring")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.New("production").Error("config load failed", "error", err.Error())
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	if err := run(context.Background(), cfg, log, *limit, *concurrency, *dryRun); err != nil {
		log.Error("rescore failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, limit, concurrency int, dryRun bool) error {
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := repository.New(pool)

	leads, err := repo.ListUnscored(ctx, limit)
	if err != nil {
		return err
	}
	log.Info("unscored leads found", "count", len(leads))

	if dryRun {
		for _, lead := range leads {
			log.Info("candidate", "lead_id", lead.ID.String(), "created_at", lead.CreatedAt)
		}
		return nil
	}

	if !cfg.IsScoringEnabled() {
		log.Error("GEMINI_API_KEY is not set")
		return nil
	}

	generator, err := scoring.NewGeminiGenerator(ctx, cfg.GetGeminiAPIKey(), cfg.GetGeminiModel())
	if err != nil {
		return err
	}
	scorer := scoring.NewService(generator, cfg.GetScoringTimeout())

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for _, lead := range leads {
		group.Go(func() error {
			score, analysis, insights, err := scorer.ScoreStructured(groupCtx, lead)
			if err != nil {
				// One bad lead should not stop the batch.
				log.ScoringFailed(lead.ID.String(), err)
				return nil
			}
			if err := repo.RecordScoreWithInsights(groupCtx, lead.ID, score, analysis, insights.RecordParams()); err != nil {
				log.ScoringFailed(lead.ID.String(), err)
				return nil
			}
			log.Info("lead rescored", "lead_id", lead.ID.String(), "score", score)
			return nil
		})
	}

	return group.Wait()
}
