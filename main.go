/* main.go
 * The "main" method for running the grader. Runs the Discord bot and the HTTP surface, or grades a single roster file.
 * Usage: go run main.go -mode=all|bot|web|grade [-stage=stage1 -roster=roster.csv]
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bootcamp-grader/api/api"
	"bootcamp-grader/api/browser"
	"bootcamp-grader/api/external"
	"bootcamp-grader/api/lock"
	"bootcamp-grader/api/metrics"
	"bootcamp-grader/api/roster"
	"bootcamp-grader/api/shared"
	"bootcamp-grader/api/store"
	"bootcamp-grader/bot"
	"bootcamp-grader/config"
	"bootcamp-grader/logger"
	"bootcamp-grader/web"
)

func main() {
	//Flags
	modePtr := flag.String("mode", "all", "What to run: all, bot, web or grade")
	stagePtr := flag.String("stage", "", "Stage to grade in grade mode: stage1 or stage2")
	rosterPtr := flag.String("roster", "", "Roster file (csv or xlsx) to grade in grade mode")
	flag.Parse()

	mode, err := parseMode(*modePtr)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl, mode, *stagePtr, *rosterPtr); err != nil {
		zl.Fatal("grader stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger, mode Mode, stageArg, rosterPath string) error {
	st, err := store.NewStore(ctx, cfg.Mongo.Database, cfg.Mongo.URI, zl.Named("store"))
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() {
		if err := st.Disconnect(context.Background()); err != nil {
			zl.Warn("failed to disconnect store", zap.Error(err))
		}
	}()
	if err := st.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	catalog := external.NewClient(cfg.TMDB.BaseURL, cfg.TMDB.Token, cfg.TMDB.RPS)
	reference := external.NewReferenceCache(catalog, zl.Named("external"))

	launcher := browser.ChromeLauncher{Config: cfg.Browser, Logger: zl.Named("browser")}
	a, err := api.NewAPI(st, launcher, stageConfigs(cfg, reference), zl.Named("api"))
	if err != nil {
		return fmt.Errorf("failed to initialize API: %w", err)
	}
	rec := metrics.NewRecorder()
	a.Metrics = rec

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to reach redis: %w", err)
		}
		a.Locker = lock.NewRedisLocker(rdb, cfg.Redis.LockTTL, zl.Named("lock"))
	}

	if mode == ModeGrade {
		return gradeFile(ctx, a, stageArg, rosterPath)
	}

	g, ctx := errgroup.WithContext(ctx)
	if mode.runsWeb() {
		g.Go(func() error {
			return web.Start(ctx, web.Config{Addr: cfg.HTTPAddr, API: a, Metrics: rec, Logger: zl.Named("web")})
		})
	}
	if mode.runsBot() {
		if cfg.Discord.Token == "" && mode == ModeAll {
			zl.Info("DISCORD_TOKEN is empty, bot disabled")
		} else {
			b, err := bot.NewBot(cfg.Discord.Token, cfg.Discord.Prefix, a, zl.Named("bot"))
			if err != nil {
				return err
			}
			g.Go(func() error { return b.Run(ctx) })
		}
	}
	return g.Wait()
}

// gradeFile grades a roster file once and prints the report
func gradeFile(ctx context.Context, a *api.API, stageArg, rosterPath string) error {
	stage, err := shared.ParseStage(stageArg)
	if err != nil {
		return err
	}
	if rosterPath == "" {
		return fmt.Errorf("-roster is required in grade mode")
	}
	f, err := os.Open(rosterPath)
	if err != nil {
		return err
	}
	defer f.Close()

	table, err := roster.Load(rosterPath, f)
	if err != nil {
		return err
	}
	subs, err := table.Submissions()
	if err != nil {
		return err
	}

	start := time.Now()
	gr, err := a.GradeStage(ctx, stage, subs)
	if err != nil {
		return err
	}
	a.Logger.Info("roster graded", zap.String("file", rosterPath), zap.Duration("took", time.Since(start)))
	return writeReport(os.Stdout, gr)
}
