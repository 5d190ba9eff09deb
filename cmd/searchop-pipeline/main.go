// searchop-pipeline 是离线数据管线入口：
//
//	searchop-pipeline datagen   生成演示目录与点击流
//	searchop-pipeline build     聚合事件、重建特征库快照
//	searchop-pipeline train     训练新模型版本并更新当前版本指针
//	searchop-pipeline eval      在快照上离线评估当前模型
//	searchop-pipeline all       datagen → build → train → eval 串行全跑
//
// 每一步都整表重建，幂等可重跑。
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/searchop/config"
	"github.com/rushteam/searchop/datagen"
	"github.com/rushteam/searchop/eval"
	"github.com/rushteam/searchop/feature"
	"github.com/rushteam/searchop/model"
	"github.com/rushteam/searchop/store"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "searchop-pipeline").Logger()

	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	cmd := args[0]

	fs := newFlags(args[1:])
	cfg := config.Default(fs.baseDir)
	if fs.configPath != "" {
		loaded, err := config.Load(fs.configPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", fs.configPath).Msg("load config failed")
		}
		cfg = loaded
	}

	var err error
	switch cmd {
	case "datagen":
		err = runDatagen(cfg, fs, logger)
	case "build":
		err = runBuild(cfg, logger)
	case "train":
		err = runTrain(cfg, logger)
	case "eval":
		err = runEval(cfg, logger)
	case "all":
		steps := []func() error{
			func() error { return runDatagen(cfg, fs, logger) },
			func() error { return runBuild(cfg, logger) },
			func() error { return runTrain(cfg, logger) },
			func() error { return runEval(cfg, logger) },
		}
		for _, step := range steps {
			if err = step(); err != nil {
				break
			}
		}
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("cmd", cmd).Msg("pipeline step failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: searchop-pipeline <datagen|build|train|eval|all> [flags]")
	fmt.Fprintln(os.Stderr, "  -config path   YAML 配置")
	fmt.Fprintln(os.Stderr, "  -base dir      默认配置的数据根目录")
	fmt.Fprintln(os.Stderr, "  -products n    datagen 商品数")
	fmt.Fprintln(os.Stderr, "  -events n      datagen 事件数")
	fmt.Fprintln(os.Stderr, "  -seed n        datagen 随机种子")
}

type flags struct {
	configPath string
	baseDir    string
	products   int
	events     int
	seed       int64
}

// newFlags 手工解析，避免子命令各建一套 FlagSet。
func newFlags(args []string) flags {
	fs := flags{baseDir: "."}
	for i := 0; i < len(args)-1; i++ {
		switch args[i] {
		case "-config":
			fs.configPath = args[i+1]
		case "-base":
			fs.baseDir = args[i+1]
		case "-products":
			fmt.Sscanf(args[i+1], "%d", &fs.products)
		case "-events":
			fmt.Sscanf(args[i+1], "%d", &fs.events)
		case "-seed":
			fmt.Sscanf(args[i+1], "%d", &fs.seed)
		}
	}
	return fs
}

func runDatagen(cfg *config.Config, fs flags, logger zerolog.Logger) error {
	opts := datagen.Options{Products: fs.products, Events: fs.events, Seed: fs.seed}
	catalog := datagen.Catalog(opts)
	events := datagen.Events(catalog, opts)
	if repaired := datagen.RepairFunnel(events); repaired > 0 {
		logger.Warn().Int("repaired", repaired).Msg("funnel flags repaired")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Data.CatalogPath), 0o755); err != nil {
		return err
	}
	if err := feature.WriteCatalogFile(cfg.Data.CatalogPath, catalog); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Data.EventsPath), 0o755); err != nil {
		return err
	}
	if err := feature.WriteEventsFile(cfg.Data.EventsPath, events); err != nil {
		return fmt.Errorf("write events: %w", err)
	}
	logger.Info().
		Int("products", len(catalog)).
		Int("events", len(events)).
		Str("catalog", cfg.Data.CatalogPath).
		Str("events_path", cfg.Data.EventsPath).
		Msg("demo data generated")
	return nil
}

func runBuild(cfg *config.Config, logger zerolog.Logger) error {
	catalog, err := feature.ReadCatalogFile(cfg.Data.CatalogPath)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	events, err := feature.ReadEventsFile(cfg.Data.EventsPath)
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}

	builder := &feature.Builder{}
	rows, err := builder.Build(context.Background(), catalog, events)
	if err != nil {
		return fmt.Errorf("build feature store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Data.FeatureStorePath), 0o755); err != nil {
		return err
	}
	if err := feature.WriteRowsFile(cfg.Data.FeatureStorePath, rows); err != nil {
		return fmt.Errorf("write feature store: %w", err)
	}
	logger.Info().
		Int("rows", len(rows)).
		Str("path", cfg.Data.FeatureStorePath).
		Msg("feature store rebuilt")

	// 可选：把快照同时发布到 Redis，多实例服务共享
	if cfg.Redis.Addr != "" {
		rs, err := store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rs.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := feature.SaveToStore(ctx, rs, cfg.Redis.SnapshotKey, rows); err != nil {
			return fmt.Errorf("publish snapshot to redis: %w", err)
		}
		logger.Info().Str("key", cfg.Redis.SnapshotKey).Msg("snapshot published to redis")
	}
	return nil
}

func runTrain(cfg *config.Config, logger zerolog.Logger) error {
	snapshot, err := feature.LoadSnapshotFile(cfg.Data.FeatureStorePath)
	if err != nil {
		return err
	}

	cols := feature.ModelColumns
	rows := snapshot.Rows()
	samples := make([]map[string]float64, 0, len(rows))
	labels := make([]float64, 0, len(rows))
	for _, r := range rows {
		samples = append(samples, r.Features())
		labels = append(labels, eval.RelevanceLabel(r))
	}

	lr := model.TrainLR(samples, labels, cols, model.TrainOptions{})

	registry := &model.Registry{
		Dir:                cfg.Model.Dir,
		CurrentVersionPath: cfg.Model.CurrentVersionPath,
	}
	version, err := registry.NextVersion()
	if err != nil {
		return err
	}
	artifact := &model.Artifact{Version: version, FeatureCols: cols, Model: lr}
	if err := registry.Save(artifact); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	if err := registry.SetCurrent(version); err != nil {
		return fmt.Errorf("set current version: %w", err)
	}
	logger.Info().
		Str("version", version).
		Int("samples", len(samples)).
		Int("feature_cols", len(cols)).
		Msg("model trained and promoted")
	return nil
}

func runEval(cfg *config.Config, logger zerolog.Logger) error {
	snapshot, err := feature.LoadSnapshotFile(cfg.Data.FeatureStorePath)
	if err != nil {
		return err
	}
	registry := &model.Registry{
		Dir:                cfg.Model.Dir,
		CurrentVersionPath: cfg.Model.CurrentVersionPath,
	}
	artifact, err := registry.LoadCurrent()
	if err != nil {
		return err
	}

	harness := &eval.Harness{K: 10}
	report, err := harness.Evaluate(snapshot, artifact)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Data.ArtifactsDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(cfg.Data.ArtifactsDir, "eval_"+artifact.Version+".json")
	if err := eval.WriteReport(path, report); err != nil {
		return err
	}
	logger.Info().
		Str("version", report.ModelVersion).
		Float64("ndcg_at_10", report.NDCG10).
		Float64("mrr", report.MRR).
		Float64("ctr_at_10", report.CTR10).
		Int("queries", report.NumQueries).
		Str("report", path).
		Msg("offline evaluation done")
	return nil
}
