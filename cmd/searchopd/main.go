// searchopd 是在线打分服务：加载特征库快照与当前模型制品，
// 组装排序 Pipeline 并提供 HTTP 接口。
// 快照或模型缺失时直接拒绝启动，不会带着空数据上线。
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/searchop/api"
	"github.com/rushteam/searchop/config"
	"github.com/rushteam/searchop/feature"
	"github.com/rushteam/searchop/filter"
	"github.com/rushteam/searchop/metrics"
	"github.com/rushteam/searchop/model"
	"github.com/rushteam/searchop/pipeline"
	"github.com/rushteam/searchop/rank"
	"github.com/rushteam/searchop/rerank"
	"github.com/rushteam/searchop/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML 配置文件路径；为空时用默认配置")
		baseDir    = flag.String("base", ".", "默认配置的数据根目录")
	)
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "searchopd").Logger()

	cfg := config.Default(*baseDir)
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *configPath).Msg("load config failed")
		}
		cfg = loaded
	}

	snapshot, err := loadSnapshot(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("feature snapshot unavailable, refusing to start")
	}
	logger.Info().Int("rows", snapshot.Len()).Msg("feature snapshot loaded")

	registry := &model.Registry{
		Dir:                cfg.Model.Dir,
		CurrentVersionPath: cfg.Model.CurrentVersionPath,
	}
	artifact, err := registry.LoadCurrent()
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.Model.Dir).Msg("model artifact unavailable, refusing to start")
	}
	logger.Info().
		Str("version", artifact.Version).
		Str("type", artifact.Model.Name()).
		Int("feature_cols", len(artifact.FeatureCols)).
		Msg("model artifact loaded")
	metrics.SetModelVersion(artifact.Version)

	p := buildPipeline(cfg, snapshot, artifact)
	server := api.NewServer(p, snapshot, artifact.Version, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
	logger.Info().Msg("stopped")
}

// loadSnapshot 优先读本地 CSV，本地缺失且配置了 Redis 时再尝试共享快照。
func loadSnapshot(cfg *config.Config, logger zerolog.Logger) (*feature.Snapshot, error) {
	snapshot, err := feature.LoadSnapshotFile(cfg.Data.FeatureStorePath)
	if err == nil {
		return snapshot, nil
	}
	if cfg.Redis.Addr == "" {
		return nil, err
	}

	logger.Warn().Err(err).
		Str("path", cfg.Data.FeatureStorePath).
		Msg("local snapshot missing, falling back to redis")
	rs, rerr := store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.DB)
	if rerr != nil {
		return nil, rerr
	}
	defer rs.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return feature.LoadFromStore(ctx, rs, cfg.Redis.SnapshotKey)
}

// buildPipeline 显式组装排序链路：Resolve →（可选）Filter → Rank →（可选）TopN。
// 节点携带运行期依赖（快照、模型），不走配置化的节点注册表。
func buildPipeline(cfg *config.Config, snapshot *feature.Snapshot, artifact *model.Artifact) *pipeline.Pipeline {
	nodes := []pipeline.Node{
		&feature.ResolveNode{Resolver: &feature.Resolver{Snapshot: snapshot}},
	}
	if cfg.Rank.FilterExpr != "" {
		nodes = append(nodes, &filter.FilterNode{
			Filters: []filter.Filter{&filter.RuleFilter{Expr: cfg.Rank.FilterExpr}},
		})
	}
	nodes = append(nodes, &rank.ModelNode{
		Model:       artifact.Model,
		FeatureCols: artifact.FeatureCols,
	})
	if cfg.Rank.TopN > 0 {
		nodes = append(nodes, &rerank.TopNNode{N: cfg.Rank.TopN})
	}
	return &pipeline.Pipeline{Nodes: nodes}
}
