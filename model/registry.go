package model

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/rushteam/searchop/core"
)

// 模型制品命名：<Dir>/model_v<N>.json；
// 当前版本由一个单值文本文件（current_model_version.txt）指向。

const artifactPrefix = "model_"

// ErrModelNotFound 表示模型制品缺失。服务启动时遇到它应当硬失败。
var ErrModelNotFound = core.NewDomainError(core.ModuleModel, core.ErrorCodeNotFound, "model: artifact not found")

// Artifact 是一个已加载的模型制品：打分函数 + 训练时的特征列清单 + 版本号。
type Artifact struct {
	Version     string
	FeatureCols []string
	Model       RankModel
}

// artifactFile 是制品的磁盘格式。Type 决定反序列化出哪种 RankModel。
type artifactFile struct {
	Version     string             `json:"version"`
	Type        string             `json:"type"` // lr / gbdt
	FeatureCols []string           `json:"feature_cols"`
	Bias        float64            `json:"bias,omitempty"`
	Weights     map[string]float64 `json:"weights,omitempty"`
	Trees       []Tree             `json:"trees,omitempty"`
}

// Registry 是文件系统上的模型注册表。
// 路径显式注入（而非进程级常量），测试可以用临时目录。
type Registry struct {
	Dir                string // 制品目录
	CurrentVersionPath string // 当前版本指针文件
}

// CurrentVersion 返回当前版本号。
// 指针文件缺失时退回扫描目录取最大版本；目录里也没有制品时返回 ErrModelNotFound。
func (r *Registry) CurrentVersion() (string, error) {
	data, err := os.ReadFile(r.CurrentVersionPath)
	if err == nil {
		version := strings.TrimSpace(string(data))
		if version != "" {
			return version, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("read current version: %w", err)
	}
	return r.latestVersion()
}

func (r *Registry) latestVersion() (string, error) {
	entries, err := filepath.Glob(filepath.Join(r.Dir, artifactPrefix+"v*.json"))
	if err != nil {
		return "", err
	}
	versions := make([]int, 0, len(entries))
	for _, path := range entries {
		stem := strings.TrimSuffix(filepath.Base(path), ".json")
		numStr := strings.TrimPrefix(strings.TrimPrefix(stem, artifactPrefix), "v")
		if n, err := strconv.Atoi(numStr); err == nil {
			versions = append(versions, n)
		}
	}
	if len(versions) == 0 {
		return "", ErrModelNotFound
	}
	sort.Ints(versions)
	return fmt.Sprintf("v%d", versions[len(versions)-1]), nil
}

// NextVersion 返回下一个可用版本号（v1 起步）。
func (r *Registry) NextVersion() (string, error) {
	latest, err := r.latestVersion()
	if core.IsNotFound(err) {
		return "v1", nil
	}
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(strings.TrimPrefix(latest, "v"))
	if err != nil {
		return "", fmt.Errorf("parse version %q: %w", latest, err)
	}
	return fmt.Sprintf("v%d", n+1), nil
}

// Load 加载指定版本的制品。
func (r *Registry) Load(version string) (*Artifact, error) {
	path := filepath.Join(r.Dir, artifactPrefix+version+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}

	var af artifactFile
	if err := json.Unmarshal(data, &af); err != nil {
		return nil, fmt.Errorf("unmarshal artifact %s: %w", path, err)
	}

	var m RankModel
	switch af.Type {
	case "lr":
		m = &LRModel{Bias: af.Bias, Weights: af.Weights}
	case "gbdt":
		m = &GBDTModel{Bias: af.Bias, Trees: af.Trees}
	default:
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			fmt.Sprintf("model: unknown artifact type %q", af.Type))
	}

	version = af.Version
	if version == "" {
		version = strings.TrimPrefix(strings.TrimSuffix(filepath.Base(path), ".json"), artifactPrefix)
	}
	return &Artifact{Version: version, FeatureCols: af.FeatureCols, Model: m}, nil
}

// LoadCurrent 加载当前版本指针指向的制品。
func (r *Registry) LoadCurrent() (*Artifact, error) {
	version, err := r.CurrentVersion()
	if err != nil {
		return nil, err
	}
	return r.Load(version)
}

// Save 落盘一个制品。只支持注册表认识的模型类型。
func (r *Registry) Save(a *Artifact) error {
	af := artifactFile{Version: a.Version, FeatureCols: a.FeatureCols}
	switch m := a.Model.(type) {
	case *LRModel:
		af.Type = "lr"
		af.Bias = m.Bias
		af.Weights = m.Weights
	case *GBDTModel:
		af.Type = "gbdt"
		af.Bias = m.Bias
		af.Trees = m.Trees
	default:
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeNotSupported,
			fmt.Sprintf("model: cannot persist model type %T", a.Model))
	}

	data, err := json.MarshalIndent(af, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(r.Dir, artifactPrefix+a.Version+".json")
	return os.WriteFile(path, data, 0o644)
}

// SetCurrent 更新当前版本指针。
func (r *Registry) SetCurrent(version string) error {
	if err := os.MkdirAll(filepath.Dir(r.CurrentVersionPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(r.CurrentVersionPath, []byte(version+"\n"), 0o644)
}
