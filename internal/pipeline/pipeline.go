package pipeline

import (
	"context"

	"github.com/truthguardian/crawler/internal/models"
	"github.com/truthguardian/crawler/internal/storage"
	"github.com/truthguardian/crawler/internal/utils"
)

// Stage 单个处理阶段
// 返回显式的StageResult,驱动器根据结果分支,不使用panic传递丢弃信号
type Stage interface {
	// Name 阶段名称,用于日志
	Name() string

	// Process 处理一个数据项,可以原地修改
	Process(ctx context.Context, item models.Item) models.StageResult
}

// Pipeline 按固定顺序执行各阶段: 清洗 → 去重 → 存储
type Pipeline struct {
	stages []Stage
}

// New 用给定阶段顺序创建管道
func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// NewDefault 创建标准管道
func NewDefault(store storage.Store) *Pipeline {
	return New(
		NewCleanStage(),
		NewDuplicateFilter(store),
		NewStorageStage(store),
	)
}

// Run 把一个数据项依次送过所有阶段
// 任意阶段Drop或Fail即终止,返回最后一个阶段的结果
func (p *Pipeline) Run(ctx context.Context, item models.Item) models.StageResult {
	for _, stage := range p.stages {
		result := stage.Process(ctx, item)
		switch {
		case result.Dropped():
			utils.Infof("丢弃数据项 [%s] %s: %s", stage.Name(), item.Describe(), result.Reason)
			return result
		case result.Failed():
			utils.Errorf("阶段失败 [%s] %s: %v", stage.Name(), item.Describe(), result.Err)
			return result
		}
	}
	return models.Pass()
}

// Reset 开始新一轮采集前重置有状态的阶段(去重指纹集合)
func (p *Pipeline) Reset() {
	for _, stage := range p.stages {
		if r, ok := stage.(interface{ Reset() }); ok {
			r.Reset()
		}
	}
}
