package pipeline

import (
	"context"
	"fmt"

	"github.com/truthguardian/crawler/internal/models"
	"github.com/truthguardian/crawler/internal/storage"
	"github.com/truthguardian/crawler/internal/utils"
)

// StorageStage 存储阶段
// 首次出现插入,重复出现合并更新;每次写入尝试都追加一条处理日志,
// 写入失败的项目通过错误日志留痕,不会无声丢失
type StorageStage struct {
	store storage.Store
}

// NewStorageStage 创建存储阶段
func NewStorageStage(store storage.Store) *StorageStage {
	return &StorageStage{store: store}
}

// Name 实现Stage接口
func (s *StorageStage) Name() string { return "storage" }

// Process 实现Stage接口
func (s *StorageStage) Process(ctx context.Context, item models.Item) models.StageResult {
	id, created, err := s.store.Upsert(ctx, item)

	entry := &models.ProcessLog{
		DataType:    item.Kind(),
		DataID:      item.NaturalID(),
		ProcessType: models.ProcessTypeStore,
	}

	if err != nil {
		entry.Status = models.LogStatusError
		entry.Message = err.Error()
		if logErr := s.store.AppendLog(ctx, entry); logErr != nil {
			utils.Errorf("写入错误日志失败 %s: %v", item.Describe(), logErr)
		}
		return models.Fail(fmt.Errorf("存储失败: %w", err))
	}

	entry.Status = models.LogStatusSuccess
	if created {
		entry.Message = fmt.Sprintf("新增记录 id=%d", id)
		utils.Infof("📥 新增记录: %s", item.Describe())
	} else {
		entry.Message = fmt.Sprintf("更新记录 id=%d", id)
		utils.Debugf("更新记录: %s", item.Describe())
	}
	if logErr := s.store.AppendLog(ctx, entry); logErr != nil {
		utils.Warnf("写入处理日志失败 %s: %v", item.Describe(), logErr)
	}

	return models.Pass()
}
