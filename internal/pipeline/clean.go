package pipeline

import (
	"context"

	"github.com/truthguardian/crawler/internal/models"
	"github.com/truthguardian/crawler/internal/utils"
)

// CleanStage 数据清洗阶段
// 清洗后标题或内容为空的项目被丢弃,其余字段缺失只记录不丢弃
type CleanStage struct{}

// NewCleanStage 创建清洗阶段
func NewCleanStage() *CleanStage {
	return &CleanStage{}
}

// Name 实现Stage接口
func (s *CleanStage) Name() string { return "clean" }

// Process 实现Stage接口
func (s *CleanStage) Process(_ context.Context, item models.Item) models.StageResult {
	switch it := item.(type) {
	case *models.NewsItem:
		it.Title = utils.CleanText(it.Title)
		if it.Title == "" {
			return models.Drop("标题为空")
		}
		it.Content = utils.FilterAds(utils.CleanText(it.Content))
		if it.Content == "" {
			return models.Drop("内容为空")
		}

	case *models.RumorItem:
		it.Title = utils.CleanText(it.Title)
		if it.Title == "" {
			return models.Drop("标题为空")
		}
		it.Content = utils.FilterAds(utils.CleanText(it.Content))
		if it.Content == "" {
			return models.Drop("内容为空")
		}
		// 辟谣内容存在时一并清洗
		if it.Refutation != "" {
			it.Refutation = utils.FilterAds(utils.CleanText(it.Refutation))
		}

	case *models.SocialPost:
		it.Content = utils.FilterAds(utils.CleanText(it.Content))
		if it.Content == "" {
			return models.Drop("内容为空")
		}

	default:
		return models.Drop("未知的数据项类型")
	}

	utils.Debugf("数据清洗完成: %s", item.Describe())
	return models.Pass()
}
