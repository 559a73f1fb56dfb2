package processor

import (
	"math"
	"sort"
)

// tfidfModel 以当前批次为语料的TF-IDF模型
// 先AddDocument喂入全部文档,再对单个文档取TopK标签
type tfidfModel struct {
	docCount int
	df       map[string]int
}

func newTFIDFModel() *tfidfModel {
	return &tfidfModel{df: make(map[string]int)}
}

// AddDocument 统计文档词频
func (m *tfidfModel) AddDocument(words []string) {
	m.docCount++
	seen := make(map[string]struct{}, len(words))
	for _, word := range words {
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		m.df[word]++
	}
}

// TopK 返回文档中TF-IDF得分最高的k个词
func (m *tfidfModel) TopK(words []string, k int) []string {
	if len(words) == 0 || k <= 0 {
		return nil
	}

	tf := make(map[string]int, len(words))
	for _, word := range words {
		tf[word]++
	}

	type scored struct {
		word  string
		score float64
	}
	candidates := make([]scored, 0, len(tf))
	for word, count := range tf {
		idf := math.Log(float64(m.docCount+1)/float64(m.df[word]+1)) + 1
		candidates = append(candidates, scored{
			word:  word,
			score: float64(count) / float64(len(words)) * idf,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].word < candidates[j].word
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	tags := make([]string, 0, k)
	for _, c := range candidates[:k] {
		tags = append(tags, c.word)
	}
	return tags
}
