package processor

import (
	"sort"
	"strings"
)

// buildSummary 按句子排名生成摘要
// 句子得分 = 句内词的关键词权重之和 / (词数+1),
// 贪心选取高分句子直到长度预算用完,再按原文顺序拼接
func buildSummary(content string, weights map[string]float64, maxLen int) string {
	sentences := splitSentences(content)
	if len(sentences) == 0 {
		return ""
	}
	if len(sentences) == 1 {
		return truncateSentence(sentences[0], maxLen)
	}

	type ranked struct {
		index int
		text  string
		score float64
	}

	rankedSentences := make([]ranked, 0, len(sentences))
	for i, sentence := range sentences {
		words := tokenize(sentence)
		total := 0.0
		for _, word := range words {
			total += weights[word]
		}
		rankedSentences = append(rankedSentences, ranked{
			index: i,
			text:  sentence,
			score: total / float64(len(words)+1),
		})
	}

	sort.Slice(rankedSentences, func(i, j int) bool {
		if rankedSentences[i].score != rankedSentences[j].score {
			return rankedSentences[i].score > rankedSentences[j].score
		}
		return rankedSentences[i].index < rankedSentences[j].index
	})

	// 贪心选句,预算含句尾标点
	var selected []ranked
	used := 0
	for _, candidate := range rankedSentences {
		length := len([]rune(candidate.text)) + 1
		if used+length > maxLen {
			continue
		}
		selected = append(selected, candidate)
		used += length
	}
	if len(selected) == 0 {
		return truncateSentence(rankedSentences[0].text, maxLen)
	}

	// 恢复原文顺序
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].index < selected[j].index
	})

	var b strings.Builder
	for _, s := range selected {
		b.WriteString(s.text)
		b.WriteRune('。')
	}
	return b.String()
}

// truncateSentence 单句超长时硬截断
func truncateSentence(sentence string, maxLen int) string {
	runes := []rune(sentence)
	if len(runes) <= maxLen {
		return sentence
	}
	if maxLen <= 0 {
		return ""
	}
	return string(runes[:maxLen])
}
