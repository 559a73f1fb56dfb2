package processor

import (
	"strings"
	"unicode"
)

// 常见中文停用词,分词后过滤
var stopwords = map[string]struct{}{
	"的": {}, "了": {}, "和": {}, "是": {}, "在": {}, "有": {}, "他": {}, "她": {},
	"这": {}, "那": {}, "中": {}, "为": {}, "上": {}, "个": {}, "来": {}, "到": {},
	"时": {}, "要": {}, "就": {}, "出": {}, "会": {}, "可": {}, "也": {}, "你": {},
	"对": {}, "能": {}, "而": {}, "于": {}, "着": {}, "与": {}, "之": {}, "年": {},
	"后": {}, "用": {}, "所": {}, "从": {}, "都": {}, "被": {}, "将": {}, "把": {},
	"我们": {}, "这个": {}, "那个": {}, "以及": {}, "因为": {}, "所以": {},
	"但是": {}, "如果": {}, "没有": {}, "可以": {}, "一个": {}, "进行": {},
	"通过": {}, "相关": {}, "目前": {}, "表示": {}, "记者": {},
}

// 句子边界符号
var sentenceDelimiters = map[rune]struct{}{
	'。': {}, '！': {}, '？': {}, '；': {},
	'.': {}, '!': {}, '?': {}, ';': {}, '\n': {},
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

func isASCIIWordRune(r rune) bool {
	return r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

// tokenize 无词典分词
// 中文按相邻双字切分(bigram),英文数字按连续串切分,过滤停用词
func tokenize(text string) []string {
	var tokens []string
	runes := []rune(text)

	flush := func(word string) {
		if word == "" {
			return
		}
		word = strings.ToLower(word)
		if _, stop := stopwords[word]; stop {
			return
		}
		tokens = append(tokens, word)
	}

	i := 0
	for i < len(runes) {
		r := runes[i]

		switch {
		case isCJK(r):
			// 连续中文段内取bigram,单字停用词视为切分点
			j := i
			for j < len(runes) && isCJK(runes[j]) {
				j++
			}
			seg := i
			for k := i; k <= j; k++ {
				if k < j {
					if _, stop := stopwords[string(runes[k])]; !stop {
						continue
					}
				}
				if k-seg == 1 {
					flush(string(runes[seg:k]))
				} else {
					for m := seg; m < k-1; m++ {
						flush(string(runes[m : m+2]))
					}
				}
				seg = k + 1
			}
			i = j

		case isASCIIWordRune(r):
			j := i
			for j < len(runes) && isASCIIWordRune(runes[j]) {
				j++
			}
			flush(string(runes[i:j]))
			i = j

		default:
			i++
		}
	}

	return tokens
}

// splitSentences 按句子边界切分文本,去掉空句
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		if _, isDelim := sentenceDelimiters[r]; isDelim {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
			continue
		}
		current.WriteRune(r)
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
