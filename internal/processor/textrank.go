package processor

// TextRank参数
const (
	textRankWindow     = 5
	textRankIterations = 20
	textRankDamping    = 0.85
)

// textRank 计算词权重
// 在滑动窗口内建立词共现无向图,迭代传播得分,返回归一化权重(最大值为1)
func textRank(words []string) map[string]float64 {
	if len(words) == 0 {
		return map[string]float64{}
	}

	// 共现图: 词 -> 邻居 -> 共现次数
	graph := make(map[string]map[string]float64)
	addEdge := func(a, b string) {
		if a == b {
			return
		}
		if graph[a] == nil {
			graph[a] = make(map[string]float64)
		}
		graph[a][b]++
	}

	for i, word := range words {
		end := i + textRankWindow
		if end > len(words) {
			end = len(words)
		}
		for j := i + 1; j < end; j++ {
			addEdge(word, words[j])
			addEdge(words[j], word)
		}
	}

	// 各节点的出边权重和
	outWeight := make(map[string]float64, len(graph))
	for node, edges := range graph {
		for _, w := range edges {
			outWeight[node] += w
		}
	}

	// 迭代传播
	scores := make(map[string]float64, len(graph))
	for node := range graph {
		scores[node] = 1.0
	}
	for iter := 0; iter < textRankIterations; iter++ {
		next := make(map[string]float64, len(graph))
		for node, edges := range graph {
			rank := 0.0
			for neighbor, w := range edges {
				if outWeight[neighbor] > 0 {
					rank += w / outWeight[neighbor] * scores[neighbor]
				}
			}
			next[node] = (1 - textRankDamping) + textRankDamping*rank
		}
		scores = next
	}

	// 归一化到(0,1],便于句子打分时比较
	max := 0.0
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	if max > 0 {
		for node := range scores {
			scores[node] /= max
		}
	}

	// 孤立词(文本只有一个词时)给最低权重
	for _, word := range words {
		if _, ok := scores[word]; !ok {
			scores[word] = 1.0
		}
	}

	return scores
}
