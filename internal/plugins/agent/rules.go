package agent

import (
	"fmt"
	"strings"
)

// rule is one entry of the reply table: if any keyword is a substring of
// the lowercased message, the canned response wins.
type rule struct {
	keywords []string
	reply    string
	tips     string
	score    int // 0 means no score hint
}

// rules is the fixed reply table, checked in order. First match wins, so
// earlier rules take priority. Extending the agent means appending a rule.
var rules = []rule{
	{
		keywords: []string{"hello", "hi", "你好"},
		reply:    "你好，我是你的模拟面试官。请先简要介绍一下自己和擅长方向。",
		tips:     "条理清晰，突出关键成绩。",
	},
	{
		keywords: []string{"二分", "binary search"},
		reply:    "二分查找的时间复杂度是多少？在旋转数组中如何应用？",
		tips:     "先给出 O(log n)；再讲不变式与边界处理。",
		score:    7,
	},
	{
		keywords: []string{"hash", "哈希"},
		reply:    "说说哈希冲突的常见解决方案，以及适用场景。",
		tips:     "拉链法、开放寻址、再哈希。",
	},
	{
		keywords: []string{"dp", "动态规划"},
		reply:    "给出一道背包或最长子序列类 DP 的状态定义与转移。",
		tips:     "状态压缩可作为加分项。",
		score:    8,
	},
	{
		keywords: []string{"tcp", "三次握手", "四次挥手"},
		reply:    "请简述 TCP 三次握手与四次挥手的过程与原因。",
		tips:     "半关闭、TIME_WAIT、RST 情况。",
	},
}

// Fallback interpolation defaults when the session declared no role/focus.
const (
	defaultRole  = "通用岗位"
	defaultFocus = "综合"
)

// Reply computes the agent's response for a message. It is a pure function
// of its inputs: no side effects, no hidden state.
func Reply(message, role, focus string) ChatResponse {
	text := strings.ToLower(message)

	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return ChatResponse{Reply: r.reply, Tips: r.tips, Score: r.score}
			}
		}
	}

	if role == "" {
		role = defaultRole
	}
	if focus == "" {
		focus = defaultFocus
	}
	return ChatResponse{
		Reply: fmt.Sprintf("针对%s（方向：%s），请阐述你最熟悉的项目难点与优化。", role, focus),
		Tips:  "结构化表达：背景-问题-方案-效果-复盘。",
	}
}
