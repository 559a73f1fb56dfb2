package models

import (
	"errors"
	"testing"
)

var errTest = errors.New("测试错误")

func TestItemKind(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want ItemKind
	}{
		{"新闻项目", &NewsItem{NewsID: "news_1"}, KindNews},
		{"谣言项目", &RumorItem{RumorID: "rumor_1"}, KindRumor},
		{"社交帖子", &SocialPost{PostID: "weibo_1"}, KindSocial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Kind(); got != tt.want {
				t.Errorf("Kind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNaturalID(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{"新闻ID", &NewsItem{NewsID: "news_abc123"}, "news_abc123"},
		{"谣言ID", &RumorItem{RumorID: "rumor_def456"}, "rumor_def456"},
		{"帖子ID", &SocialPost{PostID: "weibo_789"}, "weibo_789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.NaturalID(); got != tt.want {
				t.Errorf("NaturalID() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMarshalList(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"空列表返回空字符串", nil, ""},
		{"零长度列表返回空字符串", []string{}, ""},
		{"单个标签", []string{"辟谣"}, `["辟谣"]`},
		{"多个标签", []string{"健康", "食品安全"}, `["健康","食品安全"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MarshalList(tt.values); got != tt.want {
				t.Errorf("MarshalList() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnmarshalList(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{"空字符串返回nil", "", nil},
		{"非法JSON返回nil", "{bad", nil},
		{"正常解析", `["健康","疫情"]`, []string{"健康", "疫情"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnmarshalList(tt.data)
			if len(got) != len(tt.want) {
				t.Fatalf("UnmarshalList() len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("UnmarshalList()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMarshalMediaRoundTrip(t *testing.T) {
	media := []Media{
		{Type: "image", URL: "https://example.com/a.jpg"},
		{Type: "video", URL: "https://example.com/b.mp4"},
	}

	data := MarshalMedia(media)
	if data == "" {
		t.Fatal("MarshalMedia() 返回空字符串")
	}

	got := UnmarshalMedia(data)
	if len(got) != 2 {
		t.Fatalf("UnmarshalMedia() len = %d, want 2", len(got))
	}
	if got[0].Type != "image" || got[0].URL != "https://example.com/a.jpg" {
		t.Errorf("UnmarshalMedia()[0] = %+v", got[0])
	}

	if MarshalMedia(nil) != "" {
		t.Error("MarshalMedia(nil) 应返回空字符串")
	}
}

func TestStageResult(t *testing.T) {
	tests := []struct {
		name        string
		result      StageResult
		wantPassed  bool
		wantDropped bool
		wantFailed  bool
	}{
		{"通过", Pass(), true, false, false},
		{"丢弃", Drop("重复数据"), false, true, false},
		{"失败", Fail(errTest), false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Passed(); got != tt.wantPassed {
				t.Errorf("Passed() = %v, want %v", got, tt.wantPassed)
			}
			if got := tt.result.Dropped(); got != tt.wantDropped {
				t.Errorf("Dropped() = %v, want %v", got, tt.wantDropped)
			}
			if got := tt.result.Failed(); got != tt.wantFailed {
				t.Errorf("Failed() = %v, want %v", got, tt.wantFailed)
			}
		})
	}

	if r := Drop("内容为空"); r.Reason != "内容为空" {
		t.Errorf("Drop().Reason = %v", r.Reason)
	}
	if r := Fail(errTest); r.Err != errTest {
		t.Errorf("Fail().Err = %v", r.Err)
	}
}
