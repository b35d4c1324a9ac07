package content

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/forum"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/retry"
	"github.com/Kevin65536/NG2-Fetch-AND-Analysis/app/session"
)

func threadPage(body string) string {
	return fmt.Sprintf(`<html><body>
		<div class="forumheader">版块导航</div>
		<div class="postcontent">%s</div>
		<div class="reply">一条回复，不应被抽取</div>
	</body></html>`, body)
}

func TestParseFirstPost_PostContentSelector(t *testing.T) {
	data := []byte(threadPage("最近在看新番，画质真的很棒，推荐大家去看看。"))

	got := ParseFirstPost(data)
	if got != "最近在看新番，画质真的很棒，推荐大家去看看。" {
		t.Errorf("Unexpected extracted text: %q", got)
	}
}

func TestParseFirstPost_FallbackSelectors(t *testing.T) {
	data := []byte(`<html><body>
		<div id="postcontainer0"><p>楼主正文在备用容器里。</p></div>
	</body></html>`)

	got := ParseFirstPost(data)
	if got != "楼主正文在备用容器里。" {
		t.Errorf("Unexpected extracted text: %q", got)
	}
}

func TestParseFirstPost_ReadabilityFallback(t *testing.T) {
	// No NGA selector matches; the readability pass should still find the
	// dominant text block.
	paragraph := strings.Repeat("This thread discusses an upcoming game release in detail. ", 10)
	data := []byte(fmt.Sprintf(`<html><head><title>讨论帖</title></head><body>
		<nav>首页 论坛 搜索</nav>
		<article><p>%s</p></article>
	</body></html>`, paragraph))

	got := ParseFirstPost(data)
	if !strings.Contains(got, "upcoming game release") {
		t.Errorf("Expected readability fallback to extract article text, got %q", got)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips ubb codes",
			in:   "[img]./a.jpg[/img]这是正文[quote]引用[/quote]内容",
			want: "这是正文内容",
		},
		{
			name: "strips edit note",
			in:   "正文内容 本帖最后由小明于2024-06-01编辑 之后",
			want: "正文内容 之后",
		},
		{
			name: "collapses whitespace",
			in:   "第一行\n\n  第二行\t第三行",
			want: "第一行 第二行 第三行",
		},
		{
			name: "empty",
			in:   "   ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFirstPost_TruncatesLongBody(t *testing.T) {
	long := strings.Repeat("很", MaxBodyLength+500)
	data := []byte(threadPage(long))

	got := ParseFirstPost(data)
	if len([]rune(got)) != MaxBodyLength {
		t.Errorf("Expected body truncated to %d runes, got %d", MaxBodyLength, len([]rune(got)))
	}
}

func TestExtract_EmptyBodyOnRetryExhaustion(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := forum.NewClient(server.URL, 5*time.Second, session.NewStore(), "test-agent", time.Millisecond)
	extractor := NewExtractor(client, retry.NewPolicy(3, time.Millisecond))

	pc := extractor.Extract(context.Background(), forum.Thread{ID: "123", Title: "不可达的帖子"})

	if pc.ThreadID != "123" {
		t.Errorf("Expected thread id preserved, got '%s'", pc.ThreadID)
	}
	if pc.Body != "" {
		t.Errorf("Expected empty body after retry exhaustion, got %q", pc.Body)
	}
	if requests != 3 {
		t.Errorf("Expected 3 attempts, got %d", requests)
	}
}

func TestExtract_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/read.php" || r.URL.Query().Get("tid") != "456" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, threadPage("游戏二测开启了，快来看看新角色。"))
	}))
	defer server.Close()

	client := forum.NewClient(server.URL, 5*time.Second, session.NewStore(), "test-agent", time.Millisecond)
	extractor := NewExtractor(client, retry.NewPolicy(3, time.Millisecond))

	pc := extractor.Extract(context.Background(), forum.Thread{ID: "456", Title: "游戏讨论"})

	if pc.Body != "游戏二测开启了，快来看看新角色。" {
		t.Errorf("Unexpected body: %q", pc.Body)
	}
}
