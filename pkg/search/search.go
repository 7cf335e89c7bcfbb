// Package search 封装博查/Tavily 搜索，为分析提供新闻情报文本。
package search

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	bochaSearchURL  = "https://api.bochaai.com/v1/web-search"
	tavilySearchURL = "https://api.tavily.com/search"

	resultsPerQuery = 5
)

// IntelItem 一条搜索情报
type IntelItem struct {
	Title   string
	Snippet string
	Source  string
}

// IntelBundle 一次综合搜索的全部情报
type IntelBundle struct {
	Items []IntelItem
}

// Service 搜索服务，多 key 轮换；无可用 key 时整体不可用。
type Service struct {
	client     *resty.Client
	bochaKeys  []string
	tavilyKeys []string

	mu        sync.Mutex
	keyCursor int
}

// NewService 创建搜索服务
func NewService(bochaKeys, tavilyKeys []string) *Service {
	client := resty.New()
	client.SetTimeout(15 * time.Second)
	return &Service{
		client:     client,
		bochaKeys:  bochaKeys,
		tavilyKeys: tavilyKeys,
	}
}

// IsAvailable 是否配置了任一搜索渠道
func (s *Service) IsAvailable() bool {
	return s != nil && (len(s.bochaKeys) > 0 || len(s.tavilyKeys) > 0)
}

// SearchComprehensiveIntel 围绕一个标的做至多 maxSearches 轮搜索并汇总。
// 单轮失败只丢掉那一轮的结果。
func (s *Service) SearchComprehensiveIntel(ctx context.Context, code, name string, maxSearches int) (*IntelBundle, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("未配置搜索服务")
	}
	queries := []string{
		fmt.Sprintf("%s %s 最新消息", name, code),
		fmt.Sprintf("%s 利好 利空 公告", name),
		fmt.Sprintf("%s 行业 动态", name),
	}
	if maxSearches > 0 && maxSearches < len(queries) {
		queries = queries[:maxSearches]
	}

	bundle := &IntelBundle{}
	for _, q := range queries {
		items, err := s.searchOnce(ctx, q)
		if err != nil {
			log.Printf("搜索失败 query=%q: %v", q, err)
			continue
		}
		bundle.Items = append(bundle.Items, items...)
	}
	return bundle, nil
}

// searchOnce 优先博查，失败回落 Tavily
func (s *Service) searchOnce(ctx context.Context, query string) ([]IntelItem, error) {
	if len(s.bochaKeys) > 0 {
		items, err := s.searchBocha(ctx, query)
		if err == nil {
			return items, nil
		}
		log.Printf("博查搜索失败，尝试Tavily: %v", err)
	}
	if len(s.tavilyKeys) > 0 {
		return s.searchTavily(ctx, query)
	}
	return nil, fmt.Errorf("所有搜索渠道不可用")
}

// nextKey 轮换取 key，服务实例会被多个 worker 并发使用
func (s *Service) nextKey(keys []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := keys[s.keyCursor%len(keys)]
	s.keyCursor++
	return key
}

func (s *Service) searchBocha(ctx context.Context, query string) ([]IntelItem, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+s.nextKey(s.bochaKeys)).
		SetBody(map[string]interface{}{
			"query":     query,
			"freshness": "oneWeek",
			"count":     resultsPerQuery,
		}).
		Post(bochaSearchURL)
	if err != nil {
		return nil, fmt.Errorf("请求博查失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("博查返回错误 %d", resp.StatusCode())
	}
	var items []IntelItem
	gjson.GetBytes(resp.Body(), "data.webPages.value").ForEach(func(_, v gjson.Result) bool {
		items = append(items, IntelItem{
			Title:   v.Get("name").String(),
			Snippet: v.Get("snippet").String(),
			Source:  v.Get("siteName").String(),
		})
		return len(items) < resultsPerQuery
	})
	return items, nil
}

func (s *Service) searchTavily(ctx context.Context, query string) ([]IntelItem, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"api_key":     s.nextKey(s.tavilyKeys),
			"query":       query,
			"max_results": resultsPerQuery,
		}).
		Post(tavilySearchURL)
	if err != nil {
		return nil, fmt.Errorf("请求Tavily失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("Tavily返回错误 %d", resp.StatusCode())
	}
	var items []IntelItem
	gjson.GetBytes(resp.Body(), "results").ForEach(func(_, v gjson.Result) bool {
		items = append(items, IntelItem{
			Title:   v.Get("title").String(),
			Snippet: v.Get("content").String(),
			Source:  v.Get("url").String(),
		})
		return len(items) < resultsPerQuery
	})
	return items, nil
}

// FormatIntelReport 将情报汇总成可注入提示词的文本，无内容时返回空串
func (s *Service) FormatIntelReport(bundle *IntelBundle, name string) string {
	if bundle == nil || len(bundle.Items) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "关于 %s 的近期情报：\n", name)
	for i, item := range bundle.Items {
		fmt.Fprintf(&b, "%d. %s", i+1, item.Title)
		if item.Snippet != "" {
			fmt.Fprintf(&b, "：%s", item.Snippet)
		}
		if item.Source != "" {
			fmt.Fprintf(&b, "（来源：%s）", item.Source)
		}
		b.WriteString("\n")
	}
	return b.String()
}
