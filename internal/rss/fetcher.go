package rss

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// ErrNoBuildTime 订阅源及其条目都没有可解析的时间，无法与历史快照比较。
var ErrNoBuildTime = errors.New("订阅源缺少更新时间")

// StatusError 订阅源返回了非 200 状态码。
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Fetcher 抓取并解析订阅源。
type Fetcher struct {
	parser    *gofeed.Parser
	client    *http.Client
	userAgent string
}

// NewFetcher 创建订阅源抓取器。client 为 nil 时使用不带超时的默认客户端，
// 超时策略由配置决定。
func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if userAgent == "" {
		userAgent = "FeedNotify/1.0"
	}
	return &Fetcher{
		parser:    gofeed.NewParser(),
		client:    client,
		userAgent: userAgent,
	}
}

// Fetch 抓取 url 并返回快照。非 200 状态码返回 *StatusError。
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Snapshot, error) {
	feed, err := f.parseFeed(ctx, url)
	if err != nil {
		return nil, err
	}
	return toSnapshot(feed)
}

// parseFeed 请求并解析 Feed URL。
func (f *Fetcher) parseFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求订阅源失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	feed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("解析订阅源失败: %w", err)
	}
	return feed, nil
}

// toSnapshot 将 gofeed 结果转换为快照。
// 构建时间依次取 updated（RSS lastBuildDate）、published（RSS pubDate）、
// 最新条目时间。
func toSnapshot(feed *gofeed.Feed) (*Snapshot, error) {
	entries := make([]Entry, 0, len(feed.Items))
	var newest time.Time
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		e := Entry{
			Title:     item.Title,
			Link:      item.Link,
			UpdatedAt: itemTime(item),
		}
		if e.UpdatedAt.After(newest) {
			newest = e.UpdatedAt
		}
		entries = append(entries, e)
	}

	var builtAt time.Time
	switch {
	case feed.UpdatedParsed != nil:
		builtAt = *feed.UpdatedParsed
	case feed.PublishedParsed != nil:
		builtAt = *feed.PublishedParsed
	case !newest.IsZero():
		builtAt = newest
	default:
		return nil, ErrNoBuildTime
	}

	return &Snapshot{
		Title:   feed.Title,
		Link:    feed.Link,
		BuiltAt: builtAt,
		Entries: entries,
	}, nil
}

// itemTime 返回条目的更新时间，没有则退回发布时间。
func itemTime(item *gofeed.Item) time.Time {
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	return time.Time{}
}
