package pushover

import (
	"context"
	"strings"

	"github.com/iabetor/feednotify/internal/logger"
	"github.com/iabetor/feednotify/internal/rss"
)

// Config 通知内容配置。
type Config struct {
	APIKey   string
	UserKey  string
	Title    string // 每条通知固定的标题
	URLTitle string
}

// Notifier 为每个新条目发送一条通知。
type Notifier struct {
	client *Client
	cfg    Config
}

// NewNotifier 创建通知器。
func NewNotifier(client *Client, cfg Config) *Notifier {
	return &Notifier{client: client, cfg: cfg}
}

// MessageFor 根据条目构建推送消息：标题固定，正文为条目标题，链接为条目链接。
func (n *Notifier) MessageFor(entry rss.Entry) Message {
	return Message{
		Token:    n.cfg.APIKey,
		User:     n.cfg.UserKey,
		Title:    n.cfg.Title,
		Message:  entry.Title,
		URL:      entry.Link,
		URLTitle: n.cfg.URLTitle,
	}
}

// Notify 发送一条通知并记录结果。失败只记录日志，不重试。
func (n *Notifier) Notify(ctx context.Context, entry rss.Entry) Result {
	logger.Infof("[pushover] 发送通知: %s", entry.Title)

	res := n.client.Send(ctx, n.MessageFor(entry))
	switch res.Outcome {
	case OutcomeDelivered:
		logger.Infof("[pushover] 推送请求 %s 成功 (状态码 %d)", res.Request, res.StatusCode)
	case OutcomeTransportFailure:
		logger.Errorf("[pushover] 推送失败，无法连接接口: %v", res.Err)
	case OutcomeRejected:
		logger.Errorf("[pushover] 推送被拒绝 (状态码 %d)，请求 %s，错误: [%s] %v",
			res.StatusCode, res.Request, strings.Join(res.Errors, "; "), errOrEmpty(res.Err))
	case OutcomeAcceptedButFailed:
		logger.Errorf("[pushover] 推送请求 %s 返回失败状态 (状态码 %d)，错误: [%s] %v",
			res.Request, res.StatusCode, strings.Join(res.Errors, "; "), errOrEmpty(res.Err))
	}
	return res
}

func errOrEmpty(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
