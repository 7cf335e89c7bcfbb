// pkg/messaging/nats.go
package messaging

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/stan.go"

	"StockPilot/pkg/model"
)

// ResultEvent 分析结果事件的线格式
type ResultEvent struct {
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	OperationAdvice string    `json:"operation_advice"`
	SentimentScore  int       `json:"sentiment_score"`
	RiskLevel       string    `json:"risk_level"`
	Summary         string    `json:"summary"`
	PublishedAt     time.Time `json:"published_at"`
}

// Publisher 将分析结果发布到NATS Streaming的发布器
type Publisher struct {
	conn    stan.Conn
	subject string
}

// NewPublisher 连接NATS Streaming并返回发布器
func NewPublisher(natsURL, clusterID, clientID, subject string) (*Publisher, error) {
	conn, err := stan.Connect(
		clusterID,
		clientID,
		stan.NatsURL(natsURL),
		stan.Pings(10, 5),
		stan.SetConnectionLostHandler(func(_ stan.Conn, err error) {
			log.Printf("NATS连接丢失: %v", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("连接NATS失败: %w", err)
	}
	if subject == "" {
		subject = "analysis.results"
	}
	return &Publisher{conn: conn, subject: subject}, nil
}

// PublishResult 发布一条分析结果事件
func (p *Publisher) PublishResult(result *model.AnalysisResult) error {
	event := ResultEvent{
		Code:            result.Code,
		Name:            result.Name,
		OperationAdvice: result.OperationAdvice,
		SentimentScore:  result.SentimentScore,
		RiskLevel:       result.RiskLevel,
		Summary:         result.Summary,
		PublishedAt:     time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化结果事件失败: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("发布结果到 %s 失败: %w", p.subject, err)
	}
	log.Printf("结果事件已发布: %s -> %s", result.Code, p.subject)
	return nil
}

// Subscribe 订阅结果事件（供下游服务消费）
func (p *Publisher) Subscribe(handler func(*ResultEvent)) (stan.Subscription, error) {
	sub, err := p.conn.Subscribe(
		p.subject,
		func(msg *stan.Msg) {
			var event ResultEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				log.Printf("解析结果事件失败: %v", err)
				return
			}
			handler(&event)
		},
		stan.StartWithLastReceived(),
	)
	if err != nil {
		return nil, fmt.Errorf("订阅 %s 失败: %w", p.subject, err)
	}
	return sub, nil
}

// Close 关闭底层连接
func (p *Publisher) Close() error {
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
