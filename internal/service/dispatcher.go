package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	dbinit "panfm/core/db/init"
	"panfm/core/internal/metrics"
	"panfm/core/pkg/logger"

	"go.uber.org/zap"
)

// DeliveryResult 单通道投递结果
type DeliveryResult struct {
	ChannelID   string `json:"channel_id"`
	ChannelType string `json:"channel_type"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// EmailChannelConfig 邮件渠道配置
type EmailChannelConfig struct {
	SMTPHost string   `json:"smtp_host"`
	SMTPPort int      `json:"smtp_port"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

// WebhookChannelConfig Webhook渠道配置
type WebhookChannelConfig struct {
	URL string `json:"url"`
}

// TelegramChannelConfig Telegram渠道配置
type TelegramChannelConfig struct {
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
}

// Dispatcher 通知分发器
type Dispatcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewDispatcher 创建通知分发器
func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Dispatch 向所有渠道投递告警事件（单通道失败互不影响）
func (d *Dispatcher) Dispatch(event *dbinit.AlertEvent, channels []*dbinit.NotificationChannel) []DeliveryResult {
	results := make([]DeliveryResult, 0, len(channels))

	for _, ch := range channels {
		result := DeliveryResult{
			ChannelID:   ch.ID,
			ChannelType: ch.Type,
			Success:     true,
		}

		var err error
		switch ch.Type {
		case "email":
			err = d.sendEmail(event, ch)
		case "webhook":
			err = d.sendWebhook(event, ch)
		case "telegram":
			err = d.sendTelegram(event, ch)
		default:
			err = fmt.Errorf("unknown channel type: %s", ch.Type)
		}

		if err != nil {
			result.Success = false
			result.Error = err.Error()
			metrics.NotificationsSent.WithLabelValues(ch.Type, "failed").Inc()
			logger.Error("通知投递失败",
				zap.String("channel_id", ch.ID),
				zap.String("channel_type", ch.Type),
				zap.String("event_id", event.ID),
				zap.Error(err))
		} else {
			metrics.NotificationsSent.WithLabelValues(ch.Type, "success").Inc()
			logger.Info("通知投递成功",
				zap.String("channel_id", ch.ID),
				zap.String("channel_type", ch.Type),
				zap.String("event_id", event.ID))
		}

		results = append(results, result)
	}

	return results
}

func (d *Dispatcher) sendEmail(event *dbinit.AlertEvent, ch *dbinit.NotificationChannel) error {
	cfg := &EmailChannelConfig{}
	if err := json.Unmarshal([]byte(ch.Config), cfg); err != nil {
		return fmt.Errorf("invalid email config: %w", err)
	}
	if cfg.SMTPHost == "" || len(cfg.To) == 0 {
		return fmt.Errorf("email config missing smtp_host or recipients")
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	subject := fmt.Sprintf("[%s] 防火墙告警: %s", strings.ToUpper(event.Severity), event.MetricType)
	body := fmt.Sprintf("%s\r\n\r\n触发时间: %s\r\n实际值: %.2f\r\n阈值: %.2f\r\n",
		event.Message, event.TriggeredAt.Format(time.RFC3339), event.ActualValue, event.ThresholdValue)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, strings.Join(cfg.To, ", "), subject, body)

	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}

	return smtp.SendMail(addr, auth, from, cfg.To, []byte(msg))
}

func (d *Dispatcher) sendWebhook(event *dbinit.AlertEvent, ch *dbinit.NotificationChannel) error {
	cfg := &WebhookChannelConfig{}
	if err := json.Unmarshal([]byte(ch.Config), cfg); err != nil {
		return fmt.Errorf("invalid webhook config: %w", err)
	}
	if cfg.URL == "" {
		return fmt.Errorf("webhook config missing url")
	}

	data, err := json.Marshal(map[string]interface{}{
		"event_id":     event.ID,
		"device_id":    event.DeviceID,
		"metric_type":  event.MetricType,
		"severity":     event.Severity,
		"message":      event.Message,
		"actual":       event.ActualValue,
		"threshold":    event.ThresholdValue,
		"triggered_at": event.TriggeredAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	resp, err := d.client.Post(cfg.URL, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func (d *Dispatcher) sendTelegram(event *dbinit.AlertEvent, ch *dbinit.NotificationChannel) error {
	cfg := &TelegramChannelConfig{}
	if err := json.Unmarshal([]byte(ch.Config), cfg); err != nil {
		return fmt.Errorf("invalid telegram config: %w", err)
	}
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return fmt.Errorf("telegram config missing bot_token or chat_id")
	}

	emoji := "ℹ️"
	switch event.Severity {
	case "warning":
		emoji = "⚠️"
	case "critical":
		emoji = "🚨"
	}

	text := fmt.Sprintf("%s *防火墙告警*\n\n%s", emoji, event.Message)

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", cfg.BotToken)
	data, _ := json.Marshal(map[string]interface{}{
		"chat_id":    cfg.ChatID,
		"text":       text,
		"parse_mode": "Markdown",
	})

	resp, err := d.client.Post(url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}
