package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dbinit "panfm/core/db/init"
)

func testEvent() *dbinit.AlertEvent {
	return &dbinit.AlertEvent{
		ID:             "evt-1",
		ConfigID:       "cfg-1",
		DeviceID:       "dev-1",
		MetricType:     "cpu",
		Severity:       "critical",
		Message:        "设备 dev-1 指标 cpu 当前值 95.00 > 阈值 80.00",
		ActualValue:    95,
		ThresholdValue: 80,
		TriggeredAt:    time.Now().UTC(),
	}
}

func webhookChannel(id, url string) *dbinit.NotificationChannel {
	return &dbinit.NotificationChannel{
		ID:      id,
		Type:    "webhook",
		Name:    "test-webhook",
		Config:  fmt.Sprintf(`{"url":%q}`, url),
		Enabled: true,
	}
}

func TestDispatchWebhook(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("解析payload失败: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dispatcher := NewDispatcher(5 * time.Second)
	results := dispatcher.Dispatch(testEvent(), []*dbinit.NotificationChannel{
		webhookChannel("ch-1", server.URL),
	})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !results[0].Success {
		t.Fatalf("投递应成功: %s", results[0].Error)
	}
	if payload["device_id"] != "dev-1" || payload["severity"] != "critical" {
		t.Errorf("payload字段异常: %+v", payload)
	}
	if payload["actual"].(float64) != 95 {
		t.Errorf("actual应为95: %v", payload["actual"])
	}
}

func TestDispatchChannelIsolation(t *testing.T) {
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer okServer.Close()

	failServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failServer.Close()

	dispatcher := NewDispatcher(5 * time.Second)
	results := dispatcher.Dispatch(testEvent(), []*dbinit.NotificationChannel{
		webhookChannel("ch-fail", failServer.URL),
		webhookChannel("ch-ok", okServer.URL),
	})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// 首通道失败不影响后续通道
	if results[0].Success {
		t.Error("失败通道应返回失败")
	}
	if results[0].Error == "" {
		t.Error("失败通道应带错误信息")
	}
	if !results[1].Success {
		t.Errorf("正常通道应成功: %s", results[1].Error)
	}
}

func TestDispatchInvalidConfig(t *testing.T) {
	dispatcher := NewDispatcher(5 * time.Second)

	tests := []struct {
		name    string
		channel *dbinit.NotificationChannel
	}{
		{"未知类型", &dbinit.NotificationChannel{ID: "ch-1", Type: "sms", Config: `{}`}},
		{"配置非JSON", &dbinit.NotificationChannel{ID: "ch-2", Type: "webhook", Config: `not-json`}},
		{"缺少URL", &dbinit.NotificationChannel{ID: "ch-3", Type: "webhook", Config: `{}`}},
		{"邮件缺少收件人", &dbinit.NotificationChannel{ID: "ch-4", Type: "email", Config: `{"smtp_host":"mail.local"}`}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			results := dispatcher.Dispatch(testEvent(), []*dbinit.NotificationChannel{tt.channel})
			if len(results) != 1 {
				t.Fatalf("expected 1 result, got %d", len(results))
			}
			if results[0].Success {
				t.Error("非法配置应返回失败")
			}
		})
	}
}
