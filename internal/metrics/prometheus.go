package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 采集指标
	CollectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panfm_collections_total",
			Help: "采集周期总数",
		},
		[]string{"device_id", "trigger"},
	)

	CollectionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panfm_collection_errors_total",
			Help: "采集失败总数",
		},
		[]string{"device_id"},
	)

	CollectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "panfm_collection_duration_seconds",
			Help:    "单次采集耗时（秒）",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"device_id"},
	)

	// 样本指标
	SamplesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "panfm_samples_written_total",
			Help: "写入样本总数",
		},
	)

	// 告警指标
	AlertsFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panfm_alerts_fired_total",
			Help: "触发告警总数",
		},
		[]string{"metric_type", "severity"},
	)

	AlertsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panfm_alerts_suppressed_total",
			Help: "被抑制告警总数",
		},
		[]string{"reason"},
	)

	// 通知指标
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panfm_notifications_sent_total",
			Help: "通知投递总数",
		},
		[]string{"channel_type", "status"},
	)

	// 队列指标
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "panfm_request_queue_depth",
			Help: "按需采集队列深度",
		},
	)

	// API请求指标
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panfm_http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "endpoint", "status"},
	)
)
