package source

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	dbinit "panfm/core/db/init"
)

// HTTPSource 通过设备管理API拉取指标
type HTTPSource struct {
	client *http.Client
}

// NewHTTPSource 创建HTTP指标源
func NewHTTPSource(timeout time.Duration, verifyTLS bool) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !verifyTLS, // 设备普遍使用自签名证书
		},
		MaxIdleConnsPerHost: 2,
	}

	return &HTTPSource{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// FetchSnapshot 从设备拉取一次原始快照
func (s *HTTPSource) FetchSnapshot(ctx context.Context, device *dbinit.Device) (*Snapshot, error) {
	url := fmt.Sprintf("https://%s:%d/api/v1/metrics/summary", device.Host, device.APIPort)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if key := apiKeyFor(device.ID); key != "" {
		req.Header.Set("X-PAN-KEY", key)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("device request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("device returned status %d: %s", resp.StatusCode, string(body))
	}

	snapshot := &Snapshot{}
	if err := json.NewDecoder(resp.Body).Decode(snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return snapshot, nil
}

// apiKeyFor 按设备读取API密钥（环境变量 PANFM_API_KEY_<deviceID> 优先，否则 PANFM_API_KEY）
func apiKeyFor(deviceID string) string {
	if key := os.Getenv("PANFM_API_KEY_" + deviceID); key != "" {
		return key
	}
	return os.Getenv("PANFM_API_KEY")
}
