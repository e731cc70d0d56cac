package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	dbinit "panfm/core/db/init"

	"github.com/redis/go-redis/v9"
)

// RedisCache Redis缓存客户端
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisCache 创建新的Redis缓存客户端
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx := context.Background()

	// 测试连接
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		ctx:    ctx,
	}, nil
}

// Close 关闭Redis连接
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// === DeviceStatus 操作 ===

// SetDeviceStatus 设置设备实时状态
func (r *RedisCache) SetDeviceStatus(deviceID string, status *dbinit.DeviceStatus, ttl time.Duration) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal device status: %w", err)
	}

	key := fmt.Sprintf("device:status:%s", deviceID)
	return r.client.Set(r.ctx, key, data, ttl).Err()
}

// GetDeviceStatus 获取设备实时状态
func (r *RedisCache) GetDeviceStatus(deviceID string) (*dbinit.DeviceStatus, error) {
	key := fmt.Sprintf("device:status:%s", deviceID)
	data, err := r.client.Get(r.ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	status := &dbinit.DeviceStatus{}
	if err := json.Unmarshal(data, status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device status: %w", err)
	}

	return status, nil
}

// === 最新样本缓存操作 ===

// SetLatestSample 缓存设备最新样本
func (r *RedisCache) SetLatestSample(deviceID string, sample *dbinit.Sample, ttl time.Duration) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	key := fmt.Sprintf("device:sample:%s", deviceID)
	return r.client.Set(r.ctx, key, data, ttl).Err()
}

// GetLatestSample 获取设备最新样本缓存
func (r *RedisCache) GetLatestSample(deviceID string) (*dbinit.Sample, error) {
	key := fmt.Sprintf("device:sample:%s", deviceID)
	data, err := r.client.Get(r.ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sample := &dbinit.Sample{}
	if err := json.Unmarshal(data, sample); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sample: %w", err)
	}

	return sample, nil
}
