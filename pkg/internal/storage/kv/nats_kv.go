package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yeisme/blobvault/pkg/configs"
)

// NATSKV 基于 NATS JetStream KV 的实现，可与事件队列共享同一个 NATS 集群，
// 省去单独部署 Redis。TTL 通过值内包装实现，见 ttl.go.
type NATSKV struct {
	js     nats.JetStreamContext
	kv     nats.KeyValue
	bucket string
	conn   *nats.Conn
}

// NewNATSKV 创建 NATS KV 实例.
func NewNATSKV(ctx context.Context, config *configs.KVConfig) (KVStore, error) {
	natsConfig := config.NATS

	opts := []nats.Option{}
	if natsConfig.User != "" {
		opts = append(opts, nats.UserInfo(natsConfig.User, natsConfig.Password))
	}

	nc, err := nats.Connect(natsConfig.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := js.CreateKeyValue(&nats.KeyValueConfig{
		Bucket: natsConfig.Bucket,
	})
	if err != nil {
		// bucket 已存在时直接取用
		kv, err = js.KeyValue(natsConfig.Bucket)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create/get KV bucket: %w", err)
		}
	}

	return &NATSKV{
		js:     js,
		kv:     kv,
		bucket: natsConfig.Bucket,
		conn:   nc,
	}, nil
}

// Get 获取键的值.
func (n *NATSKV) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := n.kv.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, fmt.Errorf("key not found: %s", key)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	val, expired, _, derr := decodeWithTTL(entry.Value(), time.Now())
	if derr != nil {
		return nil, derr
	}

	if expired {
		// 惰性删除过期键
		_ = n.kv.Delete(key)
		return nil, fmt.Errorf("key not found: %s", key)
	}

	return val, nil
}

// Set 设置键的值.
func (n *NATSKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, _, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	if _, err := n.kv.Put(key, encoded); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	return nil
}

// Delete 删除键.
func (n *NATSKV) Delete(ctx context.Context, key string) error {
	if err := n.kv.Delete(key); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	return nil
}

// Exists 检查键是否存在.
func (n *NATSKV) Exists(ctx context.Context, key string) (bool, error) {
	entry, err := n.kv.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to check key existence: %w", err)
	}

	_, expired, _, derr := decodeWithTTL(entry.Value(), time.Now())
	if derr != nil {
		return false, derr
	}

	if expired {
		_ = n.kv.Delete(key)
		return false, nil
	}

	return true, nil
}

// natsIncrMaxRetries CAS 更新的最大重试次数，超过视为争用过高.
const natsIncrMaxRetries = 8

// Incr 原子自增计数器，首次创建时应用 ttl。
// JetStream KV 没有原生自增，用 revision 做乐观并发控制：
// Create/Update 带上期望的 revision，被并发修改时重读重试.
func (n *NATSKV) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	for range natsIncrMaxRetries {
		entry, err := n.kv.Get(key)
		if errors.Is(err, nats.ErrKeyNotFound) {
			encoded, _, eerr := encodeWithTTL([]byte("1"), ttl)
			if eerr != nil {
				return 0, eerr
			}

			if _, cerr := n.kv.Create(key, encoded); cerr != nil {
				// 并发创建抢先，重读
				continue
			}

			return 1, nil
		}

		if err != nil {
			return 0, fmt.Errorf("failed to get counter: %w", err)
		}

		val, expired, _, derr := decodeWithTTL(entry.Value(), time.Now())
		if derr != nil {
			return 0, derr
		}

		if expired {
			// 窗口已过，从 1 重新开始并刷新过期时间
			encoded, _, eerr := encodeWithTTL([]byte("1"), ttl)
			if eerr != nil {
				return 0, eerr
			}

			if _, uerr := n.kv.Update(key, encoded, entry.Revision()); uerr != nil {
				continue
			}

			return 1, nil
		}

		count, perr := strconv.ParseInt(string(val), 10, 64)
		if perr != nil {
			return 0, fmt.Errorf("counter %s holds non-numeric value: %w", key, perr)
		}

		count++

		next, eerr := reencodeValue(entry.Value(), []byte(strconv.FormatInt(count, 10)))
		if eerr != nil {
			return 0, eerr
		}

		if _, uerr := n.kv.Update(key, next, entry.Revision()); uerr != nil {
			continue
		}

		return count, nil
	}

	return 0, fmt.Errorf("counter %s update contention exceeded %d retries", key, natsIncrMaxRetries)
}

// Keys 获取所有键.
func (n *NATSKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := n.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to get keys: %w", err)
	}

	result := make([]string, 0)

	for _, key := range keys {
		if pattern != "" && key != pattern {
			continue
		}

		if entry, e := n.kv.Get(key); e == nil {
			if _, expired, _, derr := decodeWithTTL(entry.Value(), time.Now()); derr == nil && expired {
				_ = n.kv.Delete(key)
				continue
			}
		}

		result = append(result, key)
	}

	return result, nil
}

// Close 关闭 NATS 连接.
func (n *NATSKV) Close() error {
	n.conn.Close()
	return nil
}

func init() {
	RegisterKVFactory(KVTypeNATS, NewNATSKV)
}
