// Package cache 用 redis 缓存组织的审批配置，并为批量导入提供按组织的互斥锁。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/config"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
)

var (
	ErrCacheMiss  = errors.New("cache miss")
	ErrImportBusy = errors.New("another import is running for this organization")
)

type Cache struct {
	cfg *config.Config
	rdb *redis.Client
}

func New(cfg *config.Config, rdb *redis.Client) *Cache {
	return &Cache{cfg: cfg, rdb: rdb}
}

func (c *Cache) timeout() time.Duration {
	return time.Duration(c.cfg.Redis.OperationTimeout) * time.Second
}

func approvalSettingsKey(organizationID uuid.UUID) string {
	return fmt.Sprintf("approval_settings_%s", organizationID)
}

func importLockKey(organizationID uuid.UUID) string {
	return fmt.Sprintf("import_lock_%s", organizationID)
}

// GetApprovalSettings 未命中时返回 ErrCacheMiss
func (c *Cache) GetApprovalSettings(ctx context.Context, organizationID uuid.UUID) (*domain.ApprovalSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	data, err := c.rdb.Get(ctx, approvalSettingsKey(organizationID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	settings := &domain.ApprovalSettings{}
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}
	settings.OrganizationID = organizationID

	return settings, nil
}

func (c *Cache) SetApprovalSettings(ctx context.Context, settings *domain.ApprovalSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	ttl := time.Duration(c.cfg.Redis.SettingsCacheTTL) * time.Second
	return c.rdb.Set(ctx, approvalSettingsKey(settings.OrganizationID), data, ttl).Err()
}

func (c *Cache) InvalidateApprovalSettings(ctx context.Context, organizationID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	return c.rdb.Del(ctx, approvalSettingsKey(organizationID)).Err()
}

// 只有持有者本人才能释放锁，防止锁过期后误删别人的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireImportLock 同一组织同一时间只允许一个批量导入。
// 返回的 release 必须被调用；锁在 IMPORT_LOCK_TTL 之后也会自动过期。
func (c *Cache) AcquireImportLock(ctx context.Context, organizationID uuid.UUID) (func(), error) {
	token := uuid.NewString()
	key := importLockKey(organizationID)

	lockCtx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	ttl := time.Duration(c.cfg.Redis.ImportLockTTL) * time.Second
	ok, err := c.rdb.SetNX(lockCtx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrImportBusy
	}

	release := func() {
		// 请求可能已经结束，释放锁不跟随请求的 context
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout())
		defer cancel()
		_ = releaseScript.Run(releaseCtx, c.rdb, []string{key}, token).Err()
	}

	return release, nil
}
