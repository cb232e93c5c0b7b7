package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

// Key 缓存键
type Key struct {
	Ticker string
	Date   string
	Mode   string
}

func (k Key) sum() [sha256.Size]byte {
	return sha256.Sum256([]byte(k.Ticker + "_" + k.Date + "_" + k.Mode))
}

func (k Key) hash() string {
	sum := k.sum()
	return hex.EncodeToString(sum[:])
}

// entry 缓存文件内容
type entry struct {
	Key       Key                      `json:"key"`
	CreatedAt time.Time                `json:"created_at"`
	Sections  *model.GeneratedSections `json:"sections"`
}

// lockStripes 写锁分段数，键按哈希首字节映射到固定的锁上
const lockStripes = 64

// FileCache 基于文件的生成结果缓存；同一实例上同键的并发未命中经 group 合并
type FileCache struct {
	dir string
	ttl time.Duration
	now func() time.Time

	locks [lockStripes]sync.Mutex
	group singleflight.Group
}

// New 创建缓存，ttl <= 0 时条目永不过期
func New(dir string, ttl time.Duration) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}, nil
}

func (c *FileCache) path(k Key) string {
	return filepath.Join(c.dir, k.hash()+".json")
}

// lockFor 返回键所在分段的写锁
func (c *FileCache) lockFor(k Key) *sync.Mutex {
	return &c.locks[int(k.sum()[0])%lockStripes]
}

// Get 读取缓存，过期或损坏的条目视为未命中并删除
func (c *FileCache) Get(k Key) (*model.GeneratedSections, bool) {
	data, err := os.ReadFile(c.path(k))
	if err != nil {
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.Sections == nil || e.Key != k {
		c.Delete(k)
		return nil, false
	}
	if c.expired(e) {
		c.Delete(k)
		return nil, false
	}
	return e.Sections, true
}

// Set 原子写入：临时文件加 rename，读者不会看到半写入的条目
func (c *FileCache) Set(k Key, sec *model.GeneratedSections) error {
	data, err := json.Marshal(entry{Key: k, CreatedAt: c.now(), Sections: sec})
	if err != nil {
		return err
	}

	l := c.lockFor(k)
	l.Lock()
	defer l.Unlock()

	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, c.path(k)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Delete 删除单个条目
func (c *FileCache) Delete(k Key) {
	l := c.lockFor(k)
	l.Lock()
	defer l.Unlock()
	_ = os.Remove(c.path(k))
}

// Clear 清空缓存，返回删除的条目数
func (c *FileCache) Clear() (int, error) {
	return c.sweep(func(entry) bool { return true })
}

// ClearExpired 仅删除过期或损坏的条目
func (c *FileCache) ClearExpired() (int, error) {
	return c.sweep(c.expired)
}

func (c *FileCache) sweep(match func(entry) bool) (int, error) {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		p := filepath.Join(c.dir, f.Name())
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var e entry
		if json.Unmarshal(data, &e) != nil || match(e) {
			if os.Remove(p) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (c *FileCache) expired(e entry) bool {
	return c.ttl > 0 && c.now().Sub(e.CreatedAt) > c.ttl
}
