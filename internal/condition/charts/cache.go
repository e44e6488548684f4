package charts

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const megabyte = 1024 * 1024

// PNGCache keeps rendered charts for a short while. Entries larger than
// 1/1024 of the cache size are not stored.
type PNGCache struct {
	cache *freecache.Cache
	ttl   time.Duration
}

func NewPNGCache(sizeMB int, ttl time.Duration) *PNGCache {
	if sizeMB <= 0 {
		sizeMB = 64
	}
	return &PNGCache{
		cache: freecache.NewCache(sizeMB * megabyte),
		ttl:   ttl,
	}
}

func (c *PNGCache) Get(key string) ([]byte, bool) {
	png, err := c.cache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return png, true
}

func (c *PNGCache) Set(key string, png []byte) {
	expire := int(c.ttl.Seconds())
	if expire < 1 {
		expire = 1
	}
	if err := c.cache.Set([]byte(key), png, expire); err != nil {
		log.Debugf("chart cache set [%s]: %s", key, err)
	}
}

// Clear drops all rendered charts, e.g. after the snapshot was refreshed.
func (c *PNGCache) Clear() {
	c.cache.Clear()
}

func (c *PNGCache) EntryCount() int64 {
	return c.cache.EntryCount()
}

// CacheKey digests the parts identifying one rendered chart.
func CacheKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
