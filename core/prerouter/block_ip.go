package prerouter

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/caasmo/credkeeper/core"
	"github.com/caasmo/credkeeper/topk"
)

const (
	blockingDuration = 3 * time.Minute
	defaultBlockCost = 1
)

// 1 hour buckets
const bucketDurationSec = 3600

// getTimeBucket returns the bucket number for a given time (periods since Unix epoch)
func getTimeBucket(t time.Time) int64 {
	return t.Unix() / bucketDurationSec
}

// formatBlockKey creates a consistent cache key for blocked IPs
func formatBlockKey(ip string, bucket int64) string {
	return fmt.Sprintf("%s|%d", ip, bucket)
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return ip
}

// sketchLevels defines the parameter presets for different sensitivity levels.
// These presets balance memory usage against detection accuracy.
// - "low":    ~10 KB memory. For low-traffic sites (< 50 RPS). Less accurate.
// - "medium": ~120 KB memory. Balanced profile for most use cases (50-500 RPS).
// - "high":   ~640 KB memory. For high-traffic sites (> 500 RPS) needing max accuracy.
var sketchLevels = map[string]topk.SketchParams{
	"low": {
		K:               2,
		WindowSize:      5,
		Width:           256,
		Depth:           2,
		TickSize:        100,
		MaxSharePercent: 50,
		ActivationRPS:   10,
	},
	"medium": {
		K:               3,
		WindowSize:      10,
		Width:           1024,
		Depth:           3,
		TickSize:        100,
		MaxSharePercent: 40,
		ActivationRPS:   50,
	},
	"high": {
		K:               5,
		WindowSize:      10,
		Width:           4096,
		Depth:           4,
		TickSize:        200,
		MaxSharePercent: 30,
		ActivationRPS:   500,
	},
}

// BlockIp is a circuit breaker against single-source request floods: a
// top-k sketch tracks heavy hitters and the cache remembers blocked IPs
// for a few minutes. It is not an application-aware rate limiter.
type BlockIp struct {
	app    *core.App
	sketch *topk.TopKSketch
}

// NewBlockIp creates a new BlockIp instance using the configured level preset.
func NewBlockIp(app *core.App) *BlockIp {
	level := app.Config().BlockIp.Level
	// The level is validated in config.Validate.
	params := sketchLevels[level]

	return &BlockIp{
		app:    app,
		sketch: topk.New(params),
	}
}

func (b *BlockIp) Execute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.IsEnabled() {
			ip := clientIP(r)

			if b.IsBlocked(ip) {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			b.Process(ip)
		}

		next.ServeHTTP(w, r)
	})
}

// IsEnabled checks the runtime switch. Enabled controls whether the
// middleware runs at all, Activated whether it actually blocks.
func (b *BlockIp) IsEnabled() bool {
	cfg := b.app.Config().BlockIp
	return cfg.Enabled && cfg.Activated
}

// IsBlocked checks if a given IP address is currently blocked by looking in the cache.
func (b *BlockIp) IsBlocked(ip string) bool {
	currentBucket := getTimeBucket(time.Now())
	key := formatBlockKey(ip, currentBucket)
	_, found := b.app.Cache().Get(key)
	return found
}

// Block adds the given IP to the block list. The entry is written to the
// current time bucket and, when the blocking window crosses a bucket
// boundary, to the next one with the remaining TTL.
func (b *BlockIp) Block(ip string) error {
	now := time.Now()
	currentBucket := getTimeBucket(now)
	nextBucket := currentBucket + 1

	currentKey := formatBlockKey(ip, currentBucket)
	if !b.app.Cache().SetWithTTL(currentKey, true, defaultBlockCost, blockingDuration) {
		return fmt.Errorf("failed to block IP %s in current bucket %d", ip, currentBucket)
	}
	b.app.Logger().Info("IP blocked", "ip", ip, "bucket", currentBucket, "duration", blockingDuration)

	timeUntilNextBucket := (nextBucket * bucketDurationSec) - now.Unix()
	ttlNext := blockingDuration - time.Duration(timeUntilNextBucket)*time.Second

	if ttlNext > 0 {
		nextKey := formatBlockKey(ip, nextBucket)
		if !b.app.Cache().SetWithTTL(nextKey, true, defaultBlockCost, ttlNext) {
			return fmt.Errorf("failed to block IP %s in next bucket %d", ip, nextBucket)
		}
	}

	return nil
}

// Process feeds the IP to the sketch and blocks whatever it reports.
// Blocking runs asynchronously; the cache handles concurrent writes for the
// same key safely, and blocking an IP twice is harmless.
func (b *BlockIp) Process(ip string) {
	blockedIPs := b.sketch.ProcessTick(ip)
	if len(blockedIPs) == 0 {
		return
	}

	go func() {
		for _, blocked := range blockedIPs {
			if err := b.Block(blocked); err != nil {
				b.app.Logger().Error("failed to block IP", "ip", blocked, "err", err)
			}
		}
	}()
}
