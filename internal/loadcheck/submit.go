package loadcheck

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/eblviz/internal/domain/dosage"
	"github.com/okian/eblviz/internal/domain/estimate"
	"github.com/okian/eblviz/pkg/logger"
)

// submitAll posts every submission through a worker pool and records each
// result in place.
func submitAll(ctx context.Context, config *Config, client *HTTPClient, subs []Submission, stats *Stats) {
	log := logger.Get().Named("loadcheck")
	log.Info(ctx, "submitting dosage vectors",
		logger.Int("count", len(subs)),
		logger.Int("workers", config.Workers))

	var (
		submitted  int64
		matched    int64
		superseded int64
		failed     int64
		mismatched int64
	)

	jobs := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					return
				}
				res := submitOne(ctx, config, client, subs[idx])
				subs[idx].Result = res

				atomic.AddInt64(&submitted, 1)
				switch res {
				case resultMatched:
					atomic.AddInt64(&matched, 1)
				case resultSuperseded:
					atomic.AddInt64(&superseded, 1)
				case resultMismatched:
					atomic.AddInt64(&mismatched, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}

				if config.Verbose {
					log.Debug(ctx, "vector submitted",
						logger.Int("index", idx),
						logger.String("group", string(subs[idx].Group)),
						logger.String("result", res))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range subs {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()

	stats.Submitted = int(atomic.LoadInt64(&submitted))
	stats.Matched = int(atomic.LoadInt64(&matched))
	stats.Superseded = int(atomic.LoadInt64(&superseded))
	stats.Failed = int(atomic.LoadInt64(&failed))
	stats.Mismatched = int(atomic.LoadInt64(&mismatched))

	log.Info(ctx, "submission completed",
		logger.Int("matched", stats.Matched),
		logger.Int("superseded", stats.Superseded),
		logger.Int("mismatched", stats.Mismatched),
		logger.Int("failed", stats.Failed))
}

// submitOne posts a single vector and classifies the reply. The estimate is
// always checked against the doses the reply carries, since a concurrent
// update may have replaced ours before the reply was built.
func submitOne(ctx context.Context, config *Config, client *HTTPClient, sub Submission) string {
	reqCtx, cancel := context.WithTimeout(ctx, config.Timeout+time.Second)
	defer cancel()

	var reply doseReply
	if err := client.postJSON(reqCtx, endpoint(sub), sub.Body, &reply); err != nil {
		logger.Get().Warn(ctx, "vector submission failed", logger.Error(err))
		return resultFailed
	}
	if !estimateMatches(estimatorFor(config, sub.Group), reply.Doses, reply.Estimate) {
		return resultMismatched
	}
	if reply.Doses != sub.Doses {
		return resultSuperseded
	}
	return resultMatched
}

func estimatorFor(config *Config, g dosage.Group) *estimate.Estimator {
	if g == dosage.GroupAnimation {
		return config.Animation
	}
	return config.Prediction
}

// estimateMatches reports whether got equals base + Σ dose×weight for v.
func estimateMatches(e *estimate.Estimator, v dosage.Vector, got float64) bool {
	return math.Abs(e.Estimate(v)-got) <= estimateTolerance
}
