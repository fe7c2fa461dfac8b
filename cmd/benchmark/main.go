// Benchmark tool: hammers one post with concurrent comment creates and deletes,
// reports latency and QPS, then checks the post's comment count against the
// comments actually stored.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"blog/backend/internal/auth"
	"blog/backend/internal/blog"
	"blog/backend/internal/config"
	"blog/backend/internal/content"
	"blog/backend/internal/db"
	"blog/backend/internal/model"
	"blog/backend/internal/reconcile"
	"blog/backend/internal/store/postgres"
)

func main() {
	// CLI flags to control workload.
	var configPath string
	var concurrency int
	var requests int
	var deleteRatio float64
	flag.StringVar(&configPath, "config", "", "path to YAML config file")
	flag.IntVar(&concurrency, "concurrency", 50, "number of concurrent workers")
	flag.IntVar(&requests, "requests", 1000, "total number of requests")
	flag.Float64Var(&deleteRatio, "delete-ratio", 0.3, "share of requests that delete a comment instead of creating one")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	// Warnings from failed reconciles matter here; info lines do not.
	logger := slog.New(slog.NewTextHandler(log.Writer(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	st := postgres.New(pool)
	rec := reconcile.New(st, logger, nil)
	blogSvc := blog.NewService(st, rec, blog.WithLogger(logger))
	authSvc := auth.NewService(st, rec, auth.WithLogger(logger), auth.WithBcryptCost(bcrypt.MinCost))

	author, reader, post, err := setup(ctx, authSvc, blogSvc)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}

	// result is a per-request measurement for aggregation.
	type result struct {
		latency time.Duration
		deleted bool
		warned  bool
		err     error
	}

	// jobs is a bounded channel; each entry indicates "run one request".
	jobs := make(chan struct{}, requests)
	results := make(chan result, requests)
	for i := 0; i < requests; i++ {
		jobs <- struct{}{}
	}
	close(jobs)

	// created holds comments that a later job may delete.
	var mu sync.Mutex
	var created []uuid.UUID
	takeCreated := func() (uuid.UUID, bool) {
		mu.Lock()
		defer mu.Unlock()
		if len(created) == 0 {
			return uuid.Nil, false
		}
		id := created[len(created)-1]
		created = created[:len(created)-1]
		return id, true
	}

	var wg sync.WaitGroup
	wg.Add(concurrency)

	// Start N workers to process jobs in parallel.
	startAll := time.Now()
	for w := 0; w < concurrency; w++ {
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for range jobs {
				start := time.Now()
				if r.Float64() < deleteRatio {
					if id, ok := takeCreated(); ok {
						res, err := blogSvc.DeleteComment(ctx, id.String(), reader)
						warned := err == nil && len(res.Warnings) > 0
						results <- result{latency: time.Since(start), deleted: true, warned: warned, err: err}
						continue
					}
				}
				res, err := blogSvc.CreateComment(ctx, post.ID.String(), reader, "benchmark comment")
				if err == nil {
					mu.Lock()
					created = append(created, res.Comment.ID)
					mu.Unlock()
				}
				warned := err == nil && len(res.Warnings) > 0
				results <- result{latency: time.Since(start), warned: warned, err: err}
			}
		}(time.Now().UnixNano() + int64(w))
	}
	wg.Wait()
	close(results)
	totalDur := time.Since(startAll)

	// Aggregate metrics: average latency, p95, and QPS.
	var latencies []time.Duration
	var errs, creates, deletes, warnings int
	for r := range results {
		if r.err != nil {
			errs++
			continue
		}
		if r.deleted {
			deletes++
		} else {
			creates++
		}
		if r.warned {
			warnings++
		}
		latencies = append(latencies, r.latency)
	}
	if len(latencies) == 0 {
		log.Fatalf("no successful requests (errors=%d)", errs)
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg := time.Duration(int64(sum) / int64(len(latencies)))
	p95 := latencies[max(int(float64(len(latencies))*0.95)-1, 0)]
	qps := float64(len(latencies)) / totalDur.Seconds()

	final, err := blogSvc.GetPost(ctx, post.ID.String(), author)
	if err != nil {
		log.Fatalf("reload post: %v", err)
	}
	live, err := blogSvc.ListComments(ctx, post.ID.String(), author)
	if err != nil {
		log.Fatalf("list comments: %v", err)
	}

	fmt.Printf("Requests: %d (creates=%d deletes=%d), Concurrency: %d, Errors: %d, Warnings: %d\n",
		len(latencies), creates, deletes, concurrency, errs, warnings)
	fmt.Printf("Avg latency: %s\n", avg.Truncate(time.Microsecond))
	fmt.Printf("P95 latency: %s\n", p95.Truncate(time.Microsecond))
	fmt.Printf("Total QPS: %.2f\n", qps)
	fmt.Printf("total_comments=%d live=%d expected=%d\n", final.TotalComments, len(live), creates-deletes)
	if final.TotalComments != len(live) {
		log.Fatalf("comment count drifted: stored %d, live %d", final.TotalComments, len(live))
	}
}

// setup creates throwaway accounts and a published post to comment on.
func setup(ctx context.Context, authSvc *auth.Service, blogSvc *blog.Service) (author, reader *model.Identity, post *model.Post, err error) {
	suffix := uuid.NewString()[:8]
	a, err := authSvc.CreateUser(ctx, "bench-author-"+suffix, "benchmark", true)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create author: %w", err)
	}
	rd, err := authSvc.CreateUser(ctx, "bench-reader-"+suffix, "benchmark", false)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create reader: %w", err)
	}
	author, reader = a.Identity(), rd.Identity()

	post, err = blogSvc.CreatePost(ctx, author, blog.PostInput{
		Blocks: []content.RawBlock{{Title: "Benchmark " + suffix, Body: "Target of the comment benchmark."}},
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create post: %w", err)
	}
	if post, err = blogSvc.PublishPost(ctx, post.ID.String(), author, "publish"); err != nil {
		return nil, nil, nil, fmt.Errorf("publish post: %w", err)
	}
	return author, reader, post, nil
}
