// Seed tool: fills the blog database with synthetic users, posts and comments.
// Rows go in through batched INSERTs; every post's comment count is then
// reconciled from the inserted comments.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"blog/backend/internal/config"
	"blog/backend/internal/db"
	"blog/backend/internal/model"
	"blog/backend/internal/reconcile"
	"blog/backend/internal/store/postgres"
)

func main() {
	// CLI flags define workload characteristics.
	var configPath string
	var numAuthors int
	var numReaders int
	var numPosts int
	var maxComments int
	var batchSize int
	var password string
	var parallel int
	flag.StringVar(&configPath, "config", "", "path to YAML config file")
	flag.IntVar(&numAuthors, "authors", 5, "number of author accounts")
	flag.IntVar(&numReaders, "readers", 100, "number of reader accounts")
	flag.IntVar(&numPosts, "posts", 1000, "number of posts to insert")
	flag.IntVar(&maxComments, "comments", 20, "maximum comments per post")
	flag.IntVar(&batchSize, "batch", 1000, "insert batch size")
	flag.StringVar(&password, "password", "password", "password shared by every seeded account")
	flag.IntVar(&parallel, "parallel", 8, "concurrent reconciles")
	flag.Parse()
	if numAuthors < 1 {
		log.Fatalf("need at least one author")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := db.MigrateUp(cfg.Database.URL, slog.Default()); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	// Local RNG instance (no global rand.Seed); keeps randomness explicit and testable.
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	s := &seeder{pool: pool, r: r, batchSize: batchSize, batch: &pgx.Batch{}}

	start := time.Now()
	postIDs, err := s.seed(ctx, numAuthors, numReaders, numPosts, maxComments, password)
	if err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	log.Printf("inserted rows in %s", time.Since(start).Truncate(time.Millisecond))

	st := postgres.New(pool)
	rec := reconcile.New(st, nil, nil)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for _, id := range postIDs {
		g.Go(func() error {
			_, err := rec.Reconcile(gctx, id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("reconcile failed: %v", err)
	}
	log.Printf("done in %s", time.Since(start).Truncate(time.Millisecond))
}

type seeder struct {
	pool      *pgxpool.Pool
	r         *rand.Rand
	batchSize int
	batch     *pgx.Batch
}

// queue adds one statement and flushes when the batch is full.
func (s *seeder) queue(ctx context.Context, sql string, args ...any) error {
	s.batch.Queue(sql, args...)
	if s.batch.Len() >= s.batchSize {
		return s.flush(ctx)
	}
	return nil
}

// flush sends the accumulated INSERTs to Postgres and resets the batch.
func (s *seeder) flush(ctx context.Context) error {
	pending := s.batch.Len()
	if pending == 0 {
		return nil
	}
	br := s.pool.SendBatch(ctx, s.batch)
	for i := 0; i < pending; i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("batch close: %w", err)
	}
	s.batch = &pgx.Batch{}
	return nil
}

func (s *seeder) words(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		for j := 0; j < 3+s.r.Intn(6); j++ {
			b.WriteByte(byte('a' + s.r.Intn(26)))
		}
	}
	return b.String()
}

func (s *seeder) seed(ctx context.Context, numAuthors, numReaders, numPosts, maxComments int, password string) ([]uuid.UUID, error) {
	// One hash for everyone; bcrypt per row would dominate the run.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// Generate timestamps uniformly across the last year.
	now := time.Now().UTC()
	yearAgo := now.Add(-365 * 24 * time.Hour)
	at := func() time.Time {
		return yearAgo.Add(time.Duration(s.r.Int63n(int64(now.Sub(yearAgo)))))
	}

	suffix := uuid.NewString()[:8]
	var authors, users []uuid.UUID
	for i := 0; i < numAuthors+numReaders; i++ {
		id := uuid.New()
		isAuthor := i < numAuthors
		name := fmt.Sprintf("reader%d-%s", i, suffix)
		if isAuthor {
			name = fmt.Sprintf("author%d-%s", i, suffix)
			authors = append(authors, id)
		}
		users = append(users, id)
		if err := s.queue(ctx, `INSERT INTO users (id, name, password_hash, is_author, created_at) VALUES ($1,$2,$3,$4,$5)`,
			id, name, string(hash), isAuthor, yearAgo); err != nil {
			return nil, err
		}
	}
	// Posts reference users, so users must land first.
	if err := s.flush(ctx); err != nil {
		return nil, err
	}
	log.Printf("seeded users: authors=%d readers=%d", numAuthors, numReaders)

	postIDs := make([]uuid.UUID, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		blocks := make([]model.ContentBlock, 1+s.r.Intn(4))
		for j := range blocks {
			blocks[j] = model.ContentBlock{Title: s.words(3), Body: s.words(40)}
		}
		content, err := json.Marshal(blocks)
		if err != nil {
			return nil, fmt.Errorf("encode content: %w", err)
		}
		id := uuid.New()
		createdAt := at()
		var publishedAt *time.Time
		published := s.r.Intn(4) > 0
		if published {
			t := createdAt.Add(time.Hour)
			publishedAt = &t
		}
		if err := s.queue(ctx, `INSERT INTO posts (id, author_id, content, is_published, published_at, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
			id, authors[s.r.Intn(len(authors))], content, published, publishedAt, createdAt); err != nil {
			return nil, err
		}
		postIDs = append(postIDs, id)
	}
	if err := s.flush(ctx); err != nil {
		return nil, err
	}
	log.Printf("seeded posts: %d", numPosts)

	comments := 0
	for _, postID := range postIDs {
		for n := s.r.Intn(maxComments + 1); n > 0; n-- {
			if err := s.queue(ctx, `INSERT INTO comments (id, post_id, commenter_id, text, created_at) VALUES ($1,$2,$3,$4,$5)`,
				uuid.New(), postID, users[s.r.Intn(len(users))], s.words(12), at()); err != nil {
				return nil, err
			}
			comments++
		}
	}
	if err := s.flush(ctx); err != nil {
		return nil, err
	}
	log.Printf("seeded comments: %d", comments)
	return postIDs, nil
}
