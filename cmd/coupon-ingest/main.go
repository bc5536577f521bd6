// Command coupon-ingest loads batches of promotional codes from gzipped
// marketing dumps into the coupons table. The dumps overlap and repeat codes,
// so a bloom filter dedups the stream before anything reaches the database;
// the full code set never has to fit in memory.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/carostraub/InsomniaTiendita/internal/storage/postgres"
)

const (
	bloomFPR      = 0.001
	insertBatch   = 1000
	progressEvery = 10_000_000
	minCodeLen    = 8
	maxCodeLen    = 10

	// Every ingested code grants the same promotion.
	bulkDiscountPercent = 10
	bulkMaxUses         = 1
	bulkValidityDays    = 90
)

func main() {
	var (
		dataDir       string
		databaseURL   string
		expectedCodes uint
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory scanned for *.gz dumps when no files are given")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.UintVar(&expectedCodes, "expected-codes", 100_000_000, "approximate code count, sizes the dedup filter")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	files, err := resolveDumpFiles(dataDir, flag.Args())
	if err != nil {
		slog.Error("resolve dump files", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := run(ctx, files, databaseURL, expectedCodes); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed successfully")
}

// resolveDumpFiles returns the positional arguments when given, otherwise all
// *.gz files under dataDir.
func resolveDumpFiles(dataDir string, args []string) ([]string, error) {
	files := args
	if len(files) == 0 {
		matches, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
		if err != nil {
			return nil, errors.Wrapf(err, "glob %s", dataDir)
		}
		files = matches
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no dump files found in %s", dataDir)
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return nil, errors.Wrapf(err, "check file %s", f)
		}
	}
	return files, nil
}

func run(ctx context.Context, files []string, databaseURL string, expectedCodes uint) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("ingesting dumps", slog.Int("files", len(files)))

	codes := make(chan string, 4*insertBatch)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(codes)
		rg, ctx := errgroup.WithContext(ctx)
		for i, f := range files {
			rg.Go(readDumpFile(ctx, i, f, codes))
		}
		return rg.Wait()
	})

	var inserted uint64
	g.Go(func() error {
		n, err := insertCoupons(ctx, pool, expectedCodes, codes)
		inserted = n
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("ingest done", slog.Uint64("coupons", inserted))
	return nil
}

// readDumpFile streams one gzip dump, normalizes each line, and sends codes
// that look like promotional codes downstream. Dedup happens on the write
// side so readers stay independent.
func readDumpFile(ctx context.Context, idx int, path string, out chan<- string) func() error {
	return func() error {
		var count uint64

		err := streamGzFile(ctx, path, func(line string) error {
			code := strings.ToUpper(strings.TrimSpace(line))
			if !isPromoCode(code) {
				return nil
			}
			count++
			if count%progressEvery == 0 {
				slog.Info("read progress",
					slog.Int("file", idx+1),
					slog.Uint64("codes", count),
				)
			}
			select {
			case out <- code:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			return errors.Wrapf(err, "read dump %s", path)
		}

		slog.Info("dump read",
			slog.Int("file", idx+1),
			slog.Uint64("total_codes", count),
		)
		return nil
	}
}

// isPromoCode reports whether a normalized line has the shape of a
// promotional code.
func isPromoCode(code string) bool {
	if len(code) < minCodeLen || len(code) > maxCodeLen {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

const insertBulkCouponSQL = `INSERT INTO coupons
	(id, code, discount, kind, valid_from, valid_to, max_uses)
	VALUES ($1, $2, $3, 'percentage', $4, $5, $6)
	ON CONFLICT (code) DO NOTHING`

// insertCoupons consumes the merged code stream, skips codes already seen
// using a bloom filter, and writes the rest in batches. A filter false
// positive drops a genuine code, which at the configured rate loses roughly
// one code per thousand and keeps memory flat regardless of dump size.
func insertCoupons(ctx context.Context, pool *pgxpool.Pool, expectedCodes uint, codes <-chan string) (uint64, error) {
	seen := bloom.NewWithEstimates(expectedCodes, bloomFPR)
	now := time.Now().UTC()
	validTo := now.AddDate(0, 0, bulkValidityDays)
	discount := decimal.NewFromInt(bulkDiscountPercent)

	var (
		inserted uint64
		batch    = &pgx.Batch{}
	)
	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		res := pool.SendBatch(ctx, batch)
		for range batch.Len() {
			if _, err := res.Exec(); err != nil {
				_ = res.Close()
				return errors.Wrap(err, "insert coupon batch")
			}
		}
		if err := res.Close(); err != nil {
			return errors.Wrap(err, "close coupon batch")
		}
		inserted += uint64(batch.Len())
		batch = &pgx.Batch{}
		return nil
	}

	for code := range codes {
		if seen.TestOrAddString(code) {
			continue
		}
		batch.Queue(insertBulkCouponSQL, "bulk-"+code, code, discount, now, validTo, bulkMaxUses)
		if batch.Len() >= insertBatch {
			if err := flush(); err != nil {
				return inserted, err
			}
			if inserted%uint64(100*insertBatch) == 0 {
				slog.Info("write progress", slog.Uint64("inserted", inserted))
			}
		}
	}
	return inserted, flush()
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
