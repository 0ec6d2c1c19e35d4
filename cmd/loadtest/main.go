// cmd/loadtest/main.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/cmatc13/tender/internal/payment"
)

// Command line flags
var (
	duration     = pflag.Duration("duration", 1*time.Minute, "Test duration")
	concurrency  = pflag.Int("concurrency", 20, "Number of concurrent clients")
	paymentRate  = pflag.Float64("rate", 50, "Target payments per second")
	target       = pflag.String("url", "http://localhost:8080", "Base URL of tenderd")
	invalidRatio = pflag.Float64("invalid-ratio", 0.1, "Share of requests that should be rejected")
)

// Stats counts responses by class. Rejections are expected answers, not
// transport failures.
type Stats struct {
	processedCount uint64
	rejectedCount  uint64
	failureCount   uint64
	latencySum     uint64
	latencyCount   uint64
}

func main() {
	pflag.Parse()

	// Print test configuration
	fmt.Printf("Load Test Configuration:\n")
	fmt.Printf("  Duration: %s\n", *duration)
	fmt.Printf("  Concurrency: %d\n", *concurrency)
	fmt.Printf("  Target RPS: %.0f\n", *paymentRate)
	fmt.Printf("  URL: %s\n", *target)
	fmt.Printf("  Invalid Ratio: %.2f\n", *invalidRatio)

	if *paymentRate <= 0 || *concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "rate and concurrency must be positive")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 10 * time.Second}
	endpoint := strings.TrimRight(*target, "/") + "/v1/payments"
	stats := &Stats{}

	fmt.Printf("Starting load test for %s...\n", *duration)

	testCtx, testCancel := context.WithTimeout(ctx, *duration)
	defer testCancel()

	var wg sync.WaitGroup

	// Channel for controlling rate
	rateLimiter := make(chan struct{}, *concurrency*2)

	go func() {
		interval := time.Duration(float64(time.Second) / *paymentRate)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-testCtx.Done():
				return
			case <-ticker.C:
				select {
				case rateLimiter <- struct{}{}:
				default:
					// Channel is full, skip
				}
			}
		}
	}()

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go worker(testCtx, i, client, endpoint, rateLimiter, stats, &wg)
	}

	startTime := time.Now()
	go reportProgress(testCtx, stats, startTime)

	<-testCtx.Done()
	if ctx.Err() != nil {
		fmt.Println("\nTest interrupted")
	} else {
		fmt.Println("\nTest duration reached")
	}

	wg.Wait()

	printResults(stats, time.Since(startTime))
}

// reportProgress prints running totals once per second
func reportProgress(ctx context.Context, stats *Stats, startTime time.Time) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			processed := atomic.LoadUint64(&stats.processedCount)
			rejected := atomic.LoadUint64(&stats.rejectedCount)
			failed := atomic.LoadUint64(&stats.failureCount)

			rps := float64(processed+rejected) / time.Since(startTime).Seconds()
			fmt.Printf("\rRPS: %.2f, Processed: %d, Rejected: %d, Failed: %d, Avg Latency: %d µs",
				rps, processed, rejected, failed, averageLatency(stats))
		}
	}
}

func averageLatency(stats *Stats) uint64 {
	count := atomic.LoadUint64(&stats.latencyCount)
	if count == 0 {
		return 0
	}
	return atomic.LoadUint64(&stats.latencySum) / count
}

func printResults(stats *Stats, elapsed time.Duration) {
	processed := atomic.LoadUint64(&stats.processedCount)
	rejected := atomic.LoadUint64(&stats.rejectedCount)
	failed := atomic.LoadUint64(&stats.failureCount)
	total := processed + rejected + failed

	percent := func(n uint64) float64 {
		if total == 0 {
			return 0
		}
		return float64(n) / float64(total) * 100
	}

	fmt.Printf("\n\nLoad Test Results:\n")
	fmt.Printf("  Test Duration: %.2f seconds\n", elapsed.Seconds())
	fmt.Printf("  Total Requests: %d\n", total)
	fmt.Printf("  Processed: %d (%.2f%%)\n", processed, percent(processed))
	fmt.Printf("  Rejected: %d (%.2f%%)\n", rejected, percent(rejected))
	fmt.Printf("  Failed: %d (%.2f%%)\n", failed, percent(failed))
	fmt.Printf("  Average RPS: %.2f\n", float64(total)/elapsed.Seconds())
	fmt.Printf("  Average Latency: %d µs\n", averageLatency(stats))
}

// worker sends payments at the rate released by rateLimiter
func worker(ctx context.Context, id int, client *http.Client, endpoint string, rateLimiter <-chan struct{}, stats *Stats, wg *sync.WaitGroup) {
	defer wg.Done()

	r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	for {
		select {
		case <-ctx.Done():
			return
		case <-rateLimiter:
			startTime := time.Now()

			status, err := send(ctx, client, endpoint, randomRequest(r, *invalidRatio))
			if err != nil {
				if ctx.Err() == nil {
					atomic.AddUint64(&stats.failureCount, 1)
				}
				continue
			}

			atomic.AddUint64(&stats.latencySum, uint64(time.Since(startTime).Microseconds()))
			atomic.AddUint64(&stats.latencyCount, 1)
			record(stats, status)
		}
	}
}

// record classifies a response status
func record(stats *Stats, status int) {
	switch status {
	case http.StatusCreated:
		atomic.AddUint64(&stats.processedCount, 1)
	case http.StatusUnprocessableEntity:
		atomic.AddUint64(&stats.rejectedCount, 1)
	default:
		atomic.AddUint64(&stats.failureCount, 1)
	}
}

func send(ctx context.Context, client *http.Client, endpoint string, req payment.Request) (int, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// randomRequest returns a payment for a random method. With probability
// invalidRatio the identifier breaks the method's rule.
func randomRequest(r *rand.Rand, invalidRatio float64) payment.Request {
	kind := payment.Kinds[r.Intn(len(payment.Kinds))]
	invalid := r.Float64() < invalidRatio

	// Random amount between 1 and 500, in cents
	amount := float64(100+r.Intn(49901)) / 100

	var identifier string
	switch kind {
	case payment.CreditCardKind:
		identifier = digits(r, payment.CardNumberLength)
		if invalid {
			identifier = identifier[:payment.CardNumberLength-4]
		}
	case payment.PayPalKind:
		identifier = fmt.Sprintf("load%d@example.com", r.Intn(100000))
		if invalid {
			identifier = strings.Replace(identifier, "@", ".", 1)
		}
	default:
		identifier = digits(r, payment.AccountNumberLength)
		if invalid {
			identifier += "0"
		}
	}

	return payment.Request{Method: string(kind), Identifier: identifier, Amount: amount}
}

func digits(r *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + r.Intn(10))
	}
	return string(b)
}
