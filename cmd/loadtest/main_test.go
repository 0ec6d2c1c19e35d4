package main

import (
	"math/rand"
	"net/http"
	"testing"

	"github.com/cmatc13/tender/internal/payment"
	"github.com/cmatc13/tender/pkg/logging"
)

func TestRandomRequest(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	for _, tt := range []struct {
		ratio   float64
		wantErr bool
	}{
		{0, false},
		{1, true},
	} {
		for i := 0; i < 50; i++ {
			req := randomRequest(r, tt.ratio)
			if req.Amount < 1 || req.Amount > 500 {
				t.Fatalf("amount out of range: %v", req.Amount)
			}

			method, err := payment.New(req, logging.Discard())
			if err != nil {
				t.Fatalf("New(%+v) error = %v", req, err)
			}
			if _, err := method.ProcessPayment(); (err != nil) != tt.wantErr {
				t.Fatalf("ratio %v: ProcessPayment(%+v) error = %v", tt.ratio, req, err)
			}
		}
	}
}

func TestRecord(t *testing.T) {
	stats := &Stats{}
	for _, status := range []int{http.StatusCreated, http.StatusCreated, http.StatusUnprocessableEntity, http.StatusTooManyRequests} {
		record(stats, status)
	}

	if stats.processedCount != 2 || stats.rejectedCount != 1 || stats.failureCount != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}
