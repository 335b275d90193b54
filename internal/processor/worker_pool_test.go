package processor

import (
	"sync"
	"testing"
)

func TestWorkerPool_Submit(t *testing.T) {
	pool := newWorkerPool(2)
	defer pool.Close()

	var counter int
	var mu sync.Mutex

	for i := 0; i < 5; i++ {
		pool.Submit(func() {
			mu.Lock()
			counter++
			mu.Unlock()
		})
	}

	pool.Wait()

	if counter != 5 {
		t.Errorf("Expected counter to be 5, got %d", counter)
	}
}

func TestWorkerPool_ZeroWorkers(t *testing.T) {
	// Should default to runtime.NumCPU() when workers <= 0
	pool := newWorkerPool(0)
	defer pool.Close()

	var executed bool
	var mu sync.Mutex
	pool.Submit(func() {
		mu.Lock()
		executed = true
		mu.Unlock()
	})

	pool.Wait()

	if !executed {
		t.Error("Expected job to be executed")
	}
}

func TestWorkerPool_Concurrent(t *testing.T) {
	pool := newWorkerPool(3)
	defer pool.Close()

	var results []int
	var mu sync.Mutex

	for i := 0; i < 10; i++ {
		value := i
		pool.Submit(func() {
			processedValue := value * 2
			mu.Lock()
			results = append(results, processedValue)
			mu.Unlock()
		})
	}

	pool.Wait()

	if len(results) != 10 {
		t.Errorf("Expected 10 results, got %d", len(results))
	}
}

func TestWorkerPool_CloseIsIdempotent(t *testing.T) {
	pool := newWorkerPool(2)
	pool.Submit(func() {})
	pool.Wait()

	pool.Close()
	pool.Close() // Should not panic
}
