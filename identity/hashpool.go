package identity

import (
	"context"
	"runtime"

	"github.com/cruxauth/authsvc/password"
)

// hashJob is a unit of work submitted to the hashPool: exactly one of
// verifyHash is set (empty means Hash, non-empty means Verify against it).
type hashJob struct {
	password   string
	verifyHash string
	result     chan hashResult
}

type hashResult struct {
	hash string
	ok   bool
	err  error
}

// hashPool runs Argon2 Hash/Verify calls on a bounded set of long-lived
// workers, sized to runtime.GOMAXPROCS(0), so the CPU-bound hashing step
// never competes directly with the goroutines handling broker/HTTP I/O for
// an unbounded number of concurrent requests.
type hashPool struct {
	hasher *password.Argon2
	jobs   chan hashJob
}

func newHashPool(hasher *password.Argon2) *hashPool {
	p := &hashPool{
		hasher: hasher,
		jobs:   make(chan hashJob),
	}
	n := runtime.GOMAXPROCS(0)
	for i := 0; i < n; i++ {
		go p.worker()
	}
	return p
}

func (p *hashPool) worker() {
	for job := range p.jobs {
		if job.verifyHash != "" {
			ok, err := p.hasher.Verify(job.password, job.verifyHash)
			job.result <- hashResult{ok: ok, err: err}
			continue
		}
		hash, err := p.hasher.Hash(job.password)
		job.result <- hashResult{hash: hash, err: err}
	}
}

// Hash submits password to the pool and blocks for the result or ctx's
// cancellation, whichever comes first.
func (p *hashPool) Hash(ctx context.Context, pw string) (string, error) {
	job := hashJob{password: pw, result: make(chan hashResult, 1)}
	select {
	case p.jobs <- job:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case res := <-job.result:
		return res.hash, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Verify submits a password/hash pair to the pool and blocks for the
// result or ctx's cancellation, whichever comes first.
func (p *hashPool) Verify(ctx context.Context, pw, encodedHash string) (bool, error) {
	job := hashJob{password: pw, verifyHash: encodedHash, result: make(chan hashResult, 1)}
	select {
	case p.jobs <- job:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	select {
	case res := <-job.result:
		return res.ok, res.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
