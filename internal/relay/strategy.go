package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Strategy names how a fetch walks the ordered relay list.
type Strategy string

const (
	// StrategySequential tries relays in order, moving on only when one fails
	// or times out. Each relay gets its own full timeout.
	StrategySequential Strategy = "sequential"
	// StrategyRace queries every relay at once under one shared deadline and
	// keeps the first resolved event.
	StrategyRace Strategy = "race"
)

// ParseStrategy maps a config value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategySequential, StrategyRace:
		return Strategy(s), nil
	case "":
		return StrategySequential, nil
	}
	return "", fmt.Errorf("unknown relay strategy %q (want %q or %q)", s, StrategySequential, StrategyRace)
}

var errNoRelays = fmt.Errorf("%w: no relays configured", ErrConnection)

// Fetcher resolves the first kind 0 event for pubkey across relays.
type Fetcher interface {
	FetchFirstMatchingEvent(ctx context.Context, pubkey string, relays []string) (*Match, error)
}

func newFetcher(strategy Strategy, attempt attemptFunc, timeout time.Duration) (Fetcher, error) {
	switch strategy {
	case StrategySequential:
		return &sequentialFetcher{attempt: attempt, timeout: timeout}, nil
	case StrategyRace:
		return &raceFetcher{attempt: attempt, timeout: timeout}, nil
	}
	return nil, fmt.Errorf("unknown relay strategy %q", strategy)
}

type sequentialFetcher struct {
	attempt attemptFunc
	timeout time.Duration
}

func (f *sequentialFetcher) FetchFirstMatchingEvent(ctx context.Context, pubkey string, relays []string) (*Match, error) {
	if len(relays) == 0 {
		return nil, errNoRelays
	}
	var errs []error
	for _, relayURL := range relays {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		m, err := f.attempt(ctx, relayURL, pubkey, time.Now().Add(f.timeout))
		if err == nil {
			return m, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

type raceFetcher struct {
	attempt attemptFunc
	timeout time.Duration
}

type attemptResult struct {
	match *Match
	err   error
}

// FetchFirstMatchingEvent returns as soon as one relay resolves. The losers
// are cancelled and awaited, so no connection outlives the call.
func (f *raceFetcher) FetchFirstMatchingEvent(ctx context.Context, pubkey string, relays []string) (*Match, error) {
	if len(relays) == 0 {
		return nil, errNoRelays
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	deadline := time.Now().Add(f.timeout)
	results := make(chan attemptResult, len(relays))
	var wg sync.WaitGroup
	for _, relayURL := range relays {
		wg.Add(1)
		go func(relayURL string) {
			defer wg.Done()
			m, err := f.attempt(ctx, relayURL, pubkey, deadline)
			results <- attemptResult{match: m, err: err}
		}(relayURL)
	}

	var winner *Match
	var errs []error
	for range relays {
		r := <-results
		if r.err == nil {
			winner = r.match
			break
		}
		errs = append(errs, r.err)
	}

	cancel()
	wg.Wait()

	if winner != nil {
		return winner, nil
	}
	return nil, errors.Join(errs...)
}
