package database

import (
	"context"
	"sort"
	"time"
)

// Pinger is satisfied by every client in this package.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckAll pings every dependency with a shared deadline and returns the
// names of the ones that failed, sorted.
func CheckAll(ctx context.Context, timeout time.Duration, deps map[string]Pinger) []string {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var failed []string
	for name, p := range deps {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)
	return failed
}
