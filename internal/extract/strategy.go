package extract

import (
	"context"
	"errors"
)

const (
	StrategyCookie     = "cookie"
	StrategyPlaywright = "playwright"
	StrategyProxy      = "proxy"
	StrategyManual     = "manual"
)

var (
	ErrUnsupportedStrategy = errors.New("unsupported extraction strategy")
	ErrStrategyUnavailable = errors.New("extraction strategy unavailable")
	ErrNotConfigured       = errors.New("extraction strategy not configured")
	ErrBlocked             = errors.New("article page blocked by verification")
	ErrEmptyContent        = errors.New("no article content found")
)

// Strategy is one way of obtaining an article from its URL.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, url string) (*RawArticle, error)
}

// checker is implemented by strategies that can tell up front that they
// cannot run, so no attempt budget is spent on them.
type checker interface {
	Available() error
}

// Playwright stands in for browser automation, which this build does not ship.
type Playwright struct{}

func (Playwright) Name() string { return StrategyPlaywright }

func (Playwright) Available() error {
	return ErrStrategyUnavailable
}

func (p Playwright) Extract(context.Context, string) (*RawArticle, error) {
	return nil, p.Available()
}
