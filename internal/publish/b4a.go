package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// ErrNoURL is returned when the publish command succeeds but prints no URL line.
var ErrNoURL = errors.New("no URL found in publish response")

var urlLine = regexp.MustCompile(`URL: (https://\S+)`)

// Runner executes an external command and returns its combined stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.String(), fmt.Errorf("%w: %s", err, msg)
		}
		return stdout.String(), err
	}
	return stdout.String(), nil
}

// B4A publishes through the slash-b4a rewrite script.
type B4A struct {
	node    string
	script  string
	timeout time.Duration
	runner  Runner
}

func NewB4A(node, script string, timeout time.Duration) *B4A {
	return &B4A{
		node:    node,
		script:  script,
		timeout: timeout,
		runner:  execRunner{},
	}
}

// WithRunner swaps the command runner, mainly for tests.
func (b *B4A) WithRunner(r Runner) *B4A {
	b.runner = r
	return b
}

func (b *B4A) Name() string {
	return "b4a"
}

// Publish runs `node <script> publish <title> --file=<path>` once and returns
// the URL it prints.
func (b *B4A) Publish(ctx context.Context, title, path string) (string, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	out, err := b.runner.Run(ctx, b.node, b.script, "publish", title, "--file="+path)
	if err != nil {
		return "", fmt.Errorf("publish failed: %w", err)
	}
	return ParseURL(out)
}

// ParseURL extracts the published URL from the script output.
func ParseURL(output string) (string, error) {
	m := urlLine.FindStringSubmatch(output)
	if m == nil {
		return "", ErrNoURL
	}
	return m[1], nil
}
