package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/okian/tourney/internal/adapters/mq/queue"
	"github.com/okian/tourney/internal/domain/scoring"
	"github.com/okian/tourney/pkg/logger"
)

const (
	defaultPushTimeout = 10 * time.Second
	pushRetries        = 5
	pushBackoff        = 200 * time.Millisecond
)

func newPushCommand(r *runner) *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "push <facts.jsonl|->",
		Short: "Deliver a fact log to a running service over HTTP",
		Long: `Posts every fact of a JSON lines log to a running service, one at a time and in
file order. A fact refused with 429 is retried with exponential backoff.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				baseURL = "http://localhost" + r.cfg.Addr
			}
			c := &pushClient{
				baseURL: strings.TrimRight(baseURL, "/"),
				http:    &http.Client{Timeout: timeout},
				backoff: retry.WithMaxRetries(pushRetries, retry.NewExponential(pushBackoff)),
			}
			t, err := ingest(cmd.Context(), args[0], cmd, c.deliver)
			fmt.Fprintln(cmd.OutOrStdout(), t)
			return err
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "", "service base URL (default http://localhost<addr>)")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultPushTimeout, "HTTP request timeout")
	return cmd
}

type pushClient struct {
	baseURL string
	http    *http.Client
	backoff retry.Backoff
}

type ackBody struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// deliver posts f and reports whether the service queued it as new.
func (c *pushClient) deliver(ctx context.Context, f queue.Fact) (bool, error) {
	var (
		path = "/runs"
		body any
	)
	if f.Run != nil {
		body = f.Run
	} else {
		path, body = "/milestones", f.Milestone
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", f.Kind(), err)
	}

	var ack ackBody
	err = retry.Do(ctx, c.backoff, func(ctx context.Context) error {
		status, err := c.post(ctx, path, payload, &ack)
		if err != nil {
			return retry.RetryableError(err)
		}
		if status == http.StatusTooManyRequests {
			logger.Named("push").Debug(ctx, "service busy, retrying", logger.String("player", f.Player()))
			return retry.RetryableError(fmt.Errorf("%s %s: %s", path, ack.Code, ack.Message))
		}
		return nil
	})
	switch {
	case err != nil:
		return false, err
	case ack.Code == "bad_request":
		return false, fmt.Errorf("%w: %s", scoring.ErrMalformedFact, ack.Message)
	case ack.Code != "":
		return false, fmt.Errorf("%s: %s: %s", path, ack.Code, ack.Message)
	}
	return !ack.Duplicate, nil
}

func (c *pushClient) post(ctx context.Context, path string, payload []byte, ack *ackBody) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	*ack = ackBody{}
	if err := json.Unmarshal(raw, ack); err != nil {
		return resp.StatusCode, fmt.Errorf("%s: status %d: %w", path, resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}
