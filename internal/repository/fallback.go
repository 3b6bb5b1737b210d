package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"askgm/internal/domain"
	errs "askgm/internal/errors"
)

const defaultCloudEvalTimeout = 5 * time.Second

// CloudEvalClient asks the lichess cloud evaluation service for a position.
// It never fails: every problem degrades to the all-nulls evaluation.
type CloudEvalClient struct {
	baseURL string
	client  *http.Client
	log     *zap.SugaredLogger
}

func NewCloudEvalClient(baseURL string, timeout time.Duration, log *zap.SugaredLogger) *CloudEvalClient {
	if timeout <= 0 {
		timeout = defaultCloudEvalTimeout
	}
	return &CloudEvalClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// cloud-eval scores are from White's point of view.
type cloudEvalResponse struct {
	Depth int `json:"depth"`
	PVs   []struct {
		Moves string `json:"moves"`
		CP    *int   `json:"cp"`
		Mate  *int   `json:"mate"`
	} `json:"pvs"`
}

// Evaluate issues a single request for pos.
func (c *CloudEvalClient) Evaluate(ctx context.Context, pos domain.Position) domain.Evaluation {
	res, err := c.Lookup(ctx, pos)
	if err != nil {
		c.log.Warnw("cloud evaluation unavailable", "fen", pos, "error", err)
		return domain.EmptyEvaluation()
	}
	return res
}

// Lookup is Evaluate with the failure reported. Errors wrap
// ErrEvaluationUnavailable.
func (c *CloudEvalClient) Lookup(ctx context.Context, pos domain.Position) (domain.Evaluation, error) {
	res, err := c.fetch(ctx, pos)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("%w: %v", errs.ErrEvaluationUnavailable, err)
	}
	return res, nil
}

func (c *CloudEvalClient) fetch(ctx context.Context, pos domain.Position) (domain.Evaluation, error) {
	q := url.Values{}
	q.Set("fen", pos.String())
	q.Set("multiPv", "1")
	endpoint := fmt.Sprintf("%s/api/cloud-eval?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Evaluation{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Evaluation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Evaluation{}, fmt.Errorf("cloud-eval status %d", resp.StatusCode)
	}

	var body cloudEvalResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Evaluation{}, fmt.Errorf("decode cloud-eval: %w", err)
	}
	if len(body.PVs) == 0 {
		return domain.Evaluation{}, fmt.Errorf("cloud-eval returned no lines")
	}

	line := body.PVs[0]
	res := domain.EmptyEvaluation()
	res.Source = domain.SourceCloud
	res.Depth = body.Depth
	for _, tok := range strings.Fields(line.Moves) {
		mv, err := domain.ParseMove(tok)
		if err != nil {
			break
		}
		res.PV = append(res.PV, mv)
	}
	if len(res.PV) > 0 {
		best := res.PV[0]
		res.BestMove = &best
	}
	switch {
	case line.Mate != nil:
		res = res.WithMate(*line.Mate)
	case line.CP != nil:
		res = res.WithCentipawns(*line.CP)
	}
	if res.IsEmpty() {
		return domain.Evaluation{}, fmt.Errorf("cloud-eval line is empty")
	}
	return res, nil
}
