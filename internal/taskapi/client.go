// Package taskapi is the HTTP client for the remote /tasks collection.
package taskapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskboard/internal/logging"
	"taskboard/internal/model"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	log "github.com/sirupsen/logrus"
)

const (
	opList   = "list tasks"
	opCreate = "create task"
	opUpdate = "update task"
	opDelete = "delete task"
	opGet    = "get task"
)

// maxErrorBody bounds how much of an error response body is kept for diagnostics.
const maxErrorBody = 512

type Options struct {
	// Primary is the collection URL tried first, e.g. http://localhost:3000/tasks.
	Primary string
	// Fallback, when set, receives the same request after a failed primary attempt.
	Fallback string
	Timeout  time.Duration
	// HTTPClient overrides the pooled client built from Timeout.
	HTTPClient *http.Client
	Logger     log.FieldLogger
}

// Client performs CRUD calls against a task collection. It keeps no local state
// besides its configuration and is safe for concurrent use.
type Client struct {
	primary  string
	fallback string
	http     *http.Client
	log      log.FieldLogger
}

func New(opts Options) (*Client, error) {
	primary, err := collectionURL(opts.Primary)
	if err != nil {
		return nil, fmt.Errorf("primary endpoint: %w", err)
	}
	fallback := ""
	if strings.TrimSpace(opts.Fallback) != "" {
		fallback, err = collectionURL(opts.Fallback)
		if err != nil {
			return nil, fmt.Errorf("fallback endpoint: %w", err)
		}
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = cleanhttp.DefaultPooledClient()
		if opts.Timeout > 0 {
			hc.Timeout = opts.Timeout
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Client{
		primary:  primary,
		fallback: fallback,
		http:     hc,
		log:      logger.WithField("component", "taskapi"),
	}, nil
}

func collectionURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// Endpoints returns the primary and (possibly empty) fallback collection URLs.
func (c *Client) Endpoints() (primary, fallback string) {
	return c.primary, c.fallback
}

func (c *Client) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.roundTrip(ctx, call{op: opList, method: http.MethodGet}, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (c *Client) Create(ctx context.Context, in model.TaskInput) (model.Task, error) {
	body, err := sonic.ConfigStd.Marshal(in)
	if err != nil {
		return model.Task{}, fmt.Errorf("%s: encode: %w", opCreate, err)
	}
	var out model.Task
	if err := c.roundTrip(ctx, call{op: opCreate, method: http.MethodPost, body: body}, &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

// Update replaces the task identified by t.ID. A 404 satisfies errors.Is(err, ErrNotFound).
func (c *Client) Update(ctx context.Context, t model.Task) (model.Task, error) {
	body, err := sonic.ConfigStd.Marshal(t)
	if err != nil {
		return model.Task{}, fmt.Errorf("%s: encode: %w", opUpdate, err)
	}
	var out model.Task
	if err := c.roundTrip(ctx, call{op: opUpdate, method: http.MethodPut, id: t.ID, body: body}, &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, id model.ID) error {
	return c.roundTrip(ctx, call{op: opDelete, method: http.MethodDelete, id: id}, nil)
}

func (c *Client) Get(ctx context.Context, id model.ID) (model.Task, error) {
	var out model.Task
	if err := c.roundTrip(ctx, call{op: opGet, method: http.MethodGet, id: id}, &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

type call struct {
	op     string
	method string
	id     model.ID
	body   []byte
}

func (cl call) url(base string) string {
	if cl.id.IsZero() {
		return base
	}
	return base + "/" + url.PathEscape(cl.id.String())
}

func (c *Client) roundTrip(ctx context.Context, cl call, out any) error {
	resp, target, err := c.doWithFallback(ctx, cl)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if !success(resp.StatusCode) {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Op:         cl.op,
			URL:        target,
			TaskID:     cl.id,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	if out == nil {
		return nil
	}
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response from %s: %w", cl.op, target, err)
	}
	return nil
}

// doWithFallback sends cl to the primary endpoint and, when a fallback is configured,
// repeats collection calls (list, create) once against the fallback after a transport
// failure or non-2xx status. Item calls never fall back: an id on the primary names a
// different task on the fallback. A 404 is always final.
func (c *Client) doWithFallback(ctx context.Context, cl call) (*http.Response, string, error) {
	reqID := uuid.NewString()
	target := cl.url(c.primary)
	resp, err := c.send(ctx, cl, target, reqID)
	if c.fallback == "" || !cl.id.IsZero() || ctx.Err() != nil {
		return resp, target, err
	}
	if err == nil && (success(resp.StatusCode) || resp.StatusCode == http.StatusNotFound) {
		return resp, target, nil
	}

	entry := c.log.WithFields(log.Fields{"op": cl.op, "request_id": reqID, "fallback": c.fallback})
	if err != nil {
		entry = entry.WithError(err)
	} else {
		entry = entry.WithField("status", resp.StatusCode)
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
	entry.Warn("primary task server not available, using fallback")

	target = cl.url(c.fallback)
	resp, err = c.send(ctx, cl, target, reqID)
	return resp, target, err
}

func (c *Client) send(ctx context.Context, cl call, target, reqID string) (*http.Response, error) {
	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	fields := log.Fields{
		"op":         cl.op,
		"method":     cl.method,
		"url":        target,
		"request_id": reqID,
		"duration":   time.Since(start).String(),
	}
	if err != nil {
		c.log.WithFields(fields).WithError(err).Debug("request failed")
		return nil, &NetworkError{Op: cl.op, URL: target, Err: err}
	}
	c.log.WithFields(fields).WithField("status", resp.StatusCode).Debug("request done")
	return resp, nil
}

func success(code int) bool { return code >= 200 && code < 300 }
