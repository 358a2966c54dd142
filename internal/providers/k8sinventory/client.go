// Package k8sinventory implements a selector.SubjectSource backed by
// Kubernetes Node listing, adapted from the teacher's Secret-oriented
// Kubernetes client wrapper (internal/infrastructure/k8s/client.go) onto
// the fleet-inventory role described by the specification: nodes become
// selector subjects, their labels become grains, and their annotations
// become pillar data.
package k8sinventory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/vitaliisemenov/selector-engine/internal/selector"
)

// Client defines the inventory operations needed to back a selector query:
// listing and fetching the Nodes that stand in for fleet subjects.
type Client interface {
	// ListNodes returns nodes matching label selector.
	ListNodes(ctx context.Context, labelSelector string) ([]corev1.Node, error)

	// GetNode returns a specific node by name. Returns a *NotFoundError if
	// the node doesn't exist.
	GetNode(ctx context.Context, name string) (*corev1.Node, error)

	// Subjects adapts ListNodes with the configured label selector to
	// selector.SubjectSource, so a Client
	// can be handed directly to anything expecting a subject feed.
	Subjects(ctx context.Context) ([]*selector.Subject, error)

	// Health checks if the K8s API is accessible.
	Health(ctx context.Context) error

	// Close cleans up resources. Safe to call multiple times.
	Close() error
}

// Config holds configuration for the inventory client.
type Config struct {
	// Timeout for K8s API requests (default 30s).
	Timeout time.Duration

	// MaxRetries for transient errors (default 3).
	MaxRetries int

	// RetryBackoff initial backoff duration (default 100ms).
	RetryBackoff time.Duration

	// MaxRetryBackoff maximum backoff duration (default 5s).
	MaxRetryBackoff time.Duration

	// LabelSelector restricts Subjects() to a fixed node subset; empty
	// means every node.
	LabelSelector string

	Logger *slog.Logger
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		RetryBackoff:    100 * time.Millisecond,
		MaxRetryBackoff: 5 * time.Second,
		Logger:          slog.Default(),
	}
}

// defaultClient implements Client using k8s.io/client-go.
type defaultClient struct {
	clientset kubernetes.Interface
	config    *Config
	logger    *slog.Logger
	mu        sync.RWMutex
}

// New creates an inventory client with in-cluster configuration. Returns a
// *ConnectionError if in-cluster config is not available or the API is
// unreachable.
func New(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	k8sConfig, err := rest.InClusterConfig()
	if err != nil {
		return nil, NewConnectionError("failed to load in-cluster config", err)
	}
	k8sConfig.Timeout = config.Timeout

	clientset, err := kubernetes.NewForConfig(k8sConfig)
	if err != nil {
		return nil, NewConnectionError("failed to create K8s clientset", err)
	}

	client := &defaultClient{
		clientset: clientset,
		config:    config,
		logger:    config.Logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("K8s API health check failed: %w", err)
	}

	client.logger.Info("k8sinventory client initialized successfully")
	return client, nil
}

// ListNodes returns nodes matching labelSelector.
func (c *defaultClient) ListNodes(ctx context.Context, labelSelector string) ([]corev1.Node, error) {
	c.logger.Debug("listing K8s nodes", "label_selector", labelSelector)

	var nodes []corev1.Node
	err := c.retryWithBackoff(ctx, func() error {
		listOptions := metav1.ListOptions{
			LabelSelector: labelSelector,
			Limit:         1000,
		}

		nodeList, err := c.clientset.CoreV1().Nodes().List(ctx, listOptions)
		if err != nil {
			return err
		}
		nodes = nodeList.Items

		if nodeList.Continue != "" {
			c.logger.Warn("node list truncated, pagination not implemented",
				"label_selector", labelSelector,
				"continue_token", nodeList.Continue,
			)
		}
		return nil
	})
	if err != nil {
		c.logger.Error("failed to list nodes", "label_selector", labelSelector, "error", err)
		return nil, wrapK8sError("list nodes", err)
	}

	c.logger.Info("successfully listed nodes", "label_selector", labelSelector, "count", len(nodes))
	return nodes, nil
}

// GetNode returns a specific node by name.
func (c *defaultClient) GetNode(ctx context.Context, name string) (*corev1.Node, error) {
	c.logger.Debug("getting K8s node", "name", name)

	var node *corev1.Node
	err := c.retryWithBackoff(ctx, func() error {
		n, err := c.clientset.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return err
		}
		node = n
		return nil
	})
	if err != nil {
		if isNotFoundErr(err) {
			return nil, NewNotFoundError(fmt.Sprintf("node %s not found", name))
		}
		c.logger.Error("failed to get node", "name", name, "error", err)
		return nil, wrapK8sError("get node", err)
	}

	c.logger.Debug("successfully got node", "name", name)
	return node, nil
}

// Subjects lists every node matching the configured LabelSelector and
// adapts each into a selector.Subject, satisfying selector.SubjectSource.
func (c *defaultClient) Subjects(ctx context.Context) ([]*selector.Subject, error) {
	nodes, err := c.ListNodes(ctx, c.config.LabelSelector)
	if err != nil {
		return nil, err
	}
	subjects := make([]*selector.Subject, 0, len(nodes))
	for _, node := range nodes {
		subjects = append(subjects, subjectFromNode(&node))
	}
	return subjects, nil
}

// Health checks if the K8s API is accessible.
func (c *defaultClient) Health(ctx context.Context) error {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.clientset.Discovery().ServerVersion()
	if err != nil {
		c.logger.Warn("k8sinventory health check failed", "error", err)
		return NewConnectionError("K8s API unavailable", err)
	}
	if healthCtx.Err() != nil {
		return NewTimeoutError("health check timeout", healthCtx.Err())
	}
	return nil
}

// Close cleans up resources.
func (c *defaultClient) Close() error {
	c.logger.Info("closing k8sinventory client")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clientset = nil
	c.logger.Info("k8sinventory client closed")
	return nil
}

// retryWithBackoff executes operation with exponential backoff retry logic.
func (c *defaultClient) retryWithBackoff(ctx context.Context, operation func() error) error {
	backoff := c.config.RetryBackoff

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return NewTimeoutError("operation cancelled", ctx.Err())
		default:
		}

		err := operation()
		if err == nil {
			return nil
		}
		if !isRetryableError(err) {
			return err
		}
		if attempt == c.config.MaxRetries {
			return err
		}

		c.logger.Warn("retrying K8s operation",
			"attempt", attempt+1,
			"max_retries", c.config.MaxRetries,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return NewTimeoutError("operation cancelled during backoff", ctx.Err())
		}

		backoff *= 2
		if backoff > c.config.MaxRetryBackoff {
			backoff = c.config.MaxRetryBackoff
		}
	}

	return fmt.Errorf("operation failed after %d retries", c.config.MaxRetries)
}

// isNotFoundErr reports whether err is a NotFound error, ours or k8s's.
func isNotFoundErr(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*NotFoundError); ok {
		return e != nil
	}
	return k8serrors.IsNotFound(err)
}
