package k8sinventory

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
)

func createTestNode(name string, labels map[string]string, ready bool) *corev1.Node {
	status := corev1.ConditionFalse
	if ready {
		status = corev1.ConditionTrue
	}
	return &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: labels,
		},
		Status: corev1.NodeStatus{
			Addresses: []corev1.NodeAddress{
				{Type: corev1.NodeInternalIP, Address: "10.0.0.1"},
			},
			Conditions: []corev1.NodeCondition{
				{Type: corev1.NodeReady, Status: status},
			},
		},
	}
}

func createFakeClient(nodes ...*corev1.Node) *defaultClient {
	objects := make([]runtime.Object, len(nodes))
	for i, n := range nodes {
		objects[i] = n
	}
	return &defaultClient{
		clientset: fake.NewSimpleClientset(objects...),
		config:    DefaultConfig(),
		logger:    slog.Default(),
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, 30*time.Second, config.Timeout)
	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, config.RetryBackoff)
	assert.Equal(t, 5*time.Second, config.MaxRetryBackoff)
	assert.NotNil(t, config.Logger)
}

func TestListNodes_Success(t *testing.T) {
	node1 := createTestNode("web1", map[string]string{"role": "web"}, true)
	node2 := createTestNode("web2", map[string]string{"role": "web"}, true)
	client := createFakeClient(node1, node2)

	nodes, err := client.ListNodes(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
}

func TestListNodes_EmptyResult(t *testing.T) {
	client := createFakeClient()
	nodes, err := client.ListNodes(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, nodes, 0)
}

func TestGetNode_Success(t *testing.T) {
	node1 := createTestNode("web1", map[string]string{"role": "web"}, true)
	client := createFakeClient(node1)

	node, err := client.GetNode(context.Background(), "web1")
	require.NoError(t, err)
	assert.Equal(t, "web1", node.Name)
}

func TestGetNode_NotFound(t *testing.T) {
	client := createFakeClient()

	node, err := client.GetNode(context.Background(), "nonexistent")
	assert.Nil(t, node)
	assert.Error(t, err)

	var notFoundErr *NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestListNodes_ContextCancelled(t *testing.T) {
	client := createFakeClient()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	nodes, err := client.ListNodes(ctx, "")
	assert.Nil(t, nodes)
	assert.Error(t, err)

	var timeoutErr *TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)
}

func TestSubjects_AdaptsEveryNode(t *testing.T) {
	node1 := createTestNode("web1", map[string]string{"role": "web"}, true)
	node2 := createTestNode("db1", map[string]string{"role": "db"}, false)
	client := createFakeClient(node1, node2)

	subjects, err := client.Subjects(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 2)

	byID := map[string]bool{}
	for _, s := range subjects {
		byID[s.IDValue()] = true
		assert.Equal(t, s.IDValue(), s.FQDNValue())
		assert.Contains(t, s.IPv4, "10.0.0.1")
	}
	assert.True(t, byID["web1"])
	assert.True(t, byID["db1"])
}

func TestSubjects_RespectsConfiguredLabelSelector(t *testing.T) {
	node1 := createTestNode("web1", map[string]string{"role": "web"}, true)
	client := createFakeClient(node1)
	client.config.LabelSelector = "role=web"

	subjects, err := client.Subjects(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 1)
}

func TestConcurrentAccess(t *testing.T) {
	node1 := createTestNode("web1", nil, true)
	client := createFakeClient(node1)

	const numGoroutines = 10
	done := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			_, _ = client.ListNodes(context.Background(), "")
			done <- true
		}()
	}
	for i := 0; i < numGoroutines; i++ {
		<-done
	}
}
