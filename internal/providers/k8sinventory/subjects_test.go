package k8sinventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func TestSubjectFromNode_MapsIdentityAndLabels(t *testing.T) {
	node := &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{
			Name:        "web1.example.com",
			Labels:      map[string]string{"role": "web", "env": "prod"},
			Annotations: map[string]string{"fullname": "John Doe"},
		},
		Status: corev1.NodeStatus{
			NodeInfo: corev1.NodeSystemInfo{
				OperatingSystem: "linux",
				KernelVersion:   "5.15.0",
				Architecture:    "amd64",
			},
			Addresses: []corev1.NodeAddress{
				{Type: corev1.NodeInternalIP, Address: "10.0.0.5"},
				{Type: corev1.NodeExternalIP, Address: "203.0.113.9"},
				{Type: corev1.NodeHostName, Address: "web1"},
			},
			Conditions: []corev1.NodeCondition{
				{Type: corev1.NodeReady, Status: corev1.ConditionTrue},
			},
		},
		Spec: corev1.NodeSpec{Unschedulable: false},
	}

	subject := subjectFromNode(node)

	require.True(t, subject.HasID())
	assert.Equal(t, "web1.example.com", subject.IDValue())
	assert.Equal(t, "web1.example.com", subject.FQDNValue())
	assert.ElementsMatch(t, []string{"10.0.0.5", "203.0.113.9"}, subject.IPv4)

	assert.Equal(t, "web", subject.Grains["role"])
	assert.Equal(t, "linux", subject.Grains["os"])
	assert.Equal(t, "5.15.0", subject.Grains["kernel"])

	assert.Equal(t, "John Doe", subject.Pillar["fullname"])

	assert.Equal(t, true, subject.Data["ready"])
	assert.Equal(t, true, subject.Data["schedulable"])
}

func TestSubjectFromNode_NotReadyAndUnschedulable(t *testing.T) {
	node := &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: "draining"},
		Status: corev1.NodeStatus{
			Conditions: []corev1.NodeCondition{
				{Type: corev1.NodeReady, Status: corev1.ConditionFalse},
			},
		},
		Spec: corev1.NodeSpec{Unschedulable: true},
	}

	subject := subjectFromNode(node)
	assert.Equal(t, false, subject.Data["ready"])
	assert.Equal(t, false, subject.Data["schedulable"])
}

func TestSubjectFromNode_NoReadyConditionIsNotReady(t *testing.T) {
	node := &corev1.Node{ObjectMeta: metav1.ObjectMeta{Name: "unknown"}}
	subject := subjectFromNode(node)
	assert.Equal(t, false, subject.Data["ready"])
}
