package k8sinventory

import (
	"net"

	corev1 "k8s.io/api/core/v1"

	"github.com/vitaliisemenov/selector-engine/internal/selector"
)

// subjectFromNode adapts a Kubernetes Node into a selector.Subject: the
// node name becomes id/fqdn, its label set becomes grains (augmented with
// OS/kernel/architecture facts from NodeInfo), its annotations become
// pillar, and its addresses become ipv4.
func subjectFromNode(node *corev1.Node) *selector.Subject {
	name := node.Name

	grains := make(map[string]any, len(node.Labels)+4)
	for k, v := range node.Labels {
		grains[k] = v
	}
	grains["os"] = node.Status.NodeInfo.OperatingSystem
	grains["kernel"] = node.Status.NodeInfo.KernelVersion
	grains["arch"] = node.Status.NodeInfo.Architecture
	grains["kubelet_version"] = node.Status.NodeInfo.KubeletVersion

	pillar := make(map[string]any, len(node.Annotations))
	for k, v := range node.Annotations {
		pillar[k] = v
	}

	data := map[string]any{
		"ready":         isNodeReady(node),
		"schedulable":   !node.Spec.Unschedulable,
		"taint_count":   len(node.Spec.Taints),
		"resource_name": node.Name,
	}

	return &selector.Subject{
		ID:     selector.StrPtr(name),
		FQDN:   selector.StrPtr(name),
		IPv4:   nodeIPv4Addresses(node),
		Grains: grains,
		Pillar: pillar,
		Data:   data,
	}
}

// nodeIPv4Addresses collects every internal or external IPv4 address
// reported in the node's status, in the order Kubernetes lists them.
func nodeIPv4Addresses(node *corev1.Node) []string {
	var addrs []string
	for _, a := range node.Status.Addresses {
		if a.Type != corev1.NodeInternalIP && a.Type != corev1.NodeExternalIP {
			continue
		}
		ip := net.ParseIP(a.Address)
		if ip == nil || ip.To4() == nil {
			continue
		}
		addrs = append(addrs, a.Address)
	}
	return addrs
}

func isNodeReady(node *corev1.Node) bool {
	for _, cond := range node.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}
