package k8s

import (
	"context"
	"fmt"

	"aws-sqs-messaging-template/internal/pkg/resource"

	"k8s.io/apimachinery/pkg/api/errors"
	metaV1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// ConfigMapResolver reads logical to physical id mappings from the data of a
// ConfigMap. Unmapped ids, and a missing ConfigMap, resolve to the logical id.
type ConfigMapResolver struct {
	Clientset kubernetes.Interface
	Namespace string
	Name      string
}

var _ resource.Resolver = (*ConfigMapResolver)(nil)

// NewClientset builds an in-cluster clientset.
func NewClientset() (*kubernetes.Clientset, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		return nil, err
	}
	return kubernetes.NewForConfig(config)
}

func (r *ConfigMapResolver) ResolveToPhysicalResourceID(ctx context.Context, logicalID string) (string, error) {
	cm, err := r.Clientset.CoreV1().ConfigMaps(r.Namespace).Get(ctx, r.Name, metaV1.GetOptions{})
	if errors.IsNotFound(err) {
		return logicalID, nil
	}
	if err != nil {
		return "", fmt.Errorf("get configmap %s/%s: %w", r.Namespace, r.Name, err)
	}
	if physical, ok := cm.Data[logicalID]; ok && physical != "" {
		return physical, nil
	}
	return logicalID, nil
}
