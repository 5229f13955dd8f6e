package k8s

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	coreV1 "k8s.io/api/core/v1"
	metaV1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func TestConfigMapResolver(t *testing.T) {
	clientset := fake.NewSimpleClientset(&coreV1.ConfigMap{
		ObjectMeta: metaV1.ObjectMeta{Name: "queue-names", Namespace: "messaging"},
		Data: map[string]string{
			"JsonQueue": "prod-json-queue",
		},
	})
	r := &ConfigMapResolver{Clientset: clientset, Namespace: "messaging", Name: "queue-names"}

	got, err := r.ResolveToPhysicalResourceID(context.Background(), "JsonQueue")
	require.NoError(t, err)
	assert.Equal(t, "prod-json-queue", got)

	got, err = r.ResolveToPhysicalResourceID(context.Background(), "StreamQueue")
	require.NoError(t, err)
	assert.Equal(t, "StreamQueue", got)
}

func TestConfigMapResolver_MissingConfigMap(t *testing.T) {
	r := &ConfigMapResolver{Clientset: fake.NewSimpleClientset(), Namespace: "messaging", Name: "absent"}

	got, err := r.ResolveToPhysicalResourceID(context.Background(), "JsonQueue")
	require.NoError(t, err)
	assert.Equal(t, "JsonQueue", got)
}
