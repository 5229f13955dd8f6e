package listener

import (
	"context"
	"time"

	metaV1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	"aws-sqs-messaging-template/internal/pkg/logger"
)

// Election identifies the Lease used to pick the single consuming replica.
type Election struct {
	Clientset kubernetes.Interface
	Namespace string
	LockName  string
	Identity  string
}

// RunWithLeaderElection runs the listener only while this replica holds the
// lease. It returns when ctx is done.
func (l *Listener) RunWithLeaderElection(ctx context.Context, e Election) error {
	lock := resourcelock.LeaseLock{
		LeaseMeta: metaV1.ObjectMeta{
			Namespace: e.Namespace,
			Name:      e.LockName,
		},
		Client: e.Clientset.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: e.Identity,
		},
	}

	elector, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
		Lock:            &lock,
		LeaseDuration:   15 * time.Second,
		RenewDeadline:   10 * time.Second,
		RetryPeriod:     2 * time.Second,
		ReleaseOnCancel: true,
		Callbacks: leaderelection.LeaderCallbacks{
			OnStartedLeading: func(ctx context.Context) {
				logger.Info("Leader acquired")
				if err := l.Run(ctx); err != nil {
					logger.Error("Listener stopped with error: %s", err)
				}
			},
			OnStoppedLeading: func() {
				logger.Info("Lost leadership")
			},
			OnNewLeader: func(id string) {
				if id == e.Identity {
					logger.Info("Current instance is the leader")
				} else {
					logger.Info("New leader elected: %s", id)
				}
			},
		},
	})
	if err != nil {
		return err
	}

	for ctx.Err() == nil {
		elector.Run(ctx)
	}
	return nil
}
