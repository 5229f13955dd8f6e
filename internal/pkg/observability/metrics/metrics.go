package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	MessagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqs_template_messages_sent_total",
			Help: "Total messages sent through the messaging template",
		}, []string{"destination"})

	MessagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqs_template_messages_received_total",
			Help: "Total messages received through the messaging template",
		}, []string{"destination"})

	MessagesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqs_template_messages_failed_total",
			Help: "Total messages that failed to send, receive or convert",
		}, []string{"destination", "stage"})

	MessageProcessingTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqs_template_message_processing_seconds",
			Help:    "Histogram of listener message processing duration",
			Buckets: prometheus.DefBuckets,
		})

	DestinationResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqs_template_destination_resolutions_total",
			Help: "Total destination resolutions by cache result",
		}, []string{"result"})

	ListenerBatchSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sqs_template_listener_batch_size",
			Help: "Number of messages returned by the last listener poll",
		},
	)
)

var once sync.Once

// Setup registers all collectors with the default registry. Safe to call more than once.
func Setup() {
	once.Do(func() {
		prometheus.MustRegister(MessagesSent)
		prometheus.MustRegister(MessagesReceived)
		prometheus.MustRegister(MessagesFailed)
		prometheus.MustRegister(MessageProcessingTime)
		prometheus.MustRegister(DestinationResolutions)
		prometheus.MustRegister(ListenerBatchSize)
	})
}
