// Package metrics exposes Prometheus collectors for portal activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pharmaciedusoleil/portal/internal/models"
)

const namespace = "pharmacie"

// Metrics counts chat, reminder and prescription activity. It satisfies the
// observer interfaces of the conversation, reminders and prescriptions
// packages.
type Metrics struct {
	registry *prometheus.Registry

	messages      *prometheus.CounterVec
	intents       *prometheus.CounterVec
	notifications *prometheus.CounterVec
	uploads       *prometheus.CounterVec
	workspaces    prometheus.Gauge
}

// New builds collectors on a fresh registry, so tests can create as many as
// they like.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Chat messages appended, by origin.",
		}, []string{"origin"}),
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "intents_total",
			Help:      "Assistant replies, by matched intent.",
		}, []string{"intent"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "notifications_total",
			Help:      "Reminder notification transitions, by resulting status.",
		}, []string{"status"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prescriptions",
			Name:      "uploads_total",
			Help:      "Prescription upload transitions, by resulting status.",
		}, []string{"status"}),
		workspaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workspaces_active",
			Help:      "Visitor workspaces currently held in memory.",
		}),
	}
	m.registry.MustRegister(
		m.messages, m.intents, m.notifications, m.uploads, m.workspaces,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) MessageAppended(origin models.Origin) {
	m.messages.WithLabelValues(string(origin)).Inc()
}

func (m *Metrics) IntentMatched(intent string) {
	m.intents.WithLabelValues(intent).Inc()
}

func (m *Metrics) NotificationStatus(status models.NotificationStatus) {
	m.notifications.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) UploadStatus(status models.UploadStatus) {
	m.uploads.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) WorkspaceOpened() { m.workspaces.Inc() }
func (m *Metrics) WorkspaceClosed() { m.workspaces.Dec() }
