package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProductsCreated is a Prometheus counter for tracking the total number of products created.
	ProductsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_created_total",
		Help: "The total number of products created",
	})

	// ProductsDeleted is a Prometheus counter for tracking the total number of products deleted.
	ProductsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_deleted_total",
		Help: "The total number of products deleted",
	})

	// VariantsPersisted counts variant rows written by product submissions.
	VariantsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_variants_persisted_total",
		Help: "The total number of product variants persisted",
	})

	// VariantsDropped counts submitted variants that did not qualify, by reason.
	VariantsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "product_variants_dropped_total",
		Help: "The total number of submitted product variants dropped during validation",
	}, []string{"reason"})

	// SubmissionFailures counts failed product submissions by the write that failed.
	SubmissionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "product_submission_failures_total",
		Help: "The total number of product submissions that failed to persist",
	}, []string{"stage"})

	// GateRedirects counts redirects issued by the session gate, by target path.
	GateRedirects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_gate_redirects_total",
		Help: "The total number of redirects issued by the session gate",
	}, []string{"target"})

	// OutboxEvents counts outbox events handled by the worker, by resulting status.
	OutboxEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_total",
		Help: "The total number of outbox events handled by the publisher",
	}, []string{"status"})

	// NotificationsReceived counts product messages consumed by the notification service, by action.
	NotificationsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "product_notifications_received_total",
		Help: "The total number of product notifications consumed",
	}, []string{"action"})
)
