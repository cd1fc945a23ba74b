package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Причины отказа для метрики orderhub_orders_rejected_total.
const (
	RejectReasonInvalidRequest     = "invalid_request"
	RejectReasonCustomerNotFound   = "customer_not_found"
	RejectReasonOutOfStock         = "out_of_stock"
	RejectReasonInvalidQuantities  = "invalid_quantities"
	RejectReasonPersistenceFailure = "persistence_failure"
)

// PlacementMetrics содержит метрики workflow размещения заказов.
type PlacementMetrics struct {
	// Счётчики результатов
	ordersPlaced   prometheus.Counter
	ordersRejected *prometheus.CounterVec

	// Гистограммы
	placementDuration prometheus.Histogram
	lineItemsPerOrder prometheus.Histogram

	// Складские операции
	stockDecrements    prometheus.Counter
	stockCompensations prometheus.Counter

	// События
	eventsPublished prometheus.Counter

	// Gauge для запросов в обработке
	activeRequests prometheus.Gauge
}

// NewPlacementMetrics создаёт новый экземпляр метрик размещения.
func NewPlacementMetrics() *PlacementMetrics {
	return newPlacementMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newPlacementMetricsWithRegisterer(registerer prometheus.Registerer) *PlacementMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &PlacementMetrics{
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderhub_orders_placed_total",
			Help: "Total number of orders placed successfully",
		}),
		ordersRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orderhub_orders_rejected_total",
			Help: "Total number of order placement requests rejected",
		}, []string{"reason"}),
		placementDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "orderhub_placement_duration_seconds",
			Help:    "Duration of order placement workflow in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		lineItemsPerOrder: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "orderhub_line_items_per_order",
			Help:    "Number of line items per placed order",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),
		stockDecrements: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderhub_stock_decrements_total",
			Help: "Total number of conditional stock decrements applied",
		}),
		stockCompensations: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderhub_stock_compensations_total",
			Help: "Total number of stock restores after a failed order write",
		}),
		eventsPublished: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderhub_events_published_total",
			Help: "Total number of order events published",
		}),
		activeRequests: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "orderhub_active_placements",
			Help: "Number of placement requests currently in flight",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderPlaced увеличивает счётчик успешно размещённых заказов.
func (m *PlacementMetrics) RecordOrderPlaced(lineItems int) {
	m.ordersPlaced.Inc()
	m.lineItemsPerOrder.Observe(float64(lineItems))
}

// RecordOrderRejected увеличивает счётчик отказов с меткой причины.
func (m *PlacementMetrics) RecordOrderRejected(reason string) {
	m.ordersRejected.WithLabelValues(reason).Inc()
}

// RecordPlacementDuration записывает время выполнения workflow.
func (m *PlacementMetrics) RecordPlacementDuration(duration time.Duration) {
	m.placementDuration.Observe(duration.Seconds())
}

// RecordStockDecrement увеличивает счётчик применённых списаний остатков.
func (m *PlacementMetrics) RecordStockDecrement() {
	m.stockDecrements.Inc()
}

// RecordStockCompensation увеличивает счётчик компенсаций остатков.
func (m *PlacementMetrics) RecordStockCompensation() {
	m.stockCompensations.Inc()
}

// RecordEventPublished увеличивает счётчик опубликованных событий.
func (m *PlacementMetrics) RecordEventPublished() {
	m.eventsPublished.Inc()
}

// RecordRequestStarted увеличивает количество запросов в обработке.
func (m *PlacementMetrics) RecordRequestStarted() {
	m.activeRequests.Inc()
}

// RecordRequestFinished уменьшает количество запросов в обработке.
func (m *PlacementMetrics) RecordRequestFinished() {
	m.activeRequests.Dec()
}
