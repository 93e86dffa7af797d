package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор Prometheus-метрик сервиса.
// Все методы безопасны для nil-получателя: если метрики выключены, вызовы ничего не делают.
type Metrics struct {
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	bookingTransitions *prometheus.CounterVec
	slotConflicts      *prometheus.CounterVec
	pricingWarnings    *prometheus.CounterVec
	promotionRejects   *prometheus.CounterVec
	promotionUsages    *prometheus.CounterVec
	sweeperRuns        *prometheus.CounterVec
	notifications      *prometheus.CounterVec

	dbQueryDuration *prometheus.HistogramVec
	dbOpenConns     *prometheus.GaugeVec
	dbInUseConns    *prometheus.GaugeVec
	dbIdleConns     *prometheus.GaugeVec
	dbWaitCount     *prometheus.GaugeVec
}

// New создает и регистрирует метрики
func New(serviceName string, reg prometheus.Registerer) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		bookingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_transitions_total",
			Help:        "Booking status transitions",
			ConstLabels: constLabels,
		}, []string{"to", "actor"}),
		slotConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "slot_conflicts_total",
			Help:        "Reservation attempts rejected because slots were taken",
			ConstLabels: constLabels,
		}, []string{"stage"}),
		pricingWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "pricing_warnings_total",
			Help:        "Pricing configuration warnings (e.g. negative price clamped)",
			ConstLabels: constLabels,
		}, []string{"listing_id"}),
		promotionRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "promotion_rejections_total",
			Help:        "Promotion codes rejected during selection",
			ConstLabels: constLabels,
		}, []string{"reason"}),
		promotionUsages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "promotion_usages_total",
			Help:        "Promotion usage ledger appends",
			ConstLabels: constLabels,
		}, []string{"result"}),
		sweeperRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "hold_sweeper_processed_total",
			Help:        "Bookings processed by the hold sweeper",
			ConstLabels: constLabels,
		}, []string{"action"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "notifications_total",
			Help:        "Notifications dispatched",
			ConstLabels: constLabels,
		}, []string{"event", "result"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		dbOpenConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Open connections in the pool",
			ConstLabels: constLabels,
		}, []string{"db"}),
		dbInUseConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Connections currently in use",
			ConstLabels: constLabels,
		}, []string{"db"}),
		dbIdleConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Idle connections in the pool",
			ConstLabels: constLabels,
		}, []string{"db"}),
		dbWaitCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: constLabels,
		}, []string{"db"}),
	}

	reg.MustRegister(
		m.httpRequests, m.httpDuration,
		m.bookingTransitions, m.slotConflicts, m.pricingWarnings,
		m.promotionRejects, m.promotionUsages, m.sweeperRuns, m.notifications,
		m.dbQueryDuration, m.dbOpenConns, m.dbInUseConns, m.dbIdleConns, m.dbWaitCount,
	)

	return m
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) IncBookingTransition(to, actor string) {
	if m == nil {
		return
	}
	m.bookingTransitions.WithLabelValues(to, actor).Inc()
}

func (m *Metrics) IncSlotConflict(stage string) {
	if m == nil {
		return
	}
	m.slotConflicts.WithLabelValues(stage).Inc()
}

func (m *Metrics) IncPricingWarning(listingID int64) {
	if m == nil {
		return
	}
	m.pricingWarnings.WithLabelValues(strconv.FormatInt(listingID, 10)).Inc()
}

func (m *Metrics) IncPromotionRejected(reason string) {
	if m == nil {
		return
	}
	m.promotionRejects.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncPromotionUsage(result string) {
	if m == nil {
		return
	}
	m.promotionUsages.WithLabelValues(result).Inc()
}

func (m *Metrics) AddSweeperProcessed(action string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.sweeperRuns.WithLabelValues(action).Add(float64(n))
}

func (m *Metrics) IncNotification(event, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(event, result).Inc()
}

func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetDBPoolStats обновляет метрики пула соединений
func (m *Metrics) SetDBPoolStats(db string, open, inUse, idle int, waitCount int64) {
	if m == nil {
		return
	}
	m.dbOpenConns.WithLabelValues(db).Set(float64(open))
	m.dbInUseConns.WithLabelValues(db).Set(float64(inUse))
	m.dbIdleConns.WithLabelValues(db).Set(float64(idle))
	m.dbWaitCount.WithLabelValues(db).Set(float64(waitCount))
}
