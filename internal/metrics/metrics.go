// Package metrics содержит метрики Prometheus витрины.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// Metrics набор коллекторов сервиса.
type Metrics struct {
	Cart         Ops
	Favorites    Ops
	Newsletter   Results
	HTTPDuration *prometheus.HistogramVec
}

// Ops счётчик операций с меткой op.
type Ops struct {
	vec *prometheus.CounterVec
}

// Inc увеличивает счётчик операции op. Нулевое значение Ops ничего не делает.
func (o Ops) Inc(op string) {
	if o.vec == nil {
		return
	}
	o.vec.WithLabelValues(op).Inc()
}

// Results счётчик операций с метками op и result.
type Results struct {
	vec *prometheus.CounterVec
}

// Inc увеличивает счётчик операции op с исходом result.
func (r Results) Inc(op, result string) {
	if r.vec == nil {
		return
	}
	r.vec.WithLabelValues(op, result).Inc()
}

// New создаёт коллекторы и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	cart := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_operations_total",
		Help:      "Cart mutations by operation.",
	}, []string{"op"})
	favorites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "favorites_operations_total",
		Help:      "Favorites mutations by operation.",
	}, []string{"op"})
	newsletter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "newsletter_operations_total",
		Help:      "Newsletter operations by operation and result.",
	}, []string{"op", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	reg.MustRegister(cart, favorites, newsletter, duration)

	return &Metrics{
		Cart:         Ops{vec: cart},
		Favorites:    Ops{vec: favorites},
		Newsletter:   Results{vec: newsletter},
		HTTPDuration: duration,
	}
}
