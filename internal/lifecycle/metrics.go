package lifecycle

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"smart-international-shipping/internal/domain"
)

var operationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "lifecycle_operations_total", Help: "Lifecycle operations by outcome"},
	[]string{"op", "outcome"},
)

func init() {
	prometheus.MustRegister(operationsTotal)
}

func outcome(err error) string {
	var (
		nf  *domain.NotFoundError
		ad  *domain.AccessDeniedError
		cf  *domain.ConflictError
		inv *domain.ValidationError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &inv):
		return "invalid"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &ad):
		return "denied"
	case errors.As(err, &cf):
		return "conflict"
	}
	return "error"
}

func observe(op string, err error) {
	operationsTotal.WithLabelValues(op, outcome(err)).Inc()
}
