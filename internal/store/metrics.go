package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_store_operations_total",
			Help: "Cart store transitions by action and emitted notice",
		},
		[]string{"op", "notice"},
	)

	persistenceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_store_persistence_errors_total",
			Help: "Cart slot load, decode, encode and save failures",
		},
		[]string{"stage"},
	)
)

// Persistence failure stages.
const (
	stageLoad   = "load"
	stageDecode = "decode"
	stageEncode = "encode"
	stageSave   = "save"
)
