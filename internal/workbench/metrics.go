package workbench

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	catalogReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apu_catalog_reloads_total",
		Help: "Catalog reloads by result",
	}, []string{"result"})

	catalogAdds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apu_catalog_additions_total",
		Help: "Catalog entries created from the workbench by kind",
	}, []string{"kind"})

	sessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apu_sessions_opened_total",
		Help: "Workbench sessions opened",
	})
)
