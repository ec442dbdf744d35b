// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package console

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// linesSubmitted tracks lines queued by the host
	linesSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dbgconsole_lines_submitted_total",
			Help: "Total input lines queued for the debugger engine",
		},
	)

	// linesDelivered tracks lines handed to the engine
	linesDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dbgconsole_lines_delivered_total",
			Help: "Total input lines delivered to the debugger engine",
		},
	)

	// terminations tracks end-of-input sentinels queued
	terminations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dbgconsole_terminations_total",
			Help: "Total end-of-input sentinels queued",
		},
	)

	// queueDepth tracks pending entries in the line queue
	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dbgconsole_queue_depth",
			Help: "Number of entries waiting in the line queue",
		},
	)

	// interrupts tracks interrupter acquisitions against a real target
	interrupts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dbgconsole_interrupts_total",
			Help: "Total target interrupt scopes acquired",
		},
	)

	// historyEntries tracks the in-memory history size
	historyEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dbgconsole_history_entries",
			Help: "Number of entries in the command history",
		},
	)

	// historySaveErrors tracks failed history writes
	historySaveErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dbgconsole_history_save_errors_total",
			Help: "Total failures to persist the command history",
		},
	)

	// attaches tracks attach attempts by result
	attaches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbgconsole_attach_total",
			Help: "Total console attach attempts by result",
		},
		[]string{"result"},
	)
)

// recordAttach increments the attach counter
func recordAttach(result string) {
	attaches.WithLabelValues(result).Inc()
}
