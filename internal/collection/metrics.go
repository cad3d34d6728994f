// Copyright 2021 FerretDB Inc.
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

package collection

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/FerretDB/bobject/internal/util/must"
)

// Parts of Prometheus metric names.
const (
	namespace = "bobject"
	subsystem = "collection"
)

// Metrics represents collection operations metrics.
//
// A single instance is shared by all collections.
type Metrics struct {
	Operations *prometheus.CounterVec
	Durations  *prometheus.HistogramVec
}

// NewMetrics creates collection operations metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "operations_total",
				Help:      "Total number of collection operations.",
			},
			[]string{"collection", "operation", "result"},
		),
		Durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "operation_duration_seconds",
				Help:      "Collection operation durations.",
				Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
			},
			[]string{"collection", "operation"},
		),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.Operations.Describe(ch)
	m.Durations.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.Operations.Collect(ch)
	m.Durations.Collect(ch)
}

// GetResults returns a map with all operation results:
//
// collection ->
// operation (e.g. "Insert", "FindByID") ->
// result (e.g. "ok", "not_found", "error") ->
// count.
func (m *Metrics) GetResults() map[string]map[string]map[string]int {
	metrics := make(chan prometheus.Metric)
	go func() {
		m.Operations.Collect(metrics)
		close(metrics)
	}()

	res := map[string]map[string]map[string]int{}

	for metric := range metrics {
		var content dto.Metric
		must.NoError(metric.Write(&content))

		var collection, operation, result string
		for _, label := range content.GetLabel() {
			switch label.GetName() {
			case "collection":
				collection = label.GetValue()
			case "operation":
				operation = label.GetValue()
			case "result":
				result = label.GetValue()
			default:
				panic(fmt.Sprintf("%s is not a valid label. Allowed: [collection, operation, result]", label.GetName()))
			}
		}

		if _, ok := res[collection]; !ok {
			res[collection] = map[string]map[string]int{}
		}

		if _, ok := res[collection][operation]; !ok {
			res[collection][operation] = map[string]int{}
		}

		res[collection][operation][result] += int(content.GetCounter().GetValue())
	}

	return res
}

// check interfaces
var (
	_ prometheus.Collector = (*Metrics)(nil)
)
