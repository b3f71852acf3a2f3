// Copyright 2025 The Rivaas Authors
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

package httpserver

import "github.com/prometheus/client_golang/prometheus"

// StatisticsCollector exposes a server's counters to a Prometheus registry.
// It is a read-side bridge over the same lock-free snapshot Statistics
// returns; the embedder registers it on whichever registry it scrapes:
//
//	registry.MustRegister(httpserver.NewStatisticsCollector(srv))
//
// Counters reset when Run is called again, which a scraper observes as a
// counter reset.
type StatisticsCollector struct {
	srv *Server

	sessions        *prometheus.Desc
	workingHandlers *prometheus.Desc
	readSuccesses   *prometheus.Desc
	readFailures    *prometheus.Desc
	readTimeouts    *prometheus.Desc
	writeSuccesses  *prometheus.Desc
	writeFailures   *prometheus.Desc
	writeTimeouts   *prometheus.Desc
	handledRequests *prometheus.Desc
}

// NewStatisticsCollector builds a collector for srv.
func NewStatisticsCollector(srv *Server) *StatisticsCollector {
	return &StatisticsCollector{
		srv: srv,
		sessions: prometheus.NewDesc("httpserver_sessions",
			"Currently open connections.", nil, nil),
		workingHandlers: prometheus.NewDesc("httpserver_working_handlers",
			"Handlers currently inside their synchronous Handle call.", nil, nil),
		readSuccesses: prometheus.NewDesc("httpserver_read_successes_total",
			"Requests parsed successfully.", nil, nil),
		readFailures: prometheus.NewDesc("httpserver_read_failures_total",
			"Requests abandoned on parse or I/O errors.", nil, nil),
		readTimeouts: prometheus.NewDesc("httpserver_read_timeouts_total",
			"Requests abandoned on an expired read deadline.", nil, nil),
		writeSuccesses: prometheus.NewDesc("httpserver_write_successes_total",
			"Responses written completely.", nil, nil),
		writeFailures: prometheus.NewDesc("httpserver_write_failures_total",
			"Responses abandoned on a write error.", nil, nil),
		writeTimeouts: prometheus.NewDesc("httpserver_write_timeouts_total",
			"Responses abandoned on an expired write deadline.", nil, nil),
		handledRequests: prometheus.NewDesc("httpserver_handled_requests_total",
			"Requests that reached dispatch.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *StatisticsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sessions
	ch <- c.workingHandlers
	ch <- c.readSuccesses
	ch <- c.readFailures
	ch <- c.readTimeouts
	ch <- c.writeSuccesses
	ch <- c.writeFailures
	ch <- c.writeTimeouts
	ch <- c.handledRequests
}

// Collect implements prometheus.Collector.
func (c *StatisticsCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.srv.Statistics()
	ch <- prometheus.MustNewConstMetric(c.sessions, prometheus.GaugeValue, float64(snap.Sessions))
	ch <- prometheus.MustNewConstMetric(c.workingHandlers, prometheus.GaugeValue, float64(snap.WorkingHandlers))
	ch <- prometheus.MustNewConstMetric(c.readSuccesses, prometheus.CounterValue, float64(snap.ReadSuccesses))
	ch <- prometheus.MustNewConstMetric(c.readFailures, prometheus.CounterValue, float64(snap.ReadFailures))
	ch <- prometheus.MustNewConstMetric(c.readTimeouts, prometheus.CounterValue, float64(snap.ReadTimeouts))
	ch <- prometheus.MustNewConstMetric(c.writeSuccesses, prometheus.CounterValue, float64(snap.WriteSuccesses))
	ch <- prometheus.MustNewConstMetric(c.writeFailures, prometheus.CounterValue, float64(snap.WriteFailures))
	ch <- prometheus.MustNewConstMetric(c.writeTimeouts, prometheus.CounterValue, float64(snap.WriteTimeouts))
	ch <- prometheus.MustNewConstMetric(c.handledRequests, prometheus.CounterValue, float64(snap.HandledRequests))
}
