// Package health предоставляет liveness/readiness-пробы сервиса заказов.
package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// State — итог одной пробы.
type State string

const (
	StateUp   State = "up"
	StateDown State = "down"
)

// ProbeFunc проверяет один компонент (ping хранилища, брокера и т.п.).
type ProbeFunc func() error

type probe struct {
	name     string
	required bool
	fn       ProbeFunc
}

// ProbeResult — результат одной пробы в ответе health-эндпоинта.
type ProbeResult struct {
	State     State  `json:"state"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// Report — полный ответ GET /healthz.
type Report struct {
	State         State                  `json:"state"`
	Service       string                 `json:"service"`
	Version       string                 `json:"version"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
	Probes        map[string]ProbeResult `json:"probes,omitempty"`
}

// Registry собирает пробы компонентов и отвечает на health-запросы.
// Required-пробы влияют на readiness, optional — только на отчёт.
type Registry struct {
	mu      sync.RWMutex
	probes  []probe
	service string
	version string
	started time.Time
}

// NewRegistry создаёт реестр проб для сервиса заданной версии.
func NewRegistry(service, version string) *Registry {
	return &Registry{
		service: service,
		version: version,
		started: time.Now(),
	}
}

// Register добавляет пробу, от которой зависит готовность сервиса.
func (r *Registry) Register(name string, fn ProbeFunc) {
	r.add(name, true, fn)
}

// RegisterOptional добавляет информационную пробу: её падение видно в отчёте,
// но не снимает сервис с трафика.
func (r *Registry) RegisterOptional(name string, fn ProbeFunc) {
	r.add(name, false, fn)
}

func (r *Registry) add(name string, required bool, fn ProbeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probes = append(r.probes, probe{name: name, required: required, fn: fn})
}

func (r *Registry) snapshot() []probe {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]probe, len(r.probes))
	copy(out, r.probes)
	return out
}

// Handler отвечает на GET /healthz полным отчётом по всем пробам.
func (r *Registry) Handler(w http.ResponseWriter, _ *http.Request) {
	probes := r.snapshot()

	report := Report{
		State:         StateUp,
		Service:       r.service,
		Version:       r.version,
		UptimeSeconds: int64(time.Since(r.started).Seconds()),
		Probes:        make(map[string]ProbeResult, len(probes)),
	}

	for _, p := range probes {
		start := time.Now()
		err := p.fn()
		result := ProbeResult{State: StateUp, ElapsedMs: time.Since(start).Milliseconds()}
		if err != nil {
			result.State = StateDown
			result.Error = err.Error()
			if p.required {
				report.State = StateDown
			}
		}
		report.Probes[p.name] = result
	}

	status := http.StatusOK
	if report.State == StateDown {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}

// ReadyHandler отвечает на GET /readyz: 200, если все required-пробы прошли.
func (r *Registry) ReadyHandler(w http.ResponseWriter, _ *http.Request) {
	for _, p := range r.snapshot() {
		if !p.required {
			continue
		}
		if err := p.fn(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// LiveHandler отвечает на GET /livez: процесс жив, значит 200.
func LiveHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
