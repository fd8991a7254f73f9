package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dnldd/nysetime/exchange"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog"
)

type EvaluatorMock struct {
	mtx      sync.Mutex
	session  exchange.Session
	nextOpen time.Time
}

func (m *EvaluatorMock) SessionAt(_ time.Time) exchange.Session {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.session
}

func (m *EvaluatorMock) NextOpen() time.Time {
	return m.nextOpen
}

func (m *EvaluatorMock) IsWinterTime(t time.Time) bool {
	return exchange.IsWinterTime(t)
}

func (m *EvaluatorMock) setSession(session exchange.Session) {
	m.mtx.Lock()
	m.session = session
	m.mtx.Unlock()
}

func setupMonitor(t *testing.T, evaluator SessionEvaluator, notify func(Transition), interval time.Duration) *Monitor {
	logger := zerolog.Nop()
	mon, err := NewMonitor(&MonitorConfig{
		Windows:  evaluator,
		Interval: interval,
		Location: time.UTC,
		Notify:   notify,
		Logger:   &logger,
	})
	assert.NoError(t, err)

	return mon
}

func TestMonitorConfigValidate(t *testing.T) {
	logger := zerolog.Nop()
	baseCfg := func() *MonitorConfig {
		return &MonitorConfig{
			Windows:  &EvaluatorMock{},
			Interval: time.Minute,
			Location: time.UTC,
			Notify:   func(Transition) {},
			Logger:   &logger,
		}
	}

	tests := []struct {
		name        string
		modify      func(cfg *MonitorConfig)
		wantErr     bool
		errContains []string
	}{
		{
			name:    "valid config",
			modify:  func(cfg *MonitorConfig) {},
			wantErr: false,
		},
		{
			name:        "missing evaluator",
			modify:      func(cfg *MonitorConfig) { cfg.Windows = nil },
			wantErr:     true,
			errContains: []string{"session evaluator cannot be nil"},
		},
		{
			name:        "zero interval",
			modify:      func(cfg *MonitorConfig) { cfg.Interval = 0 },
			wantErr:     true,
			errContains: []string{"evaluation interval must be positive"},
		},
		{
			name: "missing location, notify and logger",
			modify: func(cfg *MonitorConfig) {
				cfg.Location = nil
				cfg.Notify = nil
				cfg.Logger = nil
			},
			wantErr: true,
			errContains: []string{
				"location cannot be nil",
				"notify function cannot be nil",
				"logger cannot be nil",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseCfg()
			tt.modify(cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			assert.Error(t, err)
			for _, want := range tt.errContains {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("expected error to contain %q, got %v", want, err)
				}
			}
		})
	}
}

func TestMonitorEvaluate(t *testing.T) {
	nextOpen := time.Date(2025, 7, 14, 7, 0, 1, 0, time.UTC)
	evaluator := &EvaluatorMock{session: exchange.Closed, nextOpen: nextOpen}

	var transitions []Transition
	mon := setupMonitor(t, evaluator, func(transition Transition) {
		transitions = append(transitions, transition)
	}, time.Minute)

	// Ensure no session is reported before the first evaluation.
	_, ok := mon.CurrentSession()
	assert.False(t, ok)

	// Ensure the first evaluation always relays a transition.
	now := time.Date(2025, 7, 13, 12, 0, 0, 0, time.UTC)
	assert.True(t, mon.Evaluate(now))
	assert.Equal(t, 1, len(transitions))
	assert.Equal(t, "unknown", transitions[0].From.String())

	session, ok := mon.CurrentSession()
	assert.True(t, ok)
	assert.Equal(t, exchange.Closed, session)

	// Ensure an unchanged session is not relayed.
	assert.False(t, mon.Evaluate(now.Add(time.Minute)))
	assert.Equal(t, 1, len(transitions))

	// Ensure a session change is relayed.
	evaluator.setSession(exchange.ExchangeOpenSession)
	later := now.Add(time.Hour)
	assert.True(t, mon.Evaluate(later))
	assert.Equal(t, 2, len(transitions))

	got := transitions[1]
	_, err := uuid.Parse(got.ID)
	assert.NoError(t, err)
	assert.NotEqual(t, transitions[0].ID, got.ID)

	want := Transition{
		ID:       got.ID,
		From:     exchange.Closed,
		To:       exchange.ExchangeOpenSession,
		At:       later,
		Winter:   false,
		NextOpen: nextOpen,
	}
	if !cmp.Equal(want, got) {
		t.Errorf("mismatching transition: %v", cmp.Diff(want, got))
	}
}

func TestMonitorRun(t *testing.T) {
	evaluator := &EvaluatorMock{session: exchange.PreMarketSession}

	transitions := make(chan Transition, 8)
	mon := setupMonitor(t, evaluator, func(transition Transition) {
		transitions <- transition
	}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- mon.Run(ctx)
	}()

	select {
	case transition := <-transitions:
		assert.Equal(t, exchange.PreMarketSession, transition.To)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the first transition")
	}

	evaluator.setSession(exchange.RegularSession)
	select {
	case transition := <-transitions:
		assert.Equal(t, exchange.PreMarketSession, transition.From)
		assert.Equal(t, exchange.RegularSession, transition.To)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the session change")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the monitor to stop")
	}
}
