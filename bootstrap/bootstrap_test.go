package bootstrap

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/s3fm/component"
	"github.com/kbukum/s3fm/config"
	"github.com/kbukum/s3fm/logger"
)

type testConfig struct {
	config.ServiceConfig
}

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	status   component.HealthStatus
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(context.Context) error {
	*m.events = append(*m.events, "start:"+m.name)
	return m.startErr
}

func (m *mockComponent) Stop(context.Context) error {
	*m.events = append(*m.events, "stop:"+m.name)
	return m.stopErr
}

func (m *mockComponent) Health(context.Context) component.Health {
	status := m.status
	if status == "" {
		status = component.StatusHealthy
	}
	return component.Health{Name: m.name, Status: status}
}

func newTestApp(t *testing.T) (*App[*testConfig], *[]string) {
	t.Helper()
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "s3fm", Version: "1.2.3"}}
	app, err := NewApp(cfg, WithLogger(logger.NewNop()), WithGracefulTimeout(time.Second))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app, &[]string{}
}

func hook(events *[]string, name string) Hook {
	return func(context.Context) error {
		*events = append(*events, name)
		return nil
	}
}

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t)
	if app.Name != "s3fm" || app.Version != "1.2.3" {
		t.Errorf("name=%q version=%q", app.Name, app.Version)
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("defaults not applied: environment=%q", app.Cfg.Environment)
	}
	if app.gracefulTimeout != time.Second {
		t.Errorf("gracefulTimeout = %v", app.gracefulTimeout)
	}

	if _, err := NewApp(&testConfig{}); err == nil {
		t.Error("expected validation error for a config without a name")
	}
}

func TestRunTask_Lifecycle(t *testing.T) {
	app, events := newTestApp(t)
	if err := app.RegisterComponent(&mockComponent{name: "storage", events: events}); err != nil {
		t.Fatal(err)
	}
	app.OnStart(hook(events, "onStart"))
	app.OnConfigure(func(_ context.Context, a *App[*testConfig]) error {
		*events = append(*events, "configure")
		return a.RegisterComponent(&mockComponent{name: "http-server", events: events})
	})
	app.OnReady(hook(events, "onReady"))
	app.OnStop(hook(events, "onStop"))

	err := app.RunTask(context.Background(), func(context.Context) error {
		*events = append(*events, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}

	want := []string{
		"start:storage", "onStart", "configure", "start:http-server", "onReady",
		"task", "onStop", "stop:http-server", "stop:storage",
	}
	if !slices.Equal(*events, want) {
		t.Errorf("events\n got %v\nwant %v", *events, want)
	}
}

func TestRunTask_TaskErrorWins(t *testing.T) {
	app, events := newTestApp(t)
	app.RegisterComponent(&mockComponent{name: "storage", events: events, stopErr: errors.New("stop failed")})

	taskErr := errors.New("task failed")
	err := app.RunTask(context.Background(), func(context.Context) error { return taskErr })
	if !errors.Is(err, taskErr) {
		t.Errorf("err = %v, want task error", err)
	}
}

func TestRunTask_StopErrorReported(t *testing.T) {
	app, events := newTestApp(t)
	app.RegisterComponent(&mockComponent{name: "storage", events: events, stopErr: errors.New("stop failed")})

	err := app.RunTask(context.Background(), func(context.Context) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "stop failed") {
		t.Errorf("err = %v, want stop failure", err)
	}
}

func TestStartupFailureStopsStarted(t *testing.T) {
	app, events := newTestApp(t)
	app.RegisterComponent(&mockComponent{name: "storage", events: events})
	app.RegisterComponent(&mockComponent{name: "redis", events: events, startErr: errors.New("dial refused")})

	ran := false
	err := app.RunTask(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "dial refused") {
		t.Fatalf("err = %v", err)
	}
	if ran {
		t.Error("task ran after a failed startup")
	}
	if want := []string{"start:storage", "start:redis", "stop:storage"}; !slices.Equal(*events, want) {
		t.Errorf("events = %v, want %v", *events, want)
	}
}

func TestConfigureError(t *testing.T) {
	app, _ := newTestApp(t)
	app.OnConfigure(func(context.Context, *App[*testConfig]) error { return errors.New("bad wiring") })
	err := app.RunTask(context.Background(), func(context.Context) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "configure") {
		t.Errorf("err = %v", err)
	}
}

func TestReadyCheck(t *testing.T) {
	app, events := newTestApp(t)
	app.RegisterComponent(&mockComponent{name: "storage", events: events})
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Errorf("healthy app: %v", err)
	}
	app.RegisterComponent(&mockComponent{name: "redis", events: events, status: component.StatusUnhealthy})
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "redis=unhealthy") {
		t.Errorf("err = %v", err)
	}
}

func TestRun_ContextCancel(t *testing.T) {
	app, events := newTestApp(t)
	app.RegisterComponent(&mockComponent{name: "storage", events: events})

	ctx, cancel := context.WithCancel(context.Background())
	app.OnReady(func(context.Context) error {
		cancel()
		return nil
	})
	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := []string{"start:storage", "stop:storage"}; !slices.Equal(*events, want) {
		t.Errorf("events = %v, want %v", *events, want)
	}
}
