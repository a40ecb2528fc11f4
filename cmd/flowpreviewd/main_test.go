package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/Qalifah/flowpreview/config"
)

func TestLevelOption(t *testing.T) {
	var logged int
	counting := log.LoggerFunc(func(...interface{}) error { logged++; return nil })

	logger := level.NewFilter(counting, levelOption("warn"))
	level.Info(logger).Log("msg", "dropped")
	level.Warn(logger).Log("msg", "kept")
	level.Error(logger).Log("msg", "kept")
	if logged != 2 {
		t.Fatalf("logged %d lines, want 2", logged)
	}
}

func TestOpenRepositoriesSQLite(t *testing.T) {
	cfg := config.StorageConfig{
		Driver: config.DriverSQLite,
		SQLite: config.SQLiteConfig{Dir: t.TempDir(), Database: "port.sqlite"},
	}
	for i := 0; i < 2; i++ {
		repos, err := openRepositories(context.Background(), cfg, log.NewNopLogger())
		if err != nil {
			t.Fatalf("open #%d returned error: %v", i+1, err)
		}
		if _, err := repos.schedules.FindAll(context.Background()); err != nil {
			t.Fatalf("FindAll returned error: %v", err)
		}
		names, err := repos.databases.List()
		if err != nil || len(names) != 1 || names[0] != "port.sqlite" {
			t.Fatalf("List = %v, %v", names, err)
		}
		repos.close()
	}
}

func TestOpenRepositoriesMemoryHasNoDatabases(t *testing.T) {
	repos, err := openRepositories(context.Background(), config.StorageConfig{Driver: config.DriverMemory}, log.NewNopLogger())
	if err != nil {
		t.Fatalf("openRepositories returned error: %v", err)
	}
	defer repos.close()
	if repos.databases != nil {
		t.Fatal("memory storage should not offer scenario databases")
	}
}

func TestOpenRepositoriesUnknownDriver(t *testing.T) {
	if _, err := openRepositories(context.Background(), config.StorageConfig{Driver: "mysql"}, log.NewNopLogger()); err == nil {
		t.Fatal("expected an error for an unknown driver")
	}
}

func TestAccessControlAnswersPreflight(t *testing.T) {
	var served bool
	h := accessControl(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { served = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/preview/v1/modal-split", nil))
	if served {
		t.Fatal("preflight reached the handler")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header: %v", rec.Header())
	}
}
