package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"mockprep/internal/config"
	"mockprep/internal/llm"
	mongostore "mockprep/internal/repositories/mongo"
)

var (
	origNewLogger    = newLogger
	origLoadConfig   = loadConfig
	origNewProvider  = newProvider
	origGormOpen     = gormOpen
	origNewDialector = newDialector
	origMongoConnect = mongoConnect
	origConnTimeout  = dbConnectTimeout
	origListenServe  = httpListenServe
	origExitFunc     = exitFunc
	origLogFatalFn   = logFatalFn
)

func resetServerGlobals() {
	newLogger = origNewLogger
	loadConfig = origLoadConfig
	newProvider = origNewProvider
	gormOpen = origGormOpen
	newDialector = origNewDialector
	mongoConnect = origMongoConnect
	dbConnectTimeout = origConnTimeout
	httpListenServe = origListenServe
	exitFunc = origExitFunc
	logFatalFn = origLogFatalFn
}

func prepareServerGlobals(t *testing.T) {
	t.Helper()
	resetServerGlobals()
	t.Cleanup(resetServerGlobals)
	newLogger = func(...zap.Option) (*zap.Logger, error) { return zap.NewNop(), nil }
	newProvider = func(string, llm.Settings) (llm.Provider, error) { return fakeProvider{}, nil }
}

type fakeProvider struct{}

func (fakeProvider) GenerateContent(context.Context, string, string) (*llm.GenerationResponse, error) {
	return &llm.GenerationResponse{Content: `{"feedback":"ok","rating":3}`}, nil
}
func (fakeProvider) GetProviderName() string { return "fake" }

func setRunEnv(t *testing.T, name string) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "file:"+name+"?mode=memory&cache=shared")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("BLOB_BACKEND", "local")
	t.Setenv("LOCAL_BLOB_DIR", t.TempDir())
	t.Setenv("REDIS_ADDR", "")
}

func TestConnectWithRetrySuccess(t *testing.T) {
	prepareServerGlobals(t)

	var calls int32
	gormOpen = func(driver, dsn string) (*gorm.DB, error) {
		atomic.AddInt32(&calls, 1)
		return gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	}

	db, err := connectWithRetry("sqlite", "dsn", time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected single connection attempt, got %d", calls)
	}
	sqlDB, _ := db.DB()
	sqlDB.Close()
}

func TestConnectWithRetryFailure(t *testing.T) {
	prepareServerGlobals(t)

	var calls int32
	gormOpen = func(string, string) (*gorm.DB, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("connect failed")
	}

	if _, err := connectWithRetry("postgres", "dsn", 300*time.Millisecond, zap.NewNop()); err == nil {
		t.Fatalf("expected error but got nil")
	}
	if atomic.LoadInt32(&calls) < 2 {
		t.Fatalf("expected retries, got %d attempts", calls)
	}
}

func TestConnectWithRetryPingFailure(t *testing.T) {
	prepareServerGlobals(t)

	gormOpen = func(string, string) (*gorm.DB, error) {
		db, err := gorm.Open(sqlite.Open("file:ping-fail?mode=memory&cache=shared"), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.Close()
		return db, nil
	}

	if _, err := connectWithRetry("sqlite", "dsn", 300*time.Millisecond, zap.NewNop()); err == nil {
		t.Fatalf("expected error due to ping failure")
	}
}

func TestRunServesHealthAndReadiness(t *testing.T) {
	prepareServerGlobals(t)
	setRunEnv(t, "run-success")

	var listened string
	var healthCode, readyCode int
	httpListenServe = func(srv *http.Server) error {
		listened = srv.Addr
		for path, code := range map[string]*int{"/healthz": &healthCode, "/readyz": &readyCode} {
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			*code = rec.Code
		}
		return nil
	}

	if err := run(); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if listened != ":8080" {
		t.Fatalf("expected listen addr :8080, got %s", listened)
	}
	if healthCode != http.StatusOK || readyCode != http.StatusOK {
		t.Fatalf("expected healthy server, got healthz=%d readyz=%d", healthCode, readyCode)
	}
}

func TestRunRequiresAuthOnAPI(t *testing.T) {
	prepareServerGlobals(t)
	setRunEnv(t, "run-auth")

	var code int
	httpListenServe = func(srv *http.Server) error {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/interviews", nil))
		code = rec.Code
		return nil
	}

	if err := run(); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", code)
	}
}

func TestRunListenFailure(t *testing.T) {
	prepareServerGlobals(t)
	setRunEnv(t, "run-listen")
	httpListenServe = func(*http.Server) error { return errors.New("address in use") }

	if err := run(); err == nil {
		t.Fatalf("expected listen error from run")
	}
}

func TestRunConfigFailure(t *testing.T) {
	prepareServerGlobals(t)
	setRunEnv(t, "run-config")
	t.Setenv("JWT_SECRET", "")

	if err := run(); err == nil {
		t.Fatalf("expected config error from run")
	}
}

func TestRunProviderFailure(t *testing.T) {
	prepareServerGlobals(t)
	setRunEnv(t, "run-provider")
	newProvider = func(string, llm.Settings) (llm.Provider, error) { return nil, errors.New("GEMINI_API_KEY missing") }

	if err := run(); err == nil {
		t.Fatalf("expected provider error from run")
	}
}

func TestRunLoggerFailure(t *testing.T) {
	prepareServerGlobals(t)
	setRunEnv(t, "run-logger")
	newLogger = func(...zap.Option) (*zap.Logger, error) { return nil, errors.New("logger boom") }

	if err := run(); err == nil {
		t.Fatalf("expected logger error from run")
	}
}

func TestOpenStoreMongoConnectFailure(t *testing.T) {
	prepareServerGlobals(t)
	mongoConnect = func(context.Context, string, string) (*mongostore.Client, error) {
		return nil, errors.New("no server")
	}

	cfg := &config.Config{StoreDriver: "mongo", MongoURI: "mongodb://nowhere", MongoDB: "mockprep"}
	if _, err := openStore(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatalf("expected mongo connect error")
	}
}

func TestOpenReportCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	rdb, c := openReportCache(context.Background(), &config.Config{RedisAddr: mr.Addr(), ReportCacheTTL: time.Minute}, zap.NewNop())
	if rdb == nil || c == nil {
		t.Fatalf("expected cache for reachable redis")
	}
	rdb.Close()

	mr.Close()
	rdb, c = openReportCache(context.Background(), &config.Config{RedisAddr: mr.Addr()}, zap.NewNop())
	if rdb != nil || c != nil {
		t.Fatalf("expected cache disabled for unreachable redis")
	}

	if rdb, c := openReportCache(context.Background(), &config.Config{}, zap.NewNop()); rdb != nil || c != nil {
		t.Fatalf("expected cache disabled without REDIS_ADDR")
	}
}

func TestMainHandlesError(t *testing.T) {
	prepareServerGlobals(t)
	loadConfig = func() (*config.Config, error) { return nil, errors.New("bad config") }

	var captured error
	exitCalled := false
	exitFunc = func(int) { exitCalled = true }
	logFatalFn = func(err error) {
		captured = err
		exitFunc(1)
	}

	main()

	if captured == nil {
		t.Fatalf("expected logFatalFn to capture error")
	}
	if !exitCalled {
		t.Fatalf("expected exitFunc to be invoked")
	}
}

func TestDefaultLogFatal(t *testing.T) {
	prepareServerGlobals(t)

	var code int
	exitFunc = func(c int) { code = c }
	defaultLogFatal(errors.New("boom"))

	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

func TestDefaultGormOpen(t *testing.T) {
	prepareServerGlobals(t)
	newDialector = func(string, string) gorm.Dialector {
		return sqlite.Open("file:default-gorm?mode=memory&cache=shared")
	}

	db, err := defaultGormOpen("postgres", "ignored")
	if err != nil {
		t.Fatalf("defaultGormOpen returned error: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql DB: %v", err)
	}
	sqlDB.Close()
}
