package sqlauth

import (
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MrEthical07/sqlauth/cookie"
	"github.com/MrEthical07/sqlauth/session"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db failed: %v", err)
	}
	// a single connection keeps the in-memory database alive and shared
	sqlDB.SetMaxOpenConns(1)

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

// clockResyncStep is the session resync interval used by testConfig.
const clockResyncStep = time.Second

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Password.Cost = bcrypt.MinCost
	cfg.Session.ResyncInterval = Duration(clockResyncStep)
	return cfg
}

// newTestDevice builds an engine representing one client device: its own
// session store and cookie jar against the shared database and clock.
func newTestDevice(t *testing.T, db *gorm.DB, clock *testClock) *Engine {
	t.Helper()

	e, err := New().
		WithConfig(testConfig()).
		WithDB(db).
		WithSessionStore(session.NewMemoryStore()).
		WithCookieJar(cookie.NewMemoryJar()).
		WithClientIP("192.0.2.1").
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("build engine failed: %v", err)
	}
	return e
}

func newTestEngine(t *testing.T) (*Engine, *gorm.DB, *testClock) {
	t.Helper()

	clock := newTestClock()
	db := newTestDB(t)
	return newTestDevice(t, db, clock), db, clock
}
