package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
)

func TestRedisCache_Get_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, time.Hour, "test:")

	mock.ExpectGet("test:translations_es_home").SetVal(`[{"k":"Welcome","v":"Bienvenido"}]`)

	val, ok := cache.Get(context.Background(), "translations_es_home")
	if !ok {
		t.Error("expected cache hit")
	}
	if val != `[{"k":"Welcome","v":"Bienvenido"}]` {
		t.Errorf("unexpected value %q", val)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRedisCache_Get_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, time.Hour, "test:")

	mock.ExpectGet("test:translations_fr_home").RedisNil()

	if val, ok := cache.Get(context.Background(), "translations_fr_home"); ok || val != "" {
		t.Errorf("expected miss, got %q (ok=%v)", val, ok)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRedisCache_Get_ErrorIsMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, time.Hour, "test:")

	mock.ExpectGet("test:translations_es_home").SetErr(errors.New("connection refused"))

	if _, ok := cache.Get(context.Background(), "translations_es_home"); ok {
		t.Error("an unreachable cache must behave as a miss")
	}
}

func TestRedisCache_Set_DefaultTTL(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, 12*time.Hour, "test:")

	mock.ExpectSet("test:translations_es_home", "[]", 12*time.Hour).SetVal("OK")

	if err := cache.Set(context.Background(), "translations_es_home", "[]", 0); err != nil {
		t.Errorf("Set failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRedisCache_Set_ExplicitTTL(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, 12*time.Hour, "test:")

	mock.ExpectSet("test:translations_es_home", "[]", time.Minute).SetVal("OK")

	if err := cache.Set(context.Background(), "translations_es_home", "[]", time.Minute); err != nil {
		t.Errorf("Set failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRedisCache_DefaultPrefix(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, 0, "")

	mock.ExpectGet("livelang:translations_es_home").SetVal("[]")

	if _, ok := cache.Get(context.Background(), "translations_es_home"); !ok {
		t.Error("expected hit under the default prefix")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRedisCache_Delete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, time.Hour, "test:")

	mock.ExpectDel("test:translations_es_home").SetVal(1)

	if err := cache.Delete(context.Background(), "translations_es_home"); err != nil {
		t.Errorf("Delete failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRedisCache_Clear(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, time.Hour, "test:")

	mock.ExpectScan(0, "test:*", 100).SetVal([]string{"test:translations_es_home", "test:translations_es_about"}, 7)
	mock.ExpectDel("test:translations_es_home", "test:translations_es_about").SetVal(2)
	mock.ExpectScan(7, "test:*", 100).SetVal([]string{"test:translations_fr_home"}, 0)
	mock.ExpectDel("test:translations_fr_home").SetVal(1)

	if err := cache.Clear(context.Background()); err != nil {
		t.Errorf("Clear failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRedisCache_Clear_ScanError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, time.Hour, "test:")

	mock.ExpectScan(0, "test:*", 100).SetErr(errors.New("LOADING"))

	if err := cache.Clear(context.Background()); err == nil {
		t.Error("expected scan error to surface")
	}
}

func TestRedisCache_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, time.Hour, "test:")

	mock.ExpectPing().SetVal("PONG")

	if err := cache.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
