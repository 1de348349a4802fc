package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, "catalog:"), mr
}

func TestStore_PrefixedKeys(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	if err := s.Set(ctx, "jwtToken", "t1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	raw, err := mr.Get("catalog:jwtToken")
	if err != nil || raw != "t1" {
		t.Fatalf("expected prefixed key in redis, got %q err=%v", raw, err)
	}
	if mr.TTL("catalog:jwtToken") != 0 {
		t.Fatalf("credential keys must not expire")
	}

	v, ok, err := s.Get(ctx, "jwtToken")
	if err != nil || !ok || v != "t1" {
		t.Fatalf("Get: %q ok=%v err=%v", v, ok, err)
	}
}

func TestStore_MissingAndDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if _, ok, err := s.Get(ctx, "userRole"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}

	_ = s.Set(ctx, "jwtToken", "t1")
	_ = s.Set(ctx, "userRole", "Admin")
	if err := s.Delete(ctx, "jwtToken", "userRole", "absent"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "jwtToken"); ok {
		t.Fatal("expected jwtToken removed")
	}
}

func TestConnect_FailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := Connect(context.Background(), Config{Addr: addr}); err == nil {
		t.Fatal("expected ping failure")
	}
}
