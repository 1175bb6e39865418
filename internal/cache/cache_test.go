package cache_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pubg-tournament/internal/cache"
	"pubg-tournament/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
)

var epoch = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func newStores(t *testing.T, clk *testutil.FakeClock) map[string]cache.Store {
	t.Helper()

	mr := miniredis.RunT(t)
	redisStore, err := cache.NewRedisStore(cache.RedisConfig{Addr: mr.Addr()}, clk, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { redisStore.Close() })

	return map[string]cache.Store{
		"file":   cache.NewFileStore(t.TempDir(), clk, zerolog.Nop()),
		"memory": cache.NewMemoryStore(clk),
		"redis":  redisStore,
	}
}

func TestStores_RoundTrip(t *testing.T) {
	payloads := [][]byte{
		[]byte(`{"data":{"type":"match","id":"4f1c"}}`),
		[]byte(`[1,2,3]`),
		[]byte(`"telemetry"`),
		[]byte(`{"nested":{"unicode":"ÄÖÜ","n":1.5e3}}`),
	}

	clk := testutil.NewFakeClock(epoch)
	for name, store := range newStores(t, clk) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i, p := range payloads {
				key := "match:steam:" + string(rune('a'+i))
				store.Set(ctx, key, p, time.Hour)

				got, ok := store.Get(ctx, key)
				if !ok {
					t.Fatalf("Get(%q) missed right after Set", key)
				}
				if !bytes.Equal(got, p) {
					t.Errorf("Get(%q) = %s, want %s", key, got, p)
				}
			}
		})
	}
}

func TestStores_PayloadWhitespace(t *testing.T) {
	payload := []byte("{\n  \"id\": \"4f1c\",\n  \"rosters\": [ 1, 2 ]\n}")
	var compact bytes.Buffer
	if err := json.Compact(&compact, payload); err != nil {
		t.Fatal(err)
	}

	clk := testutil.NewFakeClock(epoch)
	for name, store := range newStores(t, clk) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store.Set(ctx, "match:steam:ws", payload, time.Hour)

			got, ok := store.Get(ctx, "match:steam:ws")
			if !ok {
				t.Fatal("Get missed right after Set")
			}
			want := compact.Bytes()
			if name == "memory" {
				want = payload
			}
			if !bytes.Equal(got, want) {
				t.Errorf("Get = %q, want %q", got, want)
			}
		})
	}
}

func TestStores_Expiry(t *testing.T) {
	clk := testutil.NewFakeClock(epoch)
	for name, store := range newStores(t, clk) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := "player:" + name
			store.Set(ctx, key, []byte(`{"ok":true}`), time.Minute)

			clk.Advance(2 * time.Minute)

			if _, ok := store.Get(ctx, key); ok {
				t.Fatal("expected expired entry to be absent")
			}
			// A second read must still miss after lazy eviction.
			if _, ok := store.Get(ctx, key); ok {
				t.Fatal("expected entry to stay absent")
			}
		})
	}
}

func TestStores_OverwriteAndDelete(t *testing.T) {
	clk := testutil.NewFakeClock(epoch)
	for name, store := range newStores(t, clk) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store.Set(ctx, "k", []byte(`1`), time.Hour)
			store.Set(ctx, "k", []byte(`2`), time.Hour)

			got, ok := store.Get(ctx, "k")
			if !ok || string(got) != "2" {
				t.Fatalf("Get after overwrite = %s, %v; want 2, true", got, ok)
			}

			store.Delete(ctx, "k")
			if _, ok := store.Get(ctx, "k"); ok {
				t.Error("expected miss after Delete")
			}
			store.Delete(ctx, "k") // idempotent
		})
	}
}

func TestFileStore_ExpiredFileRemoved(t *testing.T) {
	dir := t.TempDir()
	clk := testutil.NewFakeClock(epoch)
	store := cache.NewFileStore(dir, clk, zerolog.Nop())
	ctx := context.Background()

	store.Set(ctx, "match/steam:abc", []byte(`{}`), time.Second)
	path := filepath.Join(dir, "match_steam_abc.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected cache file %s: %v", path, err)
	}

	clk.Advance(time.Minute)
	if _, ok := store.Get(ctx, "match/steam:abc"); ok {
		t.Fatal("expected miss for expired entry")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected expired cache file to be removed, stat err = %v", err)
	}
}

func TestFileStore_OnDiskLayout(t *testing.T) {
	dir := t.TempDir()
	clk := testutil.NewFakeClock(epoch)
	store := cache.NewFileStore(dir, clk, zerolog.Nop())

	store.Set(context.Background(), "k", []byte(`{"a":1}`), time.Hour)

	raw, err := os.ReadFile(filepath.Join(dir, "k.json"))
	if err != nil {
		t.Fatalf("read cache file: %v", err)
	}
	want := `{"data":{"a":1},"timestamp":1792238400000,"expires":1792242000000}`
	if string(raw) != want {
		t.Errorf("file content = %s, want %s", raw, want)
	}
}

func TestFileStore_CorruptFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	store := cache.NewFileStore(dir, testutil.NewFakeClock(epoch), zerolog.Nop())

	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Get(context.Background(), "broken"); ok {
		t.Error("expected corrupt entry to be a miss")
	}
}

func TestFileStore_UnwritableDirIsNoop(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "file-not-dir")
	if err := os.WriteFile(dir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := cache.NewFileStore(dir, testutil.NewFakeClock(epoch), zerolog.Nop())
	ctx := context.Background()

	store.Set(ctx, "k", []byte(`1`), time.Hour)
	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("expected miss when the cache directory is unusable")
	}
}

func TestFileStore_InvalidPayloadSkipped(t *testing.T) {
	store := cache.NewFileStore(t.TempDir(), testutil.NewFakeClock(epoch), zerolog.Nop())
	ctx := context.Background()

	store.Set(ctx, "k", []byte("not json"), time.Hour)
	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("expected invalid JSON payload not to be stored")
	}
}

func TestMemoryStore_ExpiredEntryEvicted(t *testing.T) {
	clk := testutil.NewFakeClock(epoch)
	store := cache.NewMemoryStore(clk)
	ctx := context.Background()

	store.Set(ctx, "k", []byte(`1`), time.Second)
	clk.Advance(time.Minute)
	store.Get(ctx, "k")

	if store.Len() != 0 {
		t.Errorf("Len() = %d after expired read, want 0", store.Len())
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := map[string]string{
		"match:steam:abc-123":      "match_steam_abc-123",
		"players?filter=Shroud_TV": "players_filter_Shroud_TV",
		"https://cdn/x/y.json":     "https___cdn_x_y_json",
		"already_safe-KEY09":       "already_safe-KEY09",
	}
	for in, want := range tests {
		if got := cache.SanitizeKey(in); got != want {
			t.Errorf("SanitizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}
