package storage

import (
	"bytes"
	"errors"
	"testing"
)

// testDBs returns every DB implementation under test, keyed by name.
func testDBs(t *testing.T) map[string]DB {
	t.Helper()

	badgerDB, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	t.Cleanup(func() { badgerDB.Close() })

	return map[string]DB{
		"memory": NewMemory(),
		"badger": badgerDB,
	}
}

func TestDB_PutGetDelete(t *testing.T) {
	for name, db := range testDBs(t) {
		t.Run(name, func(t *testing.T) {
			key := []byte("key1")
			value := []byte("value1")

			if _, err := db.Get(key); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get missing key: err = %v, want ErrNotFound", err)
			}

			if err := db.Put(key, value); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, err := db.Get(key)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !bytes.Equal(got, value) {
				t.Errorf("Get = %q, want %q", got, value)
			}

			has, err := db.Has(key)
			if err != nil {
				t.Fatalf("Has: %v", err)
			}
			if !has {
				t.Error("Has = false after Put")
			}

			if err := db.Delete(key); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := db.Get(key); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after Delete: err = %v, want ErrNotFound", err)
			}
			has, err = db.Has(key)
			if err != nil {
				t.Fatalf("Has: %v", err)
			}
			if has {
				t.Error("Has = true after Delete")
			}
		})
	}
}

func TestDB_Overwrite(t *testing.T) {
	for name, db := range testDBs(t) {
		t.Run(name, func(t *testing.T) {
			key := []byte("k")
			if err := db.Put(key, []byte("old")); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := db.Put(key, []byte("new")); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, err := db.Get(key)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != "new" {
				t.Errorf("Get = %q, want %q", got, "new")
			}
		})
	}
}

func TestDB_ForEachPrefix(t *testing.T) {
	for name, db := range testDBs(t) {
		t.Run(name, func(t *testing.T) {
			entries := map[string]string{
				"a/1": "one",
				"a/2": "two",
				"b/1": "other",
			}
			for k, v := range entries {
				if err := db.Put([]byte(k), []byte(v)); err != nil {
					t.Fatalf("Put: %v", err)
				}
			}

			seen := make(map[string]string)
			err := db.ForEach([]byte("a/"), func(key, value []byte) error {
				seen[string(key)] = string(value)
				return nil
			})
			if err != nil {
				t.Fatalf("ForEach: %v", err)
			}
			if len(seen) != 2 || seen["a/1"] != "one" || seen["a/2"] != "two" {
				t.Errorf("ForEach saw %v, want a/1 and a/2", seen)
			}

			// Callback errors stop iteration and propagate.
			stop := errors.New("stop")
			err = db.ForEach([]byte("a/"), func(key, value []byte) error {
				return stop
			})
			if !errors.Is(err, stop) {
				t.Errorf("ForEach error = %v, want %v", err, stop)
			}
		})
	}
}

func TestDB_Batch(t *testing.T) {
	for name, db := range testDBs(t) {
		t.Run(name, func(t *testing.T) {
			if err := db.Put([]byte("stale"), []byte("x")); err != nil {
				t.Fatalf("Put: %v", err)
			}

			batch := NewBatch(db)
			if err := batch.Put([]byte("k1"), []byte("v1")); err != nil {
				t.Fatalf("batch Put: %v", err)
			}
			if err := batch.Put([]byte("k2"), []byte("v2")); err != nil {
				t.Fatalf("batch Put: %v", err)
			}
			if err := batch.Delete([]byte("stale")); err != nil {
				t.Fatalf("batch Delete: %v", err)
			}

			// Nothing lands before Commit.
			if _, err := db.Get([]byte("k1")); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get before commit: err = %v, want ErrNotFound", err)
			}

			if err := batch.Commit(); err != nil {
				t.Fatalf("Commit: %v", err)
			}

			for k, want := range map[string]string{"k1": "v1", "k2": "v2"} {
				got, err := db.Get([]byte(k))
				if err != nil {
					t.Fatalf("Get %s: %v", k, err)
				}
				if string(got) != want {
					t.Errorf("Get %s = %q, want %q", k, got, want)
				}
			}
			if _, err := db.Get([]byte("stale")); !errors.Is(err, ErrNotFound) {
				t.Errorf("deleted key still present: err = %v", err)
			}
		})
	}
}

func TestPrefixDB_Isolation(t *testing.T) {
	inner := NewMemory()
	left := NewPrefixDB(inner, []byte("left/"))
	right := NewPrefixDB(inner, []byte("right/"))

	if err := left.Put([]byte("k"), []byte("lv")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := right.Put([]byte("k"), []byte("rv")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := left.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "lv" {
		t.Errorf("left Get = %q, want %q", got, "lv")
	}

	// Deleting in one namespace leaves the other intact.
	if err := left.Delete([]byte("k")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := left.Get([]byte("k")); !errors.Is(err, ErrNotFound) {
		t.Errorf("left Get after delete: err = %v, want ErrNotFound", err)
	}
	if _, err := right.Get([]byte("k")); err != nil {
		t.Errorf("right Get: %v", err)
	}
}

func TestPrefixDB_ForEachStripsPrefix(t *testing.T) {
	inner := NewMemory()
	pdb := NewPrefixDB(inner, []byte("ns/"))

	if err := pdb.Put([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := pdb.Put([]byte("b"), []byte("2")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := inner.Put([]byte("other/a"), []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	seen := make(map[string]string)
	err := pdb.ForEach(nil, func(key, value []byte) error {
		seen[string(key)] = string(value)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	if len(seen) != 2 || seen["a"] != "1" || seen["b"] != "2" {
		t.Errorf("ForEach saw %v, want stripped keys a and b", seen)
	}
}

func TestPrefixDB_Batch(t *testing.T) {
	inner := NewMemory()
	pdb := NewPrefixDB(inner, []byte("ns/"))

	batch := pdb.NewBatch()
	if err := batch.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("batch Put: %v", err)
	}
	if err := batch.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := inner.Get([]byte("ns/k"))
	if err != nil {
		t.Fatalf("inner Get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("inner Get = %q, want %q", got, "v")
	}
}
