package lstore

import (
	"testing"

	"github.com/ValentinKolb/dCMD/lib/store"
	storetesting "github.com/ValentinKolb/dCMD/lib/store/testing"
)

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, "LocalStore", func() store.IStore {
		return NewLocalStore()
	})
}

func Benchmark(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "LocalStore", func() store.IStore {
		return NewLocalStore()
	})
}
