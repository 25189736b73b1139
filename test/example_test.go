package test

import (
	"context"
	"fmt"
	"strings"

	goFlags "github.com/MrEthical07/goFlags"
	"github.com/MrEthical07/goFlags/decl"
	"github.com/MrEthical07/goFlags/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// Example_storeRoundTrip loads declarations from YAML, stores a grant, and
// reads it back.
func Example_storeRoundTrip() {
	decls, err := decl.Load(strings.NewReader(`
flags:
  - None
  - Read
  - Write
  - name: ReadWrite
    alias: [Read, Write]
`))
	if err != nil {
		panic(err)
	}
	reg := goFlags.MustBuild(decls...)

	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	st, err := store.NewStore(rdb, reg, store.DefaultConfig(), store.Options{})
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	if _, err := st.Grant(ctx, "alice", reg.MustOf("readwrite")); err != nil {
		panic(err)
	}
	got, err := st.Load(ctx, "alice")
	if err != nil {
		panic(err)
	}
	fmt.Println(got)
	fmt.Println(mr.HGet("gf:alice", "flags"))
	// Output:
	// Read, Write
	// Read, Write
}
