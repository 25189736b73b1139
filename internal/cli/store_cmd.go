package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	goFlags "github.com/MrEthical07/goFlags"
	"github.com/MrEthical07/goFlags/store"
)

var errNoRedis = errors.New("redis address not configured (set --redis-addr or FLAGCTL_REDIS_ADDR)")

// openStore connects to the configured Redis and returns the store with a
// cleanup func.
func (c *CLI) openStore(ctx context.Context) (*store.Store, func(), error) {
	if c.cfg.Redis.Addr == "" {
		return nil, nil, errNoRedis
	}
	reg, err := c.registry()
	if err != nil {
		return nil, nil, err
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{c.cfg.Redis.Addr},
	})
	st, err := c.newStore(client, reg)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	if _, err := st.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	c.logger.Debug("connected", zap.String("addr", c.cfg.Redis.Addr))
	return st, func() { _ = client.Close() }, nil
}

func (c *CLI) newStore(client redis.UniversalClient, reg *goFlags.Registry) (*store.Store, error) {
	scfg := store.DefaultConfig()
	scfg.Prefix = c.cfg.Redis.Prefix
	scfg.TTL = c.cfg.Redis.TTL
	return store.NewStore(client, reg, scfg, store.Options{Logger: c.logger.Named("store")})
}

// withStore runs fn against an open store.
func (c *CLI) withStore(cmd *cobra.Command, fn func(ctx context.Context, st *store.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, closeFn, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, st)
}

func (c *CLI) newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Read and write flag sets in Redis",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get ID",
		Short: "Print the flag set stored under ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, st *store.Store) error {
				v, err := st.Load(ctx, args[0])
				if err != nil {
					return err
				}
				return c.printSet(cmd.OutOrStdout(), v)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "put ID FLAGS",
		Short: "Replace the flag set stored under ID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, st *store.Store) error {
				v, err := st.Registry().TryParse(args[1])
				if err != nil {
					return err
				}
				if err := st.Save(ctx, args[0], v); err != nil {
					return err
				}
				return c.printSet(cmd.OutOrStdout(), v)
			})
		},
	})

	cmd.AddCommand(c.newStoreUpdateCmd("grant", "Add FLAGS to the set stored under ID", (*store.Store).Grant))
	cmd.AddCommand(c.newStoreUpdateCmd("revoke", "Remove FLAGS from the set stored under ID", (*store.Store).Revoke))

	cmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Delete the flag set stored under ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, st *store.Store) error {
				return st.Delete(ctx, args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored ids with their flag sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, st *store.Store) error {
				ids, err := st.IDs(ctx)
				if err != nil {
					return err
				}
				sort.Strings(ids)

				entries := make(map[string]string, len(ids))
				out := cmd.OutOrStdout()
				for _, id := range ids {
					v, err := st.Load(ctx, id)
					text := v.String()
					if err != nil {
						text = "error: " + err.Error()
					}
					entries[id] = text
					if !c.jsonOutput {
						fmt.Fprintf(out, "%s\t%s\n", id, text)
					}
				}
				if c.jsonOutput {
					return c.printJSON(out, entries)
				}
				return nil
			})
		},
	})

	return cmd
}

type storeUpdate func(*store.Store, context.Context, string, goFlags.Set) (goFlags.Set, error)

func (c *CLI) newStoreUpdateCmd(name, short string, apply storeUpdate) *cobra.Command {
	return &cobra.Command{
		Use:   name + " ID FLAGS",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, st *store.Store) error {
				v, err := st.Registry().TryParse(args[1])
				if err != nil {
					return err
				}
				out, err := apply(st, ctx, args[0], v)
				if err != nil {
					return err
				}
				return c.printSet(cmd.OutOrStdout(), out)
			})
		},
	}
}
