package cmd

import (
	"strings"

	"github.com/abhisek/sunny/internal/store"
)

// Profile key prefixes per tier.
const (
	remotePrefix = "user:"
	localPrefix  = "tutor:"
)

// stores is the opened storage stack of a command.
type stores struct {
	local  *store.Store
	remote *store.Store // nil without a remote DSN or when it is down
	kv     *store.Tiered
}

// openStores opens the profile tiers in priority order: Postgres when a
// remote DSN is configured, then local SQLite, then process memory. A
// remote that cannot be reached is skipped with a warning.
func openStores(e *env) (*stores, error) {
	local, err := openLocal(e)
	if err != nil {
		return nil, err
	}
	s := &stores{local: local}

	var tiers []store.Tier
	if dsn := e.cfg.Store.RemoteDSN; dsn != "" {
		remote, err := store.OpenPostgres(dsn)
		if err != nil {
			e.log.WithError(err).Warn("remote store unavailable, using local storage")
		} else {
			s.remote = remote
			tiers = append(tiers, store.Tier{Name: "remote", Prefix: remotePrefix, Store: remote.KV()})
		}
	}
	tiers = append(tiers,
		store.Tier{Name: "local", Prefix: localPrefix, Store: local.KV()},
		store.Tier{Name: "session", Prefix: localPrefix, Store: store.NewMemoryKV()},
	)
	s.kv = store.NewTiered(e.log, tiers...)
	e.log.WithField("tiers", strings.Join(s.kv.Names(), ",")).Debug("profile storage ready")
	return s, nil
}

func (s *stores) Close() error {
	if s.remote != nil {
		s.remote.Close()
	}
	return s.local.Close()
}
