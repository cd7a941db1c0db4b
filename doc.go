// Package hashstore is a sanitized, namespaced key/value and hash store with
// a user record model built on top.
//
// Open wires a config.Config into a storage driver (Redis or an embedded
// BadgerDB), an accessor.Accessor and a user.Model:
//
//	cfg := config.NewConfig(config.WithRedisURL("redis://localhost:6379/0"))
//	db, err := hashstore.Open(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	db.Accessor().SetHash(ctx, "prefs", "alice", fields)
//	u, ok := db.Users().Create(ctx, "alice", "secret", "alice@example.com")
package hashstore
