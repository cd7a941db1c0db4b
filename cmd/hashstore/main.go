// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/hashstore"
	"github.com/poiesic/hashstore/config"
	"github.com/poiesic/hashstore/core"
	"github.com/poiesic/hashstore/user"
)

var (
	errNotFound = errors.New("not found")
	errFailed   = errors.New("operation failed")
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "hashstore",
		Usage:     "Sanitized, namespaced key/value and hash storage",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     globalFlags(),
		Before:    setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Store a scalar value",
				ArgsUsage: "<namespace> <key> <value>",
				Action:    setCommand,
			},
			{
				Name:      "get",
				Usage:     "Read a scalar value",
				ArgsUsage: "<namespace> <key>",
				Action:    getCommand,
			},
			{
				Name:      "hset",
				Usage:     "Store a hash; values that parse as JSON are stored structured",
				ArgsUsage: "<namespace> <key> <field=value>...",
				Action:    hsetCommand,
			},
			{
				Name:      "hget",
				Usage:     "Read one hash field",
				ArgsUsage: "<namespace> <key> <field>",
				Action:    hgetCommand,
			},
			{
				Name:      "hgetall",
				Usage:     "Read a whole hash",
				ArgsUsage: "<namespace> <key>",
				Action:    hgetallCommand,
			},
			{
				Name:      "hmget",
				Usage:     "Read several hash fields",
				ArgsUsage: "<namespace> <key> <field>...",
				Action:    hmgetCommand,
			},
			{
				Name:      "del",
				Usage:     "Delete a key",
				ArgsUsage: "<namespace> <key>",
				Action:    delCommand,
			},
			{
				Name:  "user",
				Usage: "Manage user accounts",
				Subcommands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "Create a user account",
						Action: userCreateCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
							&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, EnvVars: []string{"HASHSTORE_PASSWORD"}},
							&cli.StringFlag{Name: "email", Aliases: []string{"e"}},
						},
					},
					{
						Name:      "lookup",
						Usage:     "Show a user record",
						ArgsUsage: "<username>",
						Action:    userLookupCommand,
					},
					{
						Name:      "delete",
						Usage:     "Delete a user account",
						ArgsUsage: "<username>",
						Action:    userDeleteCommand,
					},
					{
						Name:   "verify",
						Usage:  "Check a password",
						Action: userVerifyCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
							&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, EnvVars: []string{"HASHSTORE_PASSWORD"}},
						},
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "Create many test users concurrently",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "count",
						Usage: "Number of users to create",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent workers (0 = half the CPUs)",
					},
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Username prefix",
						Value: "seed",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N users",
						Value: 100,
					},
				},
			},
		},
	}
}

func globalFlags() []cli.Flag {
	defaults := config.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   "Set logging level (debug, info, warn, error)",
			Value:   "info",
		},
		&cli.StringFlag{
			Name:    "backend",
			Aliases: []string{"b"},
			Usage:   "Storage backend (redis, badger)",
			Value:   defaults.Backend,
			EnvVars: []string{"HASHSTORE_BACKEND"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis connection URL",
			Value:   defaults.RedisURL,
			EnvVars: []string{"HASHSTORE_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "badger-path",
			Usage:   "Path to BadgerDB database directory",
			Value:   defaults.BadgerPath,
			EnvVars: []string{"HASHSTORE_BADGER_PATH"},
		},
		&cli.StringFlag{
			Name:    "denylist",
			Usage:   "Characters stripped from input: default, extended or a literal set",
			Value:   defaults.Denylist,
			EnvVars: []string{"HASHSTORE_DENYLIST"},
		},
	}
}

// openDatabase builds the configuration from the environment and the global
// flags and opens the database.
func openDatabase(c *cli.Context) (*hashstore.Database, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	cfg.Backend = c.String("backend")
	cfg.RedisURL = c.String("redis-url")
	cfg.BadgerPath = c.String("badger-path")
	cfg.Denylist = c.String("denylist")

	return hashstore.Open(c.Context, cfg)
}

// withDatabase opens the database, runs fn and closes the database again.
func withDatabase(c *cli.Context, fn func(ctx context.Context, db *hashstore.Database) error) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(c.Context, db)
}

func requireArgs(c *cli.Context, n int) error {
	if c.NArg() < n {
		return fmt.Errorf("expected at least %d arguments, got %d (usage: %s %s)",
			n, c.NArg(), c.Command.Name, c.Command.ArgsUsage)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

type status struct {
	OK bool `json:"ok"`
}

func setCommand(c *cli.Context) error {
	if err := requireArgs(c, 3); err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *hashstore.Database) error {
		if !db.Accessor().SetScalar(ctx, c.Args().Get(0), c.Args().Get(1), c.Args().Get(2)) {
			return errFailed
		}
		return writeJSON(c.App.Writer, status{OK: true})
	})
}

func getCommand(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *hashstore.Database) error {
		value, ok := db.Accessor().GetScalar(ctx, c.Args().Get(0), c.Args().Get(1))
		if !ok {
			return errNotFound
		}
		return writeJSON(c.App.Writer, value)
	})
}

// parseFields turns field=value arguments into hash fields. A value that is
// valid JSON is stored with its structure; anything else is a string.
func parseFields(args []string) (map[string]core.Value, error) {
	fields := make(map[string]core.Value, len(args))
	for _, arg := range args {
		name, raw, found := strings.Cut(arg, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid field %q: expected field=value", arg)
		}
		var v core.Value
		if err := v.UnmarshalJSON([]byte(raw)); err != nil {
			v = core.String(raw)
		}
		fields[name] = v
	}
	return fields, nil
}

func hsetCommand(c *cli.Context) error {
	if err := requireArgs(c, 3); err != nil {
		return err
	}
	fields, err := parseFields(c.Args().Slice()[2:])
	if err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *hashstore.Database) error {
		if !db.Accessor().SetHash(ctx, c.Args().Get(0), c.Args().Get(1), fields) {
			return errFailed
		}
		return writeJSON(c.App.Writer, status{OK: true})
	})
}

func hgetCommand(c *cli.Context) error {
	if err := requireArgs(c, 3); err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *hashstore.Database) error {
		value, ok := db.Accessor().GetHashField(ctx, c.Args().Get(0), c.Args().Get(1), c.Args().Get(2))
		if !ok {
			return errNotFound
		}
		return writeJSON(c.App.Writer, value)
	})
}

func hgetallCommand(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *hashstore.Database) error {
		fields, ok := db.Accessor().GetHash(ctx, c.Args().Get(0), c.Args().Get(1))
		if !ok {
			return errNotFound
		}
		return writeJSON(c.App.Writer, core.Map(fields))
	})
}

func hmgetCommand(c *cli.Context) error {
	if err := requireArgs(c, 3); err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *hashstore.Database) error {
		values, ok := db.Accessor().GetHashFields(ctx, c.Args().Get(0), c.Args().Get(1), c.Args().Slice()[2:])
		if !ok {
			return errNotFound
		}
		return writeJSON(c.App.Writer, core.List(values...))
	})
}

func delCommand(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *hashstore.Database) error {
		if !db.Accessor().DeleteKey(ctx, c.Args().Get(0), c.Args().Get(1)) {
			return errNotFound
		}
		return writeJSON(c.App.Writer, status{OK: true})
	})
}

type userView struct {
	Key        string                `json:"key"`
	ID         string                `json:"id"`
	Username   string                `json:"username"`
	Email      string                `json:"email,omitempty"`
	Attributes map[string]core.Value `json:"attributes,omitempty"`
}

func viewOf(u *core.User) userView {
	return userView{Key: u.Key, ID: u.ID, Username: u.Username, Email: u.Email, Attributes: u.Attributes}
}

func userCreateCommand(c *cli.Context) error {
	return withDatabase(c, func(ctx context.Context, db *hashstore.Database) error {
		u, ok := db.Users().Create(ctx, c.String("username"), c.String("password"), c.String("email"))
		if !ok {
			return errFailed
		}
		return writeJSON(c.App.Writer, viewOf(u))
	})
}

func userLookupCommand(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *hashstore.Database) error {
		u, ok := db.Users().LookupByIdentity(ctx, c.Args().First())
		if !ok {
			return errNotFound
		}
		return writeJSON(c.App.Writer, viewOf(u))
	})
}

func userDeleteCommand(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *hashstore.Database) error {
		if !db.Users().DeleteByIdentity(ctx, c.Args().First()) {
			return errNotFound
		}
		return writeJSON(c.App.Writer, status{OK: true})
	})
}

func userVerifyCommand(c *cli.Context) error {
	return withDatabase(c, func(ctx context.Context, db *hashstore.Database) error {
		ok := db.Users().VerifyPassword(ctx, c.String("username"), c.String("password"))
		if err := writeJSON(c.App.Writer, status{OK: ok}); err != nil {
			return err
		}
		if !ok {
			return errFailed
		}
		return nil
	})
}

type seedSummary struct {
	Created int    `json:"created"`
	Failed  int    `json:"failed"`
	Elapsed string `json:"elapsed"`
}

func seedCommand(c *cli.Context) error {
	count := c.Int("count")
	if count < 1 {
		return fmt.Errorf("count must be positive")
	}
	prefix := c.String("prefix")

	creds := make([]user.Credentials, count)
	for i := range creds {
		name := fmt.Sprintf("%s%05d", prefix, i)
		creds[i] = user.Credentials{
			Username: name,
			Password: "password-" + name,
			Email:    name + "@example.com",
		}
	}

	return withDatabase(c, func(ctx context.Context, db *hashstore.Database) error {
		slog.Info("seeding users", "count", count, "workers", c.Int("workers"))
		result, err := db.Users().CreateMany(ctx, creds, &user.BulkOptions{
			Workers:        c.Int("workers"),
			Progress:       c.App.ErrWriter,
			ReportInterval: c.Int("report-interval"),
		})
		if err != nil {
			return err
		}
		return writeJSON(c.App.Writer, seedSummary{
			Created: result.Created,
			Failed:  result.Failed,
			Elapsed: result.Elapsed.String(),
		})
	})
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
