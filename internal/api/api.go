// Package api collects the custom routers of the service.
//
// A router registers itself from an init function in a package below internal/api.
// Its mount prefix is derived from that package's directory, so a router declared in
// internal/api/v1/user is served under /v1/user and replaces the generated CRUD
// routes of the user entity. Router packages are linked in with a blank import.
package api

import (
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/restcore/restcore/internal/files"
	"github.com/restcore/restcore/internal/web/handler"
)

// Dir is the directory below which router prefixes are derived.
const Dir = "api"

// ErrDuplicatePrefix is returned when two routers claim the same prefix.
var ErrDuplicatePrefix = errors.New("router prefix already registered")

// Router is a custom route set. Init runs once the models are loaded.
type Router = handler.Service

// Entry is a registered router.
type Entry struct {
	// Prefix is the mount path, e.g. /v1/user.
	Prefix string
	// Entity is the last prefix segment, e.g. user.
	Entity string
	// File is the source file the router was registered from, if known.
	File   string
	Router Router
}

var (
	mu      sync.Mutex
	entries []Entry
)

// Register adds r under the prefix derived from the calling file:
// internal/api/v1/user/user.go -> /v1/user.
func Register(r Router) {
	_, file, _, ok := runtime.Caller(1)
	if !ok {
		log.Error().Msg("can't resolve router file, router not registered")

		return
	}

	prefix := files.GeneratePrefix(file, Dir)
	if prefix == "" || prefix == "/" {
		log.Error().Str("file", file).Msg("router file is not below the api directory, router not registered")

		return
	}

	add(Entry{Prefix: prefix, Entity: EntityName(prefix), File: files.StandardizePath(file), Router: r})
}

// RegisterPrefix adds r under an explicit prefix.
func RegisterPrefix(prefix string, r Router) {
	prefix = "/" + strings.Trim(prefix, "/")
	add(Entry{Prefix: prefix, Entity: EntityName(prefix), Router: r})
}

func add(e Entry) {
	mu.Lock()
	defer mu.Unlock()

	entries = append(entries, e)
}

// EntityName returns the entity a prefix serves: /v1/user -> user.
func EntityName(prefix string) string {
	return files.Filename(strings.TrimRight(prefix, "/"))
}

// Entries returns the registered routers sorted by prefix.
func Entries() []Entry {
	mu.Lock()
	defer mu.Unlock()

	out := append([]Entry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })

	return out
}

// Entities returns the set of entities served by custom routers.
func Entities() map[string]struct{} {
	out := map[string]struct{}{}
	for _, e := range Entries() {
		out[e.Entity] = struct{}{}
	}

	return out
}

// Mount initialises every registered router and mounts it on app.
func Mount(app fiber.Router, opts handler.Options) ([]Entry, error) {
	list := Entries()
	seen := make(map[string]struct{}, len(list))

	for _, e := range list {
		if _, ok := seen[e.Prefix]; ok {
			return nil, errors.Wrap(ErrDuplicatePrefix, e.Prefix)
		}

		seen[e.Prefix] = struct{}{}

		if err := e.Router.Init(opts); err != nil {
			return nil, errors.Wrapf(err, "failed to init router %s", e.Prefix)
		}

		e.Router.Register(app.Group(e.Prefix))

		log.Info().Str("prefix", e.Prefix).Str("entity", e.Entity).Msg("custom router mounted")
	}

	return list, nil
}

// Reset removes all registered routers.
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	entries = nil
}
