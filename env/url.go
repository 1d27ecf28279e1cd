// Copyright (c) 2026 Settle Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package env

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// URL is the structured connection record decoded from a URL
// pseudo-typed environment value of the form
//
//	scheme://[user[:password]@]host[:port]/name[?params]
//
// Engine is the backend identifier mapped from the scheme and Name is
// the database/index/path component. The remaining fields are set only
// when present in the value.
type URL struct {
	Engine   string
	Name     string
	Host     string
	Port     int
	User     string
	Password string
	Options  map[string]string
}

// Scheme tables per pseudo-type. An unrecognized scheme is a decode
// error, not a definition error: it depends on the runtime value.
var (
	databaseEngines = map[string]string{
		"sqlite":     "sqlite",
		"sqlite3":    "sqlite",
		"postgres":   "postgres",
		"postgresql": "postgres",
		"psql":       "postgres",
		"pgsql":      "postgres",
		"mysql":      "mysql",
		"mysql2":     "mysql",
		"oracle":     "oracle",
	}

	cacheEngines = map[string]string{
		"redis":      "redis",
		"rediss":     "redis",
		"memcache":   "memcache",
		"pymemcache": "memcache",
		"locmem":     "locmem",
		"dummy":      "dummy",
	}

	searchEngines = map[string]string{
		"elasticsearch":  "elasticsearch",
		"elasticsearch7": "elasticsearch",
		"solr":           "solr",
		"whoosh":         "whoosh",
	}

	mailEngines = map[string]string{
		"smtp":     "smtp",
		"smtp+tls": "smtp+tls",
		"smtp+ssl": "smtp+ssl",
		"console":  "console",
		"file":     "file",
		"memory":   "memory",
		"dummy":    "dummy",
	}
)

func urlEngines(t Type) (map[string]string, bool) {
	switch t {
	case DatabaseURL:
		return databaseEngines, true
	case CacheURL:
		return cacheEngines, true
	case SearchURL:
		return searchEngines, true
	case MailURL:
		return mailEngines, true
	}
	return nil, false
}

// ParseURL decodes raw per one of the four URL pseudo-types.
func ParseURL(raw string, t Type) (URL, error) {
	engines, ok := urlEngines(t)
	if !ok {
		return URL{}, InvalidTypeError{Type: t}
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return URL{}, fmt.Errorf("missing scheme separator in %q", raw)
	}
	engine, ok := engines[strings.ToLower(scheme)]
	if !ok {
		return URL{}, fmt.Errorf("unrecognized %s scheme: %q", t, scheme)
	}

	// In-memory sqlite has no authority component to parse.
	if engine == "sqlite" && (rest == "" || rest == ":memory:") {
		return URL{Engine: engine, Name: ":memory:"}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return URL{}, err
	}

	rec := URL{
		Engine: engine,
		Host:   u.Hostname(),
		Name:   strings.TrimPrefix(u.Path, "/"),
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return URL{}, fmt.Errorf("invalid port %q", p)
		}
		rec.Port = port
	}
	if u.User != nil {
		rec.User = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			rec.Password = pw
		}
	}
	if q := u.Query(); len(q) > 0 {
		rec.Options = make(map[string]string, len(q))
		for k := range q {
			rec.Options[k] = q.Get(k)
		}
	}
	return rec, nil
}

// Addr returns host:port, or just the host when no port is set.
func (u URL) Addr() string {
	if u.Port == 0 {
		return u.Host
	}
	return u.Host + ":" + strconv.Itoa(u.Port)
}
