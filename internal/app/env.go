package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// LoadEnvFiles reads dotenv files and exports their pairs. Among the files,
// later ones win. A variable the shell already set to a non-empty value is
// left alone, so `WORDTRACK_POLICY=fast wordtrack count ...` beats a .env
// entry. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	merged := map[string]string{}
	var order []string
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		pairs, err := readEnvFile(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		for _, kv := range pairs {
			if _, seen := merged[kv.key]; !seen {
				order = append(order, kv.key)
			}
			merged[kv.key] = kv.value
		}
	}
	for _, k := range order {
		if os.Getenv(k) != "" {
			log.Debug().Str("key", k).Msg("env file entry shadowed by environment")
			continue
		}
		if err := os.Setenv(k, merged[k]); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return nil
}

type envPair struct {
	key, value string
}

func readEnvFile(path string) ([]envPair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseDotenv(path, f)
}

// parseDotenv accepts KEY=VALUE lines with an optional `export ` prefix,
// single or double quoted values and `#` comments. Lines without a key are
// skipped with a warning naming file and line.
func parseDotenv(name string, r io.Reader) ([]envPair, error) {
	var out []envPair
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, val, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			log.Warn().Str("file", name).Int("line", n).Msg("ignoring malformed env line")
			continue
		}
		out = append(out, envPair{key: key, value: envValue(strings.TrimSpace(val))})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return out, nil
}

func envValue(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') {
		if end := strings.IndexByte(v[1:], v[0]); end >= 0 {
			return v[1 : end+1]
		}
	}
	if i := strings.Index(v, " #"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return v
}
