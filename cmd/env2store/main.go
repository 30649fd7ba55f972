// env2store 把 .env 里的账户三元组导入加密密钥存储。
//
// Recognized variables: <NAME>_API_KEY, <NAME>_SECRET_KEY, <NAME>_PASSPHRASE.
// Incomplete triples are reported and skipped.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/betbot/gokx/pkg/secretstore"
)

func main() {
	var (
		inPath    = flag.String("in", ".env", "input .env file path")
		dbPath    = flag.String("db", getenv("SECRET_DB", "data/secrets.badger"), "badger secrets db path")
		secretKey = flag.String("secret-key", getenv("SECRET_DB_KEY", ""), "badger encryption key (32 bytes base64/hex)")
	)
	flag.Parse()

	keyBytes, err := secretstore.ParseKey(*secretKey)
	if err != nil {
		fatal(err)
	}
	if keyBytes == nil {
		fatal(fmt.Errorf("secret key is required: set SECRET_DB_KEY or pass -secret-key"))
	}

	kv, err := parseDotEnvFile(*inPath)
	if err != nil {
		fatal(err)
	}

	creds, skipped := collectCredentials(kv)
	for _, name := range skipped {
		fmt.Fprintf(os.Stderr, "跳过不完整的账户 %s\n", name)
	}
	if len(creds) == 0 {
		fatal(fmt.Errorf("no complete account triples found in %s", *inPath))
	}

	ss, err := secretstore.Open(secretstore.OpenOptions{
		Path:          *dbPath,
		EncryptionKey: keyBytes,
		ReadOnly:      false,
	})
	if err != nil {
		fatal(err)
	}
	defer ss.Close()

	for _, c := range creds {
		if err := ss.PutCredential(c); err != nil {
			fatal(err)
		}
	}

	fmt.Fprintf(os.Stderr, "已导入 %d 个账户到 %s\n", len(creds), *dbPath)
}

// collectCredentials groups <NAME>_API_KEY style variables into triples.
func collectCredentials(kv map[string]string) (creds []secretstore.Credential, skipped []string) {
	var prefixes []string
	for key := range kv {
		if strings.HasSuffix(key, "_API_KEY") {
			prefixes = append(prefixes, strings.TrimSuffix(key, "_API_KEY"))
		}
	}
	sort.Strings(prefixes)

	for _, prefix := range prefixes {
		c := secretstore.Credential{
			Name:       prefix,
			APIKey:     kv[prefix+"_API_KEY"],
			SecretKey:  kv[prefix+"_SECRET_KEY"],
			Passphrase: kv[prefix+"_PASSPHRASE"],
		}
		if !c.Complete() {
			skipped = append(skipped, prefix)
			continue
		}
		creds = append(creds, c)
	}
	return creds, skipped
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}

func parseDotEnvFile(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	for _, line := range strings.Split(string(b), "\n") {
		l := strings.TrimSpace(strings.TrimRight(line, "\r"))
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		if !strings.Contains(l, "=") {
			continue
		}
		parts := strings.SplitN(l, "=", 2)
		k := strings.TrimSpace(parts[0])
		v := strings.TrimSpace(parts[1])
		if k == "" {
			continue
		}
		// strip optional quotes
		if len(v) >= 2 && ((v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'')) {
			v = v[1 : len(v)-1]
		}
		out[k] = v
	}
	return out, nil
}
