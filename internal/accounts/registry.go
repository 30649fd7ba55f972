// Package accounts discovers credential sets and owns one gateway client
// per account.
package accounts

import (
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/betbot/gokx/okx/client"
	"github.com/betbot/gokx/pkg/secretstore"
)

var regLog = logrus.WithField("component", "accounts")

// Registry maps account names to their gateway clients. Credentials are
// loaded once at construction and never mutated.
type Registry struct {
	clients map[string]*client.Client
	names   []string // configuration discovery order
}

// LoadOptions 账户加载配置。三个来源按序合并：加密存储、YAML 文件、环境变量；
// 同名账户先到先得。
type LoadOptions struct {
	ClientOptions client.Options
	AccountsFile  string             // optional YAML file
	SecretStore   *secretstore.Store // optional encrypted store
}

type yamlAccount struct {
	Name       string `yaml:"name"`
	APIKey     string `yaml:"api_key"`
	SecretKey  string `yaml:"secret_key"`
	Passphrase string `yaml:"passphrase"`
}

// Load builds the registry. An account missing any of the three secrets is
// skipped silently: partial configuration is best-effort, not an error.
func Load(opts LoadOptions) (*Registry, error) {
	r := &Registry{clients: make(map[string]*client.Client)}

	if opts.SecretStore != nil {
		creds, err := opts.SecretStore.ListCredentials()
		if err != nil {
			return nil, err
		}
		for _, c := range creds {
			if !c.Complete() {
				continue
			}
			r.add(client.Credential{
				Name:       c.Name,
				APIKey:     c.APIKey,
				SecretKey:  c.SecretKey,
				Passphrase: c.Passphrase,
			}, opts.ClientOptions)
		}
	}

	if opts.AccountsFile != "" {
		creds, err := loadAccountsFile(opts.AccountsFile)
		if err != nil {
			return nil, err
		}
		for _, c := range creds {
			r.add(c, opts.ClientOptions)
		}
	}

	for _, c := range credentialsFromEnv(os.Environ()) {
		r.add(c, opts.ClientOptions)
	}

	regLog.Infof("loaded %d account(s): %s", len(r.names), strings.Join(r.names, ", "))
	return r, nil
}

func (r *Registry) add(cred client.Credential, opts client.Options) {
	if !cred.Complete() || cred.Name == "" {
		return
	}
	if _, exists := r.clients[cred.Name]; exists {
		return
	}
	r.clients[cred.Name] = client.New(cred, opts)
	r.names = append(r.names, cred.Name)
}

// Lookup returns the account's client, or nil if the name is unknown.
func (r *Registry) Lookup(name string) *client.Client {
	return r.clients[name]
}

// ListNames returns all account names in discovery order.
func (r *Registry) ListNames() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func loadAccountsFile(path string) ([]client.Credential, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Accounts []yamlAccount `yaml:"accounts"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	out := make([]client.Credential, 0, len(doc.Accounts))
	for _, a := range doc.Accounts {
		out = append(out, client.Credential{
			Name:       a.Name,
			APIKey:     a.APIKey,
			SecretKey:  a.SecretKey,
			Passphrase: a.Passphrase,
		})
	}
	return out, nil
}

// credentialsFromEnv scans for <NAME>_API_KEY / <NAME>_SECRET_KEY /
// <NAME>_PASSPHRASE triples. Env iteration order is not stable across
// processes, so discovered names are sorted to keep ListNames deterministic.
func credentialsFromEnv(environ []string) []client.Credential {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			vars[parts[0]] = parts[1]
		}
	}

	var prefixes []string
	for key := range vars {
		if strings.HasSuffix(key, "_API_KEY") {
			prefixes = append(prefixes, strings.TrimSuffix(key, "_API_KEY"))
		}
	}
	sort.Strings(prefixes)

	var out []client.Credential
	for _, prefix := range prefixes {
		cred := client.Credential{
			Name:       prefix,
			APIKey:     vars[prefix+"_API_KEY"],
			SecretKey:  vars[prefix+"_SECRET_KEY"],
			Passphrase: vars[prefix+"_PASSPHRASE"],
		}
		if cred.Complete() {
			out = append(out, cred)
		}
	}
	return out
}
