package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// DefaultContractAddress is the deployed BuyMeACoffee contract
const DefaultContractAddress = "0x55D1CB16c8301012783af7C0565C3C881c3C7F1c"

// Wallet provider kinds
const (
	WalletKeystore = "keystore"
	WalletRPC      = "rpc"
)

// Config represents the application configuration
type Config struct {
	RPCURLs  []RPCUrl `json:"rpc_urls"`
	Contract string   `json:"contract"`
	Wallet   Wallet   `json:"wallet"`
	Logger   bool     `json:"logger"`
}

// RPCUrl represents an RPC endpoint
type RPCUrl struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

// Wallet selects the wallet provider.
// Kind "keystore" reads a go-ethereum keystore directory, kind "rpc" talks to
// an external JSON-RPC wallet (Frame, a dev node with unlocked accounts, ...).
type Wallet struct {
	Kind     string `json:"kind"`
	Keystore string `json:"keystore,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Load reads the config from the specified path
func Load(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}

	return cfg
}

// Save writes the config to the specified path
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultPath returns the config location in the user's home directory
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".coffee-wallet-config.json")
}

// DefaultKeystoreDir returns the keystore location used when none is configured
func DefaultKeystoreDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".coffee-wallet", "keystore")
}

// DefaultConfig returns a new configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		RPCURLs: []RPCUrl{
			{
				Name:   "Sepolia (publicnode)",
				URL:    "wss://ethereum-sepolia-rpc.publicnode.com",
				Active: true,
			},
		},
		Contract: DefaultContractAddress,
		Wallet: Wallet{
			Kind:     WalletKeystore,
			Keystore: DefaultKeystoreDir(),
		},
		Logger: false,
	}
}

// LoadOrCreate loads config from path, or creates a default one if not found
func LoadOrCreate(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		cfg := DefaultConfig()
		_ = Save(path, cfg)
		return cfg
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig()
	}

	cfg.fillDefaults()
	return cfg
}

func (c *Config) fillDefaults() {
	if strings.TrimSpace(c.Contract) == "" {
		c.Contract = DefaultContractAddress
	}
	if c.Wallet.Kind == "" {
		c.Wallet.Kind = WalletKeystore
	}
	if c.Wallet.Kind == WalletKeystore && c.Wallet.Keystore == "" {
		c.Wallet.Keystore = DefaultKeystoreDir()
	}
}

// ActiveRPC returns the URL of the active endpoint, falling back to the first one
func (c Config) ActiveRPC() string {
	for _, r := range c.RPCURLs {
		if r.Active {
			return r.URL
		}
	}
	if len(c.RPCURLs) > 0 {
		return c.RPCURLs[0].URL
	}
	return ""
}

// UseRPC makes url the active endpoint, adding it when it is not listed yet
func (c *Config) UseRPC(name, url string) {
	url = strings.TrimSpace(url)
	if url == "" {
		return
	}
	found := false
	for i := range c.RPCURLs {
		c.RPCURLs[i].Active = c.RPCURLs[i].URL == url
		if c.RPCURLs[i].Active {
			found = true
		}
	}
	if !found {
		if name == "" {
			name = "Custom"
		}
		c.RPCURLs = append(c.RPCURLs, RPCUrl{Name: name, URL: url, Active: true})
	}
}
