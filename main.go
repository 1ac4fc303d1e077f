package main

import (
	"fmt"
	"os"

	"coffee-wallet-tui/config"
	"coffee-wallet-tui/helpers"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// -------------------- MAIN --------------------

var (
	configFlag    string
	rpcFlag       string
	contractFlag  string
	keystoreFlag  string
	walletURLFlag string
)

var rootCmd = &cobra.Command{
	Use:   "coffee",
	Short: "Buy me a coffee on Ethereum, from the terminal",
	Long: `coffee is a terminal front end for the BuyMeACoffee contract.

Connect a wallet, leave a name and a message, and send 0.001 ETH.
Memos from every supporter are listed and new ones appear live.

Examples:
  coffee                                        # Start the TUI
  coffee --rpc wss://ethereum-sepolia-rpc.publicnode.com
  coffee --wallet-url http://127.0.0.1:1248     # Use Frame as the wallet
  coffee memos                                  # Print memos and exit`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", config.DefaultPath(), "Config file")
	rootCmd.PersistentFlags().StringVar(&rpcFlag, "rpc", "", "Ethereum node URL (overrides ETH_RPC_URL and the config)")
	rootCmd.PersistentFlags().StringVar(&contractFlag, "contract", "", "BuyMeACoffee contract address")
	rootCmd.PersistentFlags().StringVar(&keystoreFlag, "keystore", "", "Keystore directory for the built-in wallet")
	rootCmd.PersistentFlags().StringVar(&walletURLFlag, "wallet-url", "", "JSON-RPC wallet URL, replaces the keystore wallet")
}

// loadConfig reads the config file and applies the environment and flag overrides
func loadConfig() (config.Config, error) {
	cfg := config.LoadOrCreate(configFlag)

	if env := os.Getenv("ETH_RPC_URL"); env != "" {
		cfg.UseRPC("Env", env)
	}
	if rpcFlag != "" {
		cfg.UseRPC("Flag", rpcFlag)
	}
	if contractFlag != "" {
		if !helpers.IsValidEthAddress(contractFlag) {
			return cfg, fmt.Errorf("invalid contract address %q", contractFlag)
		}
		cfg.Contract = contractFlag
	}
	if keystoreFlag != "" {
		cfg.Wallet = config.Wallet{Kind: config.WalletKeystore, Keystore: keystoreFlag}
	}
	if walletURLFlag != "" {
		cfg.Wallet = config.Wallet{Kind: config.WalletRPC, URL: walletURLFlag}
	}
	return cfg, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m := newModel(cfg, configFlag)
	defer m.teardown()

	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
