package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"coffee-wallet-tui/config"
	"coffee-wallet-tui/contract"
	"coffee-wallet-tui/helpers"
	"coffee-wallet-tui/rpc"
	"coffee-wallet-tui/styles"
	"coffee-wallet-tui/views/memos"
	"coffee-wallet-tui/wallet"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var memosCmd = &cobra.Command{
	Use:   "memos",
	Short: "Print every memo left on the contract",
	RunE:  runMemos,
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Send the collected tips to the contract owner (owner wallet only)",
	RunE:  runWithdraw,
}

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the built-in keystore wallet",
}

var walletNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new encrypted account in the keystore",
	RunE:  runWalletNew,
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the accounts in the keystore",
	RunE:  runWalletList,
}

func init() {
	rootCmd.AddCommand(memosCmd)
	rootCmd.AddCommand(withdrawCmd)
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletNewCmd)
	walletCmd.AddCommand(walletListCmd)
}

// stderrLogger is used by the one-shot commands; the TUI logs into its panel
func stderrLogger() *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, TimeFormat: "15:04:05"})
	l.SetStyles(logStyles())
	return l
}

func runMemos(cmd *cobra.Command, args []string) error {
	logger := stderrLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	url := cfg.ActiveRPC()
	if url == "" {
		return errors.New("no RPC endpoint configured (set ETH_RPC_URL or pass --rpc)")
	}

	res := rpc.Connect(url)
	if res.Error != nil {
		logger.Error("Connecting to node failed", "url", url, "err", res.Error)
		return res.Error
	}
	defer res.Client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	c := contract.NewClient(common.HexToAddress(cfg.Contract), res.Client.Client)
	list, err := c.Memos(ctx)
	if err != nil {
		logger.Error("Fetching memos failed", "kind", wallet.KindOf(err), "err", err)
		return err
	}
	logger.Info("Fetched memos", "contract", helpers.ShortenAddr(cfg.Contract), "count", len(list))

	fmt.Println(memos.Title(len(list), false))
	fmt.Println()
	fmt.Println(memos.Render(list, 80))
	return nil
}

func runWithdraw(cmd *cobra.Command, args []string) error {
	logger := stderrLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	url := cfg.ActiveRPC()
	if url == "" {
		return errors.New("no RPC endpoint configured (set ETH_RPC_URL or pass --rpc)")
	}

	res := rpc.Connect(url)
	if res.Error != nil {
		logger.Error("Connecting to node failed", "url", url, "err", res.Error)
		return res.Error
	}
	defer res.Client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	p, err := wallet.Open(ctx, cfg.Wallet, res.Client.Client)
	if err != nil {
		logger.Error("Opening wallet failed", "kind", wallet.KindOf(err), "err", err)
		return err
	}
	if ks, ok := p.(*wallet.Keystore); ok && ks.NeedsPassphrase() {
		var pass string
		err := huh.NewInput().
			Title("Keystore passphrase").
			EchoMode(huh.EchoModePassword).
			Value(&pass).
			Run()
		if err != nil {
			return err
		}
		ks.SetPassphrase(pass)
	}

	session := wallet.NewSession(p)
	from, err := session.Connect(ctx)
	if err != nil {
		logger.Error("Wallet connection failed", "kind", wallet.KindOf(err), "err", err)
		return err
	}

	c := contract.NewClient(common.HexToAddress(cfg.Contract), res.Client.Client)
	data, err := c.PackWithdrawTips()
	if err != nil {
		return err
	}
	hash, err := p.SendTransaction(ctx, wallet.TxRequest{From: from, To: c.Address, Value: new(big.Int), Data: data})
	if err != nil {
		logger.Error("Sending withdrawTips failed", "kind", wallet.KindOf(err), "err", err)
		return err
	}
	logger.Info("Transaction sent, waiting to be mined", "tx", hash.Hex())

	receipt, err := c.WaitMined(ctx, hash)
	if err != nil {
		logger.Error("withdrawTips failed", "kind", wallet.KindOf(err), "err", err)
		return err
	}
	logger.Info("Tips withdrawn", "block", receipt.BlockNumber, "from", helpers.ShortenAddr(from.Hex()))
	return nil
}

func keystoreDir(cfg config.Config) string {
	if cfg.Wallet.Keystore != "" {
		return cfg.Wallet.Keystore
	}
	return config.DefaultKeystoreDir()
}

func runWalletNew(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := keystoreDir(cfg)

	var pass, confirm string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Passphrase").
				Description("Encrypts the new key in "+dir).
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if len(s) < 8 {
						return errors.New("use at least 8 characters")
					}
					return nil
				}).
				Value(&pass),
			huh.NewInput().
				Title("Repeat passphrase").
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if s != pass {
						return errors.New("passphrases do not match")
					}
					return nil
				}).
				Value(&confirm),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	addr, err := wallet.NewAccount(dir, pass)
	if err != nil {
		stderrLogger().Error("Creating account failed", "dir", dir, "err", err)
		return err
	}
	fmt.Println(styles.TitleStyle.Render("New account"))
	fmt.Println(lipgloss.NewStyle().Foreground(styles.CAccent).Render(addr.Hex()))
	fmt.Println(styles.MutedStyle.Render("Fund it with a little ETH, then run `coffee`."))
	return nil
}

func runWalletList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := keystoreDir(cfg)
	accounts := wallet.ListAccounts(dir)
	if len(accounts) == 0 {
		fmt.Println(styles.MutedStyle.Render("No accounts in " + dir + ". Create one with `coffee wallet new`."))
		return nil
	}
	fmt.Println(styles.TitleStyle.Render(fmt.Sprintf("Accounts in %s", dir)))
	for i, a := range accounts {
		fmt.Printf("%s %s\n", styles.MutedStyle.Render(fmt.Sprintf("%2d.", i+1)), a.Hex())
	}
	return nil
}
