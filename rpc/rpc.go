package rpc

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	qrterminal "github.com/mdp/qrterminal/v3"
)

// Client wraps an Ethereum RPC client
type Client struct {
	*ethclient.Client
	URL string
}

// ConnectResult holds the result of an RPC connection attempt
type ConnectResult struct {
	Client *Client
	Error  error
}

// Connect attempts to connect to an Ethereum RPC endpoint
func Connect(url string) ConnectResult {
	return ConnectWithTimeout(url, 8*time.Second)
}

// ConnectWithTimeout attempts to connect with a custom timeout
func ConnectWithTimeout(url string, timeout time.Duration) ConnectResult {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return ConnectResult{Client: nil, Error: err}
	}

	return ConnectResult{
		Client: &Client{
			Client: client,
			URL:    url,
		},
		Error: nil,
	}
}

// AccountDetails is what the header shows about the connected account
type AccountDetails struct {
	Address    string
	EthWei     *big.Int
	ChainID    *big.Int
	LoadedAt   time.Time
	ErrMessage string
}

// LoadAccountDetails fetches the ETH balance and chain of an address
func LoadAccountDetails(client *Client, addr common.Address) AccountDetails {
	return LoadAccountDetailsWithTimeout(client, addr, 12*time.Second)
}

// LoadAccountDetailsWithTimeout fetches account details with a custom timeout
func LoadAccountDetailsWithTimeout(client *Client, addr common.Address, timeout time.Duration) AccountDetails {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	d := AccountDetails{
		Address:  addr.Hex(),
		EthWei:   big.NewInt(0),
		LoadedAt: time.Now(),
	}

	if client == nil || client.Client == nil {
		d.ErrMessage = "No RPC client (set ETH_RPC_URL)."
		return d
	}

	wei, err := client.BalanceAt(ctx, addr, nil)
	if err != nil {
		d.ErrMessage = "Failed to load ETH balance."
		return d
	}
	d.EthWei = wei

	// chain id is only cosmetic; keep the balance if it fails
	if id, err := client.ChainID(ctx); err == nil {
		d.ChainID = id
	}
	return d
}

// PaymentURI builds an EIP-681 link that calls buyCoffee(name, message) on
// the contract with value wei attached, for wallets that scan a QR code.
//
//	ethereum:<contract>@<chainId>/buyCoffee?string=<name>&string=<message>&value=<wei>
func PaymentURI(contract common.Address, chainID *big.Int, name, message string, value *big.Int) string {
	var b strings.Builder
	b.WriteString("ethereum:")
	b.WriteString(contract.Hex())
	if chainID != nil && chainID.Sign() > 0 {
		b.WriteString("@" + chainID.String())
	}
	b.WriteString("/buyCoffee")

	params := []string{
		"string=" + url.QueryEscape(name),
		"string=" + url.QueryEscape(message),
	}
	if value != nil {
		params = append(params, "value="+value.String())
	}
	b.WriteString("?" + strings.Join(params, "&"))
	return b.String()
}

// GenerateQRCode renders content as a half-block terminal QR code
func GenerateQRCode(content string) string {
	var buf strings.Builder
	qrterminal.GenerateWithConfig(content, qrterminal.Config{
		Level:          qrterminal.M,
		Writer:         &buf,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		QuietZone:      1,
	})
	return buf.String()
}

// Describe returns a short human label for a chain id
func Describe(chainID *big.Int) string {
	if chainID == nil {
		return "unknown chain"
	}
	switch chainID.Uint64() {
	case 1:
		return "Ethereum"
	case 11155111:
		return "Sepolia"
	case 17000:
		return "Holesky"
	case 31337:
		return "Local"
	}
	return fmt.Sprintf("chain %s", chainID)
}
