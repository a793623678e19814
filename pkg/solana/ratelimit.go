package solana

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/diamondhands/pkg/rate"
)

type rateLimitedClient struct {
	Client
	limiter rate.Limiter
}

// NewRateLimitedClient throttles calls to c. Each RPC method is limited
// independently, as public RPC nodes tend to do.
func NewRateLimitedClient(c Client, limiter rate.Limiter) Client {
	return &rateLimitedClient{
		Client:  c,
		limiter: limiter,
	}
}

func (c *rateLimitedClient) wait(method string) error {
	if err := c.limiter.Wait(context.Background(), method); err != nil {
		return errors.Wrapf(err, "%s() rate limit wait failed", method)
	}
	return nil
}

func (c *rateLimitedClient) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (AccountInfo, error) {
	if err := c.wait("getAccountInfo"); err != nil {
		return AccountInfo{}, err
	}
	return c.Client.GetAccountInfo(account, commitment)
}

func (c *rateLimitedClient) GetBalance(account ed25519.PublicKey) (uint64, error) {
	if err := c.wait("getBalance"); err != nil {
		return 0, err
	}
	return c.Client.GetBalance(account)
}

func (c *rateLimitedClient) GetLatestBlockhash() (Blockhash, error) {
	if err := c.wait("getLatestBlockhash"); err != nil {
		return Blockhash{}, err
	}
	return c.Client.GetLatestBlockhash()
}

func (c *rateLimitedClient) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	if err := c.wait("getMinimumBalanceForRentExemption"); err != nil {
		return 0, err
	}
	return c.Client.GetMinimumBalanceForRentExemption(size)
}

// GetSignatureStatus is limited once per call. The polling it does is
// delegated to the wrapped client.
func (c *rateLimitedClient) GetSignatureStatus(sig Signature, commitment Commitment) (*SignatureStatus, error) {
	if err := c.wait("getSignatureStatuses"); err != nil {
		return nil, err
	}
	return c.Client.GetSignatureStatus(sig, commitment)
}

func (c *rateLimitedClient) GetSignatureStatuses(sigs []Signature) ([]*SignatureStatus, error) {
	if err := c.wait("getSignatureStatuses"); err != nil {
		return nil, err
	}
	return c.Client.GetSignatureStatuses(sigs)
}

func (c *rateLimitedClient) GetSlot(commitment Commitment) (uint64, error) {
	if err := c.wait("getSlot"); err != nil {
		return 0, err
	}
	return c.Client.GetSlot(commitment)
}

func (c *rateLimitedClient) GetTokenAccountBalance(account ed25519.PublicKey, commitment Commitment) (uint64, uint64, error) {
	if err := c.wait("getTokenAccountBalance"); err != nil {
		return 0, 0, err
	}
	return c.Client.GetTokenAccountBalance(account, commitment)
}

func (c *rateLimitedClient) RequestAirdrop(account ed25519.PublicKey, lamports uint64, commitment Commitment) (Signature, error) {
	if err := c.wait("requestAirdrop"); err != nil {
		return Signature{}, err
	}
	return c.Client.RequestAirdrop(account, lamports, commitment)
}

func (c *rateLimitedClient) SubmitTransaction(txn Transaction, commitment Commitment) (Signature, error) {
	if err := c.wait("sendTransaction"); err != nil {
		return Signature{}, err
	}
	return c.Client.SubmitTransaction(txn, commitment)
}
