package main

import (
	"context"
	"crypto/ed25519"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/diamondhands/pkg/diamondhands"
	"github.com/code-payments/diamondhands/pkg/metrics"
	"github.com/code-payments/diamondhands/pkg/pointer"
	"github.com/code-payments/diamondhands/pkg/rate"
	"github.com/code-payments/diamondhands/pkg/retry"
	"github.com/code-payments/diamondhands/pkg/retry/backoff"
	"github.com/code-payments/diamondhands/pkg/solana"
	diamondhands_program "github.com/code-payments/diamondhands/pkg/solana/diamondhands"
)

var configPath = flag.String("config", "config.yaml", "configuration file path")

var errNotFunded = errors.New("airdrop not yet visible")

func main() {
	flag.Parse()

	log := logrus.StandardLogger().WithField("type", "cmd/diamondhands-smoke")

	cfg, err := loadConfig()
	if err != nil {
		log.WithError(err).Error("failed to load config")
		os.Exit(1)
	}

	var nr *newrelic.Application
	if len(cfg.NewRelicLicenseKey) > 0 {
		nr, err = newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(cfg.AppName),
			newrelic.ConfigLicense(cfg.NewRelicLicenseKey),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.WithError(err).Error("error connecting to new relic")
			os.Exit(1)
		}
		defer nr.Shutdown(10 * time.Second)
	}

	configureLogger(cfg, nr)

	ctx := context.Background()
	if nr != nil {
		txn := nr.StartTransaction("smoke")
		defer txn.End()

		ctx = newrelic.NewContext(ctx, txn)
		ctx = metrics.NewContext(ctx, nr)
	}

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("smoke test failed")
		os.Exit(1)
	}
}

func loadConfig() (config, error) {
	if _, err := os.Stat(*configPath); err == nil {
		viper.SetConfigFile(*configPath)
	} else if !os.IsNotExist(err) {
		return config{}, errors.Wrap(err, "failed to check if config exists")
	}

	err := viper.ReadInConfig()
	_, isConfigNotFound := err.(viper.ConfigFileNotFoundError)
	if err != nil && !isConfigNotFound {
		return config{}, err
	}

	cfg := defaultConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return config{}, errors.Wrap(err, "failed to unmarshal config")
	}
	return cfg, nil
}

func configureLogger(cfg config, nr *newrelic.Application) {
	if nr != nil {
		logrus.SetFormatter(metrics.NewCustomNewRelicLogFormatter(nr, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", cfg.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stderr)
}

func loadKey(cfg config) (ed25519.PrivateKey, error) {
	if len(cfg.PrivateKey) > 0 {
		key, err := solanago.PrivateKeyFromBase58(cfg.PrivateKey)
		if err != nil {
			return nil, errors.Wrap(err, "invalid private key")
		}
		return ed25519.PrivateKey(key), nil
	}

	path := cfg.KeypairPath
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve home directory")
		}
		path = filepath.Join(home, path[2:])
	}

	key, err := solanago.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load keypair from %s", path)
	}
	return ed25519.PrivateKey(key), nil
}

func run(ctx context.Context, cfg config, log *logrus.Entry) error {
	sc := solana.New(cfg.RPCEndpoint)
	if cfg.RPCRateLimit > 0 {
		sc = solana.NewRateLimitedClient(sc, rate.NewLocalRateLimiter(xrate.Limit(cfg.RPCRateLimit), 1))
	}

	_, err := smoke(ctx, cfg, sc, log)
	return err
}

// smoke mints cfg.Amount tokens to the wallet, locks them and verifies that
// an immediate release is rejected because the lock has not matured. It
// returns the created record.
func smoke(ctx context.Context, cfg config, sc solana.Client, log *logrus.Entry) (*diamondhands.LockRecord, error) {
	key, err := loadKey(cfg)
	if err != nil {
		return nil, err
	}
	signer := diamondhands.NewKeypairSigner(key)
	wallet := signer.PublicKey()

	log = log.WithField("wallet", base58.Encode(wallet))

	opts := []diamondhands.Option{
		diamondhands.WithConfig(diamondhands.WithEnvConfigs()),
	}
	if len(cfg.Program) > 0 {
		program, err := base58.Decode(cfg.Program)
		if err != nil || len(program) != ed25519.PublicKeySize {
			return nil, errors.Errorf("invalid program id: %q", cfg.Program)
		}
		opts = append(opts, diamondhands.WithProgram(program))
	}
	session := diamondhands.NewSession(sc, opts...)

	if cfg.AirdropLamports > 0 {
		if err := airdrop(ctx, sc, wallet, cfg.AirdropLamports); err != nil {
			return nil, err
		}
		log.WithField("lamports", cfg.AirdropLamports).Info("airdrop received")
	}

	mint, err := session.CreateMint(ctx, signer, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create mint")
	}
	account, err := session.CreateAssociatedAccount(ctx, signer, wallet, mint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create token account")
	}
	if err := session.MintTo(ctx, signer, mint, account, cfg.Amount); err != nil {
		return nil, errors.Wrap(err, "failed to mint tokens")
	}

	source, err := session.GetTokenAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	fmt.Printf("mint %s, token account %s, balance %d\n", base58.Encode(mint), base58.Encode(account), source.Amount)

	record, err := session.CreateLockRecord(ctx, signer, source, &diamondhands.LockOptions{
		DaysToLock: pointer.Uint64(cfg.DaysToLock),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create lock record")
	}
	fmt.Printf("lock record %s unlocks at %s\n", base58.Encode(record.RecordAddress), record.UnlockTime().UTC().Format(time.RFC3339))

	if err := printBalances(ctx, session, source.Address, record.Vault); err != nil {
		return nil, err
	}

	time.Sleep(cfg.SettleDelay)

	_, err = session.ReleaseLock(ctx, signer, diamondhands.ByAddress(record.RecordAddress), source, nil)
	switch {
	case err == nil:
		return nil, errors.New("release succeeded before the unlock date")
	case diamondhands.IsProgramRejection(err, diamondhands_program.ErrorStillFrozen):
		fmt.Printf("release rejected as expected: %v\n", err)
	default:
		return nil, errors.Wrap(err, "failed to release lock")
	}

	if err := printBalances(ctx, session, source.Address, record.Vault); err != nil {
		return nil, err
	}
	return record, nil
}

func airdrop(ctx context.Context, sc solana.Client, wallet ed25519.PublicKey, lamports uint64) error {
	before, err := sc.GetBalance(wallet)
	if err != nil && err != solana.ErrNoBalance {
		return errors.Wrap(err, "failed to get balance")
	}

	if _, err := sc.RequestAirdrop(wallet, lamports, solana.CommitmentConfirmed); err != nil {
		return errors.Wrap(err, "failed to request airdrop")
	}

	_, err = retry.Retry(
		func() error {
			balance, err := sc.GetBalance(wallet)
			if err != nil && err != solana.ErrNoBalance {
				return err
			}
			if balance < before+lamports {
				return errNotFunded
			}
			return nil
		},
		retry.Context(ctx),
		retry.RetriableErrors(errNotFunded, solana.ErrNoBalance),
		retry.Limit(20),
		retry.Backoff(backoff.Linear(500*time.Millisecond), 5*time.Second),
	)
	return err
}

func printBalances(ctx context.Context, session *diamondhands.Session, source, vault ed25519.PublicKey) error {
	sourceAccount, err := session.GetTokenAccount(ctx, source)
	if err != nil {
		return err
	}
	vaultAccount, err := session.GetTokenAccount(ctx, vault)
	if err != nil {
		return err
	}

	fmt.Printf("owner balance %d, vault balance %d\n", sourceAccount.Amount, vaultAccount.Amount)
	return nil
}
