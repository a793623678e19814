package diamondhands

import (
	"time"

	"github.com/code-payments/diamondhands/pkg/config"
	"github.com/code-payments/diamondhands/pkg/config/env"
	"github.com/code-payments/diamondhands/pkg/config/memory"
	"github.com/code-payments/diamondhands/pkg/config/wrapper"
)

const (
	envConfigPrefix = "DIAMONDHANDS_"

	UnlockBufferConfigEnvName = envConfigPrefix + "UNLOCK_BUFFER"
	defaultUnlockBuffer       = 10 * time.Second

	DefaultLockDaysConfigEnvName = envConfigPrefix + "DEFAULT_LOCK_DAYS"
	defaultLockDays              = 100

	CommitmentConfigEnvName = envConfigPrefix + "COMMITMENT"
	defaultCommitment       = "confirmed"
)

type conf struct {
	unlockBuffer    config.Duration
	defaultLockDays config.Uint64
	commitment      config.String
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			unlockBuffer:    env.NewDurationConfig(UnlockBufferConfigEnvName, defaultUnlockBuffer),
			defaultLockDays: env.NewUint64Config(DefaultLockDaysConfigEnvName, defaultLockDays),
			commitment:      env.NewStringConfig(CommitmentConfigEnvName, defaultCommitment),
		}
	}
}

// ConfigOverrides holds fixed values for sessions that don't read the
// environment. Zero fields fall back to the defaults.
type ConfigOverrides struct {
	UnlockBuffer    time.Duration
	DefaultLockDays *uint64
	Commitment      string
}

// WithOverrides returns configuration backed by in memory values
func WithOverrides(overrides *ConfigOverrides) ConfigProvider {
	return func() *conf {
		var unlockBuffer, lockDays, commitment interface{}
		if overrides.UnlockBuffer > 0 {
			unlockBuffer = overrides.UnlockBuffer
		}
		if overrides.DefaultLockDays != nil {
			lockDays = *overrides.DefaultLockDays
		}
		if len(overrides.Commitment) > 0 {
			commitment = overrides.Commitment
		}

		return &conf{
			unlockBuffer:    wrapper.NewDurationConfig(memory.NewConfig(unlockBuffer), defaultUnlockBuffer),
			defaultLockDays: wrapper.NewUint64Config(memory.NewConfig(lockDays), defaultLockDays),
			commitment:      wrapper.NewStringConfig(memory.NewConfig(commitment), defaultCommitment),
		}
	}
}
