package runtime

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/code-payments/code-custody/pkg/config"
	"github.com/code-payments/code-custody/pkg/config/env"
	"github.com/code-payments/code-custody/pkg/config/memory"
	viperconfig "github.com/code-payments/code-custody/pkg/config/viper"
	"github.com/code-payments/code-custody/pkg/config/wrapper"
	"github.com/code-payments/code-custody/pkg/solana"
)

const (
	envConfigPrefix = "RUNTIME_SERVICE_"

	LockStripesConfigEnvName = envConfigPrefix + "LOCK_STRIPES"
	defaultLockStripes       = 1024

	MaxCallDepthConfigEnvName = envConfigPrefix + "MAX_CALL_DEPTH"
	defaultMaxCallDepth       = 4

	VerifySignaturesConfigEnvName = envConfigPrefix + "VERIFY_SIGNATURES"
	defaultVerifySignatures       = true

	SignatureCacheSizeConfigEnvName = envConfigPrefix + "SIGNATURE_CACHE_SIZE"
	defaultSignatureCacheSize       = 100_000

	MaxTransactionSizeConfigEnvName = envConfigPrefix + "MAX_TRANSACTION_SIZE"
	defaultMaxTransactionSize       = solana.MaxTransactionSize
)

type conf struct {
	lockStripes        config.Uint64
	maxCallDepth       config.Uint64
	verifySignatures   config.Bool
	signatureCacheSize config.Uint64
	maxTransactionSize config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			lockStripes:        env.NewUint64Config(LockStripesConfigEnvName, defaultLockStripes),
			maxCallDepth:       env.NewUint64Config(MaxCallDepthConfigEnvName, defaultMaxCallDepth),
			verifySignatures:   env.NewBoolConfig(VerifySignaturesConfigEnvName, defaultVerifySignatures),
			signatureCacheSize: env.NewUint64Config(SignatureCacheSizeConfigEnvName, defaultSignatureCacheSize),
			maxTransactionSize: env.NewUint64Config(MaxTransactionSizeConfigEnvName, defaultMaxTransactionSize),
		}
	}
}

// WithViperConfigs returns configuration pulled from v. Keys are the lower
// case environment variable names without the service prefix, nested under
// "runtime" (for example, runtime.max_call_depth).
func WithViperConfigs(v *viper.Viper) ConfigProvider {
	key := func(envName string) string {
		return "runtime." + strings.ToLower(strings.TrimPrefix(envName, envConfigPrefix))
	}

	return func() *conf {
		return &conf{
			lockStripes:        viperconfig.NewUint64Config(v, key(LockStripesConfigEnvName), defaultLockStripes),
			maxCallDepth:       viperconfig.NewUint64Config(v, key(MaxCallDepthConfigEnvName), defaultMaxCallDepth),
			verifySignatures:   viperconfig.NewBoolConfig(v, key(VerifySignaturesConfigEnvName), defaultVerifySignatures),
			signatureCacheSize: viperconfig.NewUint64Config(v, key(SignatureCacheSizeConfigEnvName), defaultSignatureCacheSize),
			maxTransactionSize: viperconfig.NewUint64Config(v, key(MaxTransactionSizeConfigEnvName), defaultMaxTransactionSize),
		}
	}
}

type testOverrides struct {
	maxCallDepth       uint64
	skipSignatures     bool
	lockStripes        uint64
	signatureCacheSize uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	maxCallDepth := uint64(defaultMaxCallDepth)
	if overrides.maxCallDepth > 0 {
		maxCallDepth = overrides.maxCallDepth
	}

	lockStripes := uint64(defaultLockStripes)
	if overrides.lockStripes > 0 {
		lockStripes = overrides.lockStripes
	}

	signatureCacheSize := uint64(defaultSignatureCacheSize)
	if overrides.signatureCacheSize > 0 {
		signatureCacheSize = overrides.signatureCacheSize
	}

	return func() *conf {
		return &conf{
			lockStripes:        wrapper.NewUint64Config(memory.NewConfig(lockStripes), defaultLockStripes),
			maxCallDepth:       wrapper.NewUint64Config(memory.NewConfig(maxCallDepth), defaultMaxCallDepth),
			verifySignatures:   wrapper.NewBoolConfig(memory.NewConfig(!overrides.skipSignatures), defaultVerifySignatures),
			signatureCacheSize: wrapper.NewUint64Config(memory.NewConfig(signatureCacheSize), defaultSignatureCacheSize),
			maxTransactionSize: wrapper.NewUint64Config(memory.NewConfig(uint64(defaultMaxTransactionSize)), defaultMaxTransactionSize),
		}
	}
}
