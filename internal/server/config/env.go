package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded when present; variables already set in the process
// environment win over it.
var envFile = ".env"

// parseEnv overlays CUSTODY_* environment variables. Malformed numbers or
// durations panic, like a malformed JSON file does.
func parseEnv(c *Config) {
	_ = godotenv.Load(envFile)

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := os.LookupEnv(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				panic(err)
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	str("CUSTODY_GRPC_ADDR", &c.EndpointAddrGRPC)
	str("CUSTODY_DATABASE_DSN", &c.DatabaseDSN)
	str("CUSTODY_LOG_FORMAT", &c.LogFormat)
	str("CUSTODY_SECRET_KEY", &c.SecretKey)
	dur("CUSTODY_OPERATOR_TOKEN_TTL", &c.OperatorTokenValidityDuration)
	dur("CUSTODY_SESSION_TTL", &c.SessionValidityDuration)
	dur("CUSTODY_RECOVERY_TTL", &c.RecoveryTokenValidityDuration)
	num("CUSTODY_KDF_ITERATIONS", &c.KDFIterations)
	num("CUSTODY_KDF_WORKERS", &c.KDFWorkers)
	dur("CUSTODY_KDF_QUEUE_TIMEOUT", &c.KDFQueueTimeout)
	num("CUSTODY_BCRYPT_COST", &c.BcryptCost)
	str("CUSTODY_ESCROW_MODE", &c.EscrowMode)
	str("CUSTODY_ESCROW_LOCAL_KEY", &c.EscrowLocalKey)
	str("CUSTODY_KMS_KEY_ID", &c.KMSKeyID)
	str("CUSTODY_KMS_ENDPOINT", &c.KMSBaseEndpoint)
	str("CUSTODY_AWS_REGION", &c.AWSRegion)
	str("CUSTODY_AWS_ACCESS_KEY_ID", &c.AWSAccessKeyID)
	str("CUSTODY_AWS_SECRET_ACCESS_KEY", &c.AWSSecretAccessKey)
	str("CUSTODY_S3_AUDIT_BUCKET", &c.S3AuditBucket)
	str("CUSTODY_S3_ENDPOINT", &c.S3BaseEndpoint)
	str("CUSTODY_REDIS_ADDR", &c.RedisAddr)
	str("CUSTODY_NATS_URL", &c.NATSURL)
	str("CUSTODY_RECOVERY_SUBJECT", &c.RecoverySubject)
	dur("CUSTODY_PURGE_INTERVAL", &c.PurgeInterval)
}
