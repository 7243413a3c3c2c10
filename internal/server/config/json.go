package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/flagx"
	"github.com/dmitrijs2005/custodykeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// strings such as "8760h" or integer nanoseconds. Absent fields keep the
// value from earlier layers.
type JsonConfig struct {
	EndpointAddrGRPC              string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                   string         `json:"database_dsn"`
	LogFormat                     string         `json:"log_format"`
	SecretKey                     string         `json:"secret_key"`
	OperatorTokenValidityDuration timex.Duration `json:"operator_token_validity_duration"`
	SessionValidityDuration       timex.Duration `json:"session_validity_duration"`
	RecoveryTokenValidityDuration timex.Duration `json:"recovery_token_validity_duration"`
	KDFIterations                 int            `json:"kdf_iterations"`
	KDFWorkers                    int            `json:"kdf_workers"`
	KDFQueueTimeout               timex.Duration `json:"kdf_queue_timeout"`
	BcryptCost                    int            `json:"bcrypt_cost"`
	EscrowMode                    string         `json:"escrow_mode"`
	EscrowLocalKey                string         `json:"escrow_local_key"`
	KMSKeyID                      string         `json:"kms_key_id"`
	KMSBaseEndpoint               string         `json:"kms_base_endpoint"`
	AWSRegion                     string         `json:"aws_region"`
	AWSAccessKeyID                string         `json:"aws_access_key_id"`
	AWSSecretAccessKey            string         `json:"aws_secret_access_key"`
	S3AuditBucket                 string         `json:"s3_audit_bucket"`
	S3BaseEndpoint                string         `json:"s3_base_endpoint"`
	RedisAddr                     string         `json:"redis_addr"`
	NATSURL                       string         `json:"nats_url"`
	RecoverySubject               string         `json:"recovery_subject"`
	PurgeInterval                 timex.Duration `json:"purge_interval"`
}

// parseJson overlays the file named by -c/-config, if any. An unreadable or
// invalid file panics.
func parseJson(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setStr(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setStr(&config.DatabaseDSN, c.DatabaseDSN)
	setStr(&config.LogFormat, c.LogFormat)
	setStr(&config.SecretKey, c.SecretKey)
	setDur(&config.OperatorTokenValidityDuration, c.OperatorTokenValidityDuration)
	setDur(&config.SessionValidityDuration, c.SessionValidityDuration)
	setDur(&config.RecoveryTokenValidityDuration, c.RecoveryTokenValidityDuration)
	setInt(&config.KDFIterations, c.KDFIterations)
	setInt(&config.KDFWorkers, c.KDFWorkers)
	setDur(&config.KDFQueueTimeout, c.KDFQueueTimeout)
	setInt(&config.BcryptCost, c.BcryptCost)
	setStr(&config.EscrowMode, c.EscrowMode)
	setStr(&config.EscrowLocalKey, c.EscrowLocalKey)
	setStr(&config.KMSKeyID, c.KMSKeyID)
	setStr(&config.KMSBaseEndpoint, c.KMSBaseEndpoint)
	setStr(&config.AWSRegion, c.AWSRegion)
	setStr(&config.AWSAccessKeyID, c.AWSAccessKeyID)
	setStr(&config.AWSSecretAccessKey, c.AWSSecretAccessKey)
	setStr(&config.S3AuditBucket, c.S3AuditBucket)
	setStr(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setStr(&config.RedisAddr, c.RedisAddr)
	setStr(&config.NATSURL, c.NATSURL)
	setStr(&config.RecoverySubject, c.RecoverySubject)
	setDur(&config.PurgeInterval, c.PurgeInterval)
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDur(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
