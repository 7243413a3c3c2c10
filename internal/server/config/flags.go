package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/custodykeeper/internal/flagx"
)

// parseFlags overlays the short command-line flags:
//
//	-a string   gRPC bind address (e.g. ":50051")
//	-d string   PostgreSQL DSN
//	-s string   operator JWT secret
//	-l string   log format: json | zerolog
//	-i int      PBKDF2 iterations
//	-m string   escrow mode: local | kms
//	-k string   KMS key id
//	-b string   S3 audit bucket
//	-r string   Redis address for wallet locks
//	-n string   NATS URL for recovery delivery
//
// Only these flags are looked at; everything else in os.Args is ignored.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-l", "-i", "-m", "-k", "-b", "-r", "-n"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "operator token secret key")
	fs.StringVar(&config.LogFormat, "l", config.LogFormat, "log format (json|zerolog)")
	fs.IntVar(&config.KDFIterations, "i", config.KDFIterations, "PBKDF2 iterations")
	fs.StringVar(&config.EscrowMode, "m", config.EscrowMode, "escrow mode (local|kms)")
	fs.StringVar(&config.KMSKeyID, "k", config.KMSKeyID, "KMS key id for escrow")
	fs.StringVar(&config.S3AuditBucket, "b", config.S3AuditBucket, "S3 bucket for audit events")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "Redis address for wallet locks")
	fs.StringVar(&config.NATSURL, "n", config.NATSURL, "NATS URL for recovery delivery")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
