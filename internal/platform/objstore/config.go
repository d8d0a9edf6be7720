package objstore

import "github.com/ferroh-aws/transcribe-comprehend/internal/platform/config"

// FromConfig reads the connection settings; cfg is expected to carry the service prefix
func FromConfig(cfg config.Conf) Config {
	return Config{
		Endpoint:      cfg.MustString("ENDPOINT"),
		Region:        cfg.MayString("REGION", "us-east-1"),
		AccessKey:     cfg.MayString("ACCESS_KEY", ""),
		SecretKey:     cfg.MayString("SECRET_KEY", ""),
		UseSSL:        cfg.MayBool("USE_SSL", false),
		EnsureBuckets: cfg.MayCSV("BUCKETS", nil),
	}
}
