package config

const (
	KindMemory   = "memory"
	KindFile     = "file"
	KindRedis    = "redis"
	KindPostgres = "postgres"
)

type Config struct {
	Kind      string `yaml:"kind"`
	Path      string `yaml:"path"`
	RedisURL  string `yaml:"redis_url"`
	DBDsn     string `yaml:"db_dsn"`
	Namespace string `yaml:"namespace"`
}
