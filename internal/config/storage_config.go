package config

import "fmt"

const (
	storeDriverVar   = "STORE_DRIVER"
	sqlitePathVar    = "SQLITE_PATH"
	redisAddrVar     = "REDIS_ADDR"
	redisPasswordVar = "REDIS_PASSWORD"
	redisDBVar       = "REDIS_DB"
	redisPrefixVar   = "REDIS_PREFIX"
	databaseURLVar   = "DATABASE_URL"

	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type StorageConfig interface {
	GetStoreDriver() string
	GetSQLitePath() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
	GetDatabaseURL() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetStoreDriver() string {
	return GetEnv(storeDriverVar, DriverMemory)
}

func (Storage) GetSQLitePath() string {
	return GetEnv(sqlitePathVar, "./data/users.db")
}

func (Storage) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "localhost:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv(redisPasswordVar, "")
}

func (Storage) GetRedisDB() int {
	return GetIntEnv(redisDBVar, 0)
}

func (Storage) GetRedisPrefix() string {
	return GetEnv(redisPrefixVar, "session:")
}

func (Storage) GetDatabaseURL() string {
	return GetEnv(databaseURLVar, "")
}

func validateStorage(c StorageConfig) error {
	switch c.GetStoreDriver() {
	case DriverMemory, DriverSQLite, DriverRedis:
		return nil
	case DriverPostgres:
		if c.GetDatabaseURL() == "" {
			return fmt.Errorf("[config Validate] %s is required for the %s driver", databaseURLVar, DriverPostgres)
		}
		return nil
	default:
		return fmt.Errorf("[config Validate] unsupported %s %q", storeDriverVar, c.GetStoreDriver())
	}
}
