package app

import (
	"time"

	"github.com/railzwaylabs/sagalog/internal/config"
	"github.com/railzwaylabs/sagalog/pkg/db"
	zaplog "github.com/railzwaylabs/sagalog/pkg/log"
	"github.com/railzwaylabs/sagalog/pkg/snowflake"
)

func logOptions(cfg *config.Config) zaplog.Options {
	return zaplog.Options{
		Service:    cfg.AppName,
		Version:    cfg.AppVersion,
		Production: cfg.IsProduction(),
		Level:      cfg.LogLevel,
	}
}

func dbOptions(cfg *config.Config) db.Options {
	return db.Options{
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		SSLMode:         cfg.DBSSLMode,
		MaxIdleConns:    cfg.DBMaxIdleConn,
		MaxOpenConns:    cfg.DBMaxOpenConn,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.DBConnMaxIdleTime) * time.Second,
		Debug:           !cfg.IsProduction() && cfg.LogLevel == "debug",
	}
}

func nodeID(cfg *config.Config) snowflake.NodeID {
	return snowflake.NodeID(cfg.SnowflakeNode)
}
