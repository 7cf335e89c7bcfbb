package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"StockPilot/pkg/config"
)

// Store 分析数据存储，持有 gorm 连接。
// 多个标的会并发读写，gorm 连接池本身并发安全，各标的键互不相交。
type Store struct {
	db *gorm.DB
}

// NewStore 连接 PostgreSQL 并迁移表结构
func NewStore(cfg *config.Config) (*Store, error) {
	dbCfg := cfg.Database
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbCfg.Host, dbCfg.Port, dbCfg.User, dbCfg.Password, dbCfg.DBName, dbCfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	if err := db.AutoMigrate(&DailyBarRecord{}, &AnalysisReport{}); err != nil {
		return nil, fmt.Errorf("迁移表结构失败: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStoreWithDB 用已有连接构建 Store，测试用
func NewStoreWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Close 关闭底层连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
