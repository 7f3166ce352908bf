package db

import (
	"fmt"
	"time"

	"CortexFM/config"
	"CortexFM/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormDB handles schema migration. The repositories use the plain *sql.DB;
// GORM owns the table definitions (unique indexes, check constraints) only.
var GormDB *gorm.DB

// ConnectGormDB establishes the GORM connection used for migrations.
func ConnectGormDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	GormDB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		// Artist and License rows are shared; the cascade on track_embeddings
		// is declared on the model, everything else is looked up explicitly.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("Successfully connected to the database with GORM")
	return nil
}

// CloseGormDB closes the GORM connection.
func CloseGormDB() error {
	if GormDB == nil {
		return nil
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// AutoMigrateModels migrates the given model structs and adds the cascade
// foreign key that automatic constraint creation (disabled above) skips.
func AutoMigrateModels(models ...interface{}) error {
	if GormDB == nil {
		return fmt.Errorf("GORM database not initialized")
	}

	if err := GormDB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}

	if err := ensureTrackEmbeddingCascade(); err != nil {
		return fmt.Errorf("failed to add embedding cascade constraint: %w", err)
	}

	logger.Info("Models migrated successfully with GORM")
	return nil
}

const trackEmbeddingFK = "fk_track_embeddings_track"

func trackEmbeddingCascadeDDL() string {
	return `ALTER TABLE track_embeddings
		ADD CONSTRAINT ` + trackEmbeddingFK + ` FOREIGN KEY (track_id)
		REFERENCES tracks (id) ON DELETE CASCADE`
}

// ensureTrackEmbeddingCascade ties track_embeddings rows to their track so
// a track delete removes its embedding rows. Idempotent.
func ensureTrackEmbeddingCascade() error {
	var count int64
	err := GormDB.Raw(`SELECT COUNT(*) FROM information_schema.TABLE_CONSTRAINTS
		WHERE CONSTRAINT_SCHEMA = DATABASE()
		  AND TABLE_NAME = 'track_embeddings'
		  AND CONSTRAINT_NAME = ?`, trackEmbeddingFK).Scan(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return GormDB.Exec(trackEmbeddingCascadeDDL()).Error
}
