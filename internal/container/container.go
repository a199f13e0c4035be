package container

import (
	"context"
	"fmt"
	"log"

	"sheetsort/adapters/excel"
	"sheetsort/adapters/filestore"
	"sheetsort/adapters/memory"
	"sheetsort/adapters/sqlstore"
	"sheetsort/app"
	"sheetsort/domain/distribution"
	"sheetsort/internal/config"
	"sheetsort/internal/database"
	"sheetsort/internal/profiles"
	"sheetsort/internal/session"
	"sheetsort/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB    *sqlx.DB
	Files *filestore.LocalStore
	Codec *excel.Codec

	// Repositories (data access layer)
	WorkbookRepo ports.WorkbookRepository
	BackupRepo   ports.BackupRepository

	// Session state
	Sessions *session.Store
	Locker   *session.Locker
	Profiles *profiles.Registry

	// Services
	Uploads      *app.UploadService
	Workbooks    *app.WorkbookService
	Sheets       *app.SheetService
	Backups      *app.BackupService
	Distribution *app.DistributionService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:   cfg,
		Codec:    excel.NewCodec(excel.DefaultConfig()),
		Sessions: session.NewStore(cfg.Server.SessionTTL),
		Locker:   session.NewLocker(cfg.Server.LockTimeout),
	}

	registry, err := profiles.Load(cfg.Distribution.ProfilesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load distribution profiles: %w", err)
	}
	if cfg.Distribution.GroupKeyIndex != distribution.DefaultGroupKeyIndex {
		registry.SetDefaultGroupKeyIndex(cfg.Distribution.GroupKeyIndex)
	}
	if _, err := registry.Get(cfg.Distribution.DefaultProfile); err != nil {
		return nil, fmt.Errorf("default profile: %w", err)
	}
	c.Profiles = registry

	return c, nil
}

// Init opens the configured store and wires the services
func (c *Container) Init(ctx context.Context) error {
	if c.Config.Database.Driver == config.DriverMemory {
		c.InitWithMemory()
	} else {
		db, err := database.OpenAndMigrate(ctx, c.Config.Database)
		if err != nil {
			return err
		}
		if err := c.InitWithDatabase(db); err != nil {
			db.Close()
			return err
		}
	}

	if c.Config.Backup.Dir != "" {
		files, err := filestore.NewLocalStore(c.Config.Backup.Dir)
		if err != nil {
			return fmt.Errorf("failed to initialize backup directory: %w", err)
		}
		c.Files = files
	}

	c.initServices()
	return nil
}

// InitWithDatabase uses SQL repositories on db
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db
	c.WorkbookRepo = sqlstore.NewWorkbookRepository(db)
	c.BackupRepo = sqlstore.NewBackupRepository(db)

	log.Printf("[Container] using %s store", c.Config.Database.Driver)
	return nil
}

// InitWithMemory uses the in-process store; data is lost on exit
func (c *Container) InitWithMemory() {
	store := memory.NewStore()
	c.WorkbookRepo = store.Workbooks()
	c.BackupRepo = store.Backups()

	log.Printf("[Container] using in-memory store")
}

func (c *Container) initServices() {
	var files ports.FileStore
	if c.Files != nil {
		files = c.Files
	}

	c.Uploads = app.NewUploadService(c.WorkbookRepo, c.Codec, c.Locker, c.Config.Upload)
	c.Workbooks = app.NewWorkbookService(c.WorkbookRepo, c.Sessions, c.Locker)
	c.Sheets = app.NewSheetService(c.WorkbookRepo, c.Locker)
	c.Backups = app.NewBackupService(c.WorkbookRepo, c.BackupRepo, c.Codec, files, c.Locker)
	c.Distribution = app.NewDistributionService(c.WorkbookRepo, c.Backups, c.Profiles, c.Locker,
		c.Config.Backup.OnDistribute, c.Config.Distribution.DefaultProfile)

	log.Printf("[Container] services initialized (%d profiles)", len(c.Profiles.List()))
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
