package app

import (
	"database/sql"
	"fmt"

	availabilityDomain "github.com/felixgeelhaar/preflight/internal/availability/domain"
	availabilityPersistence "github.com/felixgeelhaar/preflight/internal/availability/infrastructure/persistence"
	bookingDomain "github.com/felixgeelhaar/preflight/internal/booking/domain"
	bookingPersistence "github.com/felixgeelhaar/preflight/internal/booking/infrastructure/persistence"
	reschedulingDomain "github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	reschedulingPersistence "github.com/felixgeelhaar/preflight/internal/rescheduling/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/preflight/internal/shared/application"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/felixgeelhaar/preflight/internal/shared/infrastructure/persistence"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// build picks the constructor matching the driver.
func build[T any](f *RepositoryFactory, pg func(*pgxpool.Pool) T, lite func(*sql.DB) T) (T, error) {
	var zero T
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return zero, err
		}
		return pg(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return zero, err
		}
		return lite(db), nil

	default:
		return zero, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// BookingRepository creates a booking repository for the configured driver.
func (f *RepositoryFactory) BookingRepository() (bookingDomain.Repository, error) {
	return build(f,
		func(p *pgxpool.Pool) bookingDomain.Repository { return bookingPersistence.NewPostgresBookingRepository(p) },
		func(db *sql.DB) bookingDomain.Repository { return bookingPersistence.NewSQLiteBookingRepository(db) },
	)
}

// AvailabilityRepository creates an availability repository for the configured driver.
func (f *RepositoryFactory) AvailabilityRepository() (availabilityDomain.Repository, error) {
	return build(f,
		func(p *pgxpool.Pool) availabilityDomain.Repository {
			return availabilityPersistence.NewPostgresAvailabilityRepository(p)
		},
		func(db *sql.DB) availabilityDomain.Repository {
			return availabilityPersistence.NewSQLiteAvailabilityRepository(db)
		},
	)
}

// OptionRepository creates a reschedule option repository for the configured driver.
func (f *RepositoryFactory) OptionRepository() (reschedulingDomain.OptionRepository, error) {
	return build(f,
		func(p *pgxpool.Pool) reschedulingDomain.OptionRepository {
			return reschedulingPersistence.NewPostgresOptionRepository(p)
		},
		func(db *sql.DB) reschedulingDomain.OptionRepository {
			return reschedulingPersistence.NewSQLiteOptionRepository(db)
		},
	)
}

// PreferenceRepository creates a preference repository for the configured driver.
func (f *RepositoryFactory) PreferenceRepository() (reschedulingDomain.PreferenceRepository, error) {
	return build(f,
		func(p *pgxpool.Pool) reschedulingDomain.PreferenceRepository {
			return reschedulingPersistence.NewPostgresPreferenceRepository(p)
		},
		func(db *sql.DB) reschedulingDomain.PreferenceRepository {
			return reschedulingPersistence.NewSQLitePreferenceRepository(db)
		},
	)
}

// AuditRepository creates an audit log repository for the configured driver.
func (f *RepositoryFactory) AuditRepository() (reschedulingDomain.AuditRepository, error) {
	return build(f,
		func(p *pgxpool.Pool) reschedulingDomain.AuditRepository {
			return reschedulingPersistence.NewPostgresAuditRepository(p)
		},
		func(db *sql.DB) reschedulingDomain.AuditRepository {
			return reschedulingPersistence.NewSQLiteAuditRepository(db)
		},
	)
}

// OutboxRepository creates an outbox repository for the configured driver.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	return build(f,
		func(p *pgxpool.Pool) outbox.Repository { return outbox.NewPostgresRepository(p) },
		func(db *sql.DB) outbox.Repository { return outbox.NewSQLiteRepository(db) },
	)
}

// UnitOfWork creates a unit of work for the configured driver.
func (f *RepositoryFactory) UnitOfWork() (sharedApplication.UnitOfWork, error) {
	return build(f,
		func(p *pgxpool.Pool) sharedApplication.UnitOfWork { return sharedPersistence.NewPostgresUnitOfWork(p) },
		func(db *sql.DB) sharedApplication.UnitOfWork { return sharedPersistence.NewSQLiteUnitOfWork(db) },
	)
}

func (f *RepositoryFactory) getPostgresPool() (*pgxpool.Pool, error) {
	pgConn, ok := f.conn.(interface{ Pool() *pgxpool.Pool })
	if !ok {
		return nil, fmt.Errorf("postgres connection does not expose Pool()")
	}
	return pgConn.Pool(), nil
}

func (f *RepositoryFactory) getSQLiteDB() (*sql.DB, error) {
	sqliteConn, ok := f.conn.(interface{ DB() *sql.DB })
	if !ok {
		return nil, fmt.Errorf("sqlite connection does not expose DB()")
	}
	return sqliteConn.DB(), nil
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Connection returns the underlying database connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}
