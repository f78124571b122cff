package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-portlock/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrSwitchNotFound is returned when no switch row matches the lookup.
var ErrSwitchNotFound = errors.New("switch not found")

// PersistenceError wraps a failed write to the port table.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type Store struct {
	DB *gorm.DB
}

// Open connects to the sqlite database at path, migrates the schema and
// bounds the connection pool to maxConns.
func Open(path string, maxConns int) (*Store, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_journal_mode=WAL"
	}
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns)
	}

	if err := gdb.AutoMigrate(&models.Switch{}, &models.Port{}, &models.ScheduledRevert{}); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return &Store{DB: gdb}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) ListSwitches() ([]models.Switch, error) {
	var switches []models.Switch
	if err := s.DB.Order("id asc").Find(&switches).Error; err != nil {
		return nil, fmt.Errorf("list switches: %w", err)
	}
	return switches, nil
}

func (s *Store) SwitchByID(id uint) (*models.Switch, error) {
	return s.findSwitch("id = ?", id)
}

func (s *Store) SwitchByIP(ip string) (*models.Switch, error) {
	return s.findSwitch("ipv4 = ?", ip)
}

func (s *Store) findSwitch(query string, arg any) (*models.Switch, error) {
	var sw models.Switch
	err := s.DB.Where(query, arg).First(&sw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrSwitchNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("find switch %v: %w", arg, err)
	}
	return &sw, nil
}

// CreateSwitch provisions a switch row.
func (s *Store) CreateSwitch(sw *models.Switch) error {
	if err := s.DB.Create(sw).Error; err != nil {
		return fmt.Errorf("create switch %s: %w", sw.IPv4, err)
	}
	return nil
}

// UpsertPort inserts the port or, on a (switch_id, number) conflict,
// overwrites status and host fields. Lockable is only set on insert.
func (s *Store) UpsertPort(p *models.Port) error {
	p.Lockable = true
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "switch_id"}, {Name: "number"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "host_mac", "host_ip", "host_name", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		return &PersistenceError{Op: fmt.Sprintf("upsert port %d/%d", p.SwitchID, p.Number), Err: err}
	}
	return nil
}

func (s *Store) ListPorts(switchID uint) ([]models.Port, error) {
	var ports []models.Port
	err := s.DB.Where("switch_id = ?", switchID).Order("number asc").Find(&ports).Error
	if err != nil {
		return nil, fmt.Errorf("list ports of switch %d: %w", switchID, err)
	}
	return ports, nil
}

// GetPort returns the persisted row or gorm.ErrRecordNotFound.
func (s *Store) GetPort(switchID uint, number int) (*models.Port, error) {
	var p models.Port
	if err := s.DB.Where("switch_id = ? AND number = ?", switchID, number).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ---------- SCHEDULED REVERTS ----------

// RevertJob returns the at job id recorded for the interface, if any.
func (s *Store) RevertJob(switchIP string, ifIndex int) (string, bool, error) {
	var r models.ScheduledRevert
	err := s.DB.Where("switch_ip = ? AND if_index = ?", switchIP, ifIndex).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find revert job %s:%d: %w", switchIP, ifIndex, err)
	}
	return r.JobID, true, nil
}

// SaveRevertJob records jobID for the interface, replacing any earlier one.
func (s *Store) SaveRevertJob(switchIP string, ifIndex int, jobID string, fireAt time.Time) error {
	r := models.ScheduledRevert{SwitchIP: switchIP, IfIndex: ifIndex, JobID: jobID, FireAt: fireAt}
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "switch_ip"}, {Name: "if_index"}},
		DoUpdates: clause.AssignmentColumns([]string{"job_id", "fire_at"}),
	}).Create(&r).Error
	if err != nil {
		return &PersistenceError{Op: fmt.Sprintf("save revert job %s:%d", switchIP, ifIndex), Err: err}
	}
	return nil
}

func (s *Store) DeleteRevertJob(switchIP string, ifIndex int) error {
	err := s.DB.Where("switch_ip = ? AND if_index = ?", switchIP, ifIndex).Delete(&models.ScheduledRevert{}).Error
	if err != nil {
		return &PersistenceError{Op: fmt.Sprintf("delete revert job %s:%d", switchIP, ifIndex), Err: err}
	}
	return nil
}
