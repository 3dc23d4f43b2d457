package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/placementcell/eligibility/internal/domain/model"
	"github.com/placementcell/eligibility/internal/domain/requirement"
	"github.com/placementcell/eligibility/internal/domain/submission"
	"github.com/placementcell/eligibility/pkg/logger"
	"github.com/placementcell/eligibility/pkg/metrics"
)

// GormStore persists everything in MySQL through gorm.
type GormStore struct {
	db  *gorm.DB
	log logger.Logger
}

var _ Store = (*GormStore)(nil)

// OpenMySQL connects to dsn, configures the pool and migrates the schema.
func OpenMySQL(ctx context.Context, dsn string, opts ...Option) (*GormStore, error) {
	const op = "repository.open_mysql"
	s := defaultSettings(opts)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormlogger.Default.LogMode(gormLogLevel(s.logLevel)),
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, model.WrapKind(op, model.ErrStorage, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, model.WrapKind(op, model.ErrStorage, err)
	}
	sqlDB.SetMaxOpenConns(s.maxOpenConns)
	sqlDB.SetMaxIdleConns(s.maxIdleConns)
	sqlDB.SetConnMaxLifetime(s.connMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, model.WrapKind(op, model.ErrStorage, err)
	}

	store, err := newGormStore(ctx, db, databaseName(dsn), s)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return store, nil
}

// NewGormStore wraps an already opened gorm handle.
func NewGormStore(ctx context.Context, db *gorm.DB, opts ...Option) (*GormStore, error) {
	return newGormStore(ctx, db, db.Migrator().CurrentDatabase(), defaultSettings(opts))
}

func defaultSettings(opts []Option) gormSettings {
	s := gormSettings{
		maxOpenConns:    defaultMaxOpenConns,
		maxIdleConns:    defaultMaxIdleConns,
		connMaxLifetime: defaultConnMaxLifetime,
		logLevel:        "warn",
		tracing:         true,
		autoMigrate:     true,
		log:             logger.Get().Named("repository"),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func newGormStore(ctx context.Context, db *gorm.DB, dbName string, s gormSettings) (*GormStore, error) {
	const op = "repository.new_gorm_store"

	if s.tracing {
		if err := db.Use(newTracingPlugin(dbName)); err != nil {
			return nil, model.WrapKind(op, model.ErrStorage, err)
		}
	}
	if s.autoMigrate {
		if err := db.WithContext(ctx).AutoMigrate(allModels()...); err != nil {
			return nil, model.WrapKind(op, model.ErrStorage, err)
		}
	}
	s.log.Info(ctx, "mysql store ready", logger.String("database", dbName))
	return &GormStore{db: db, log: s.log}, nil
}

// WithinTx runs fn inside a database transaction.
func (s *GormStore) WithinTx(ctx context.Context, fn func(tx submission.Tx) error) error {
	defer observe("transaction", time.Now())
	err := retryDeadlocks(ctx, maxTxAttempts, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&gormTx{db: tx})
		})
	})
	return storageErr("repository.gorm.within_tx", err)
}

// maxTxAttempts bounds how often a transaction chosen as deadlock victim is rerun.
const maxTxAttempts = 3

// retryDeadlocks reruns run while it fails with an InnoDB deadlock. A rerun
// sees rows committed by the winner, so a lost race on the unique
// (student, job) pair ends as a Conflict instead of a storage failure.
func retryDeadlocks(ctx context.Context, attempts int, run func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = run(); err == nil || !isDeadlock(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		metrics.RecordErrorByComponent("repository", "deadlock_retry")
	}
	return err
}

const mysqlErrDeadlock = 1213

func isDeadlock(err error) bool {
	var myErr *mysqldriver.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlErrDeadlock
}

// ListPendingDecisions returns pending or never-evaluated applications.
func (s *GormStore) ListPendingDecisions(ctx context.Context) ([]model.Application, error) {
	defer observe("list_pending", time.Now())

	var rows []applicationRow
	err := s.db.WithContext(ctx).
		Where("status = ? OR status = '' OR evaluated_at IS NULL", string(model.StatusPending)).
		Order("submitted_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storageErr("repository.gorm.list_pending", err)
	}
	out := make([]model.Application, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// GetRequirement returns the requirement of an existing job, or nil.
func (s *GormStore) GetRequirement(ctx context.Context, jobID string) (*requirement.Requirement, error) {
	const op = "repository.gorm.get_requirement"
	defer observe("get_requirement", time.Now())

	db := s.db.WithContext(ctx)
	if err := jobExists(db, op, jobID); err != nil {
		return nil, err
	}
	r, err := (&gormTx{db: db}).Requirement(ctx, jobID)
	return r, storageErr(op, err)
}

// SaveRequirement upserts the job's requirement.
func (s *GormStore) SaveRequirement(ctx context.Context, r *requirement.Requirement) error {
	const op = "repository.gorm.save_requirement"
	defer observe("save_requirement", time.Now())

	row, err := toRequirementRow(r)
	if err != nil {
		return model.WrapKind(op, model.ErrValidation, err)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := jobExists(tx, op, r.JobID); err != nil {
			return err
		}
		return storageErr(op, upsertRequirement(tx, row))
	})
}

func upsertRequirement(db *gorm.DB, row requirementRow) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "job_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"min_tenth_pct", "min_twelfth_pct", "min_ug_cgpa", "min_pg_cgpa",
			"min_experience_years", "allowed_branches", "max_backlogs",
			"skills", "notes", "updated_at",
		}),
	}).Create(&row).Error
}

// Seed upserts fixtures in one transaction.
func (s *GormStore) Seed(ctx context.Context, f Fixtures) error {
	const op = "repository.gorm.seed"
	reqs, err := f.requirements()
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := tx.Clauses(clause.OnConflict{UpdateAll: true}).Session(&gorm.Session{})
		for _, st := range f.Students {
			row := studentRow{ID: st.ID, Name: st.Name, Branch: st.Branch}
			if err := upsert.Create(&row).Error; err != nil {
				return err
			}
		}
		for _, a := range f.Academics {
			row := academicRow{StudentID: a.StudentID, TenthPct: a.TenthPct, TwelfthPct: a.TwelfthPct, UGCGPA: a.UGCGPA, PGCGPA: a.PGCGPA}
			if err := upsert.Create(&row).Error; err != nil {
				return err
			}
		}
		replaced := make(map[string]bool)
		for _, in := range f.Internships {
			if !replaced[in.StudentID] {
				if err := tx.Where("student_id = ?", in.StudentID).Delete(&internshipRow{}).Error; err != nil {
					return err
				}
				replaced[in.StudentID] = true
			}
			row := internshipRow{StudentID: in.StudentID, Company: in.Company, Duration: in.Duration}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		for _, j := range f.Jobs {
			row := jobRow{ID: j.ID, CompanyID: j.CompanyID, Title: j.Title, ApplicationDeadline: j.ApplicationDeadline}
			if err := upsert.Create(&row).Error; err != nil {
				return err
			}
		}
		for _, r := range reqs {
			row, err := toRequirementRow(r)
			if err != nil {
				return err
			}
			if err := upsertRequirement(tx, row); err != nil {
				return err
			}
		}
		for _, app := range f.applications(time.Now()) {
			row := toApplicationRow(&app)
			if err := tx.Create(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return model.NewKind(op, model.ErrConflict, submission.DuplicateMessage)
				}
				return err
			}
		}
		return nil
	})
	return storageErr(op, err)
}

// DeleteStudent removes a student, its academics and its internships.
func (s *GormStore) DeleteStudent(ctx context.Context, studentID string) error {
	const op = "repository.gorm.delete_student"
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", studentID).Delete(&internshipRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", studentID).Delete(&academicRow{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", studentID).Delete(&studentRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.NewKind(op, model.ErrNotFound, "Student not found")
		}
		return nil
	})
	return storageErr(op, err)
}

// Stats counts rows per table and applications per status.
func (s *GormStore) Stats(ctx context.Context) (Stats, error) {
	const op = "repository.gorm.stats"
	db := s.db.WithContext(ctx)

	var students, jobs, reqs, apps int64
	for _, c := range []struct {
		model any
		dst   *int64
	}{
		{&studentRow{}, &students},
		{&jobRow{}, &jobs},
		{&requirementRow{}, &reqs},
		{&applicationRow{}, &apps},
	} {
		if err := db.Model(c.model).Count(c.dst).Error; err != nil {
			return Stats{}, storageErr(op, err)
		}
	}

	var groups []struct {
		Status string
		N      int
	}
	if err := db.Model(&applicationRow{}).Select("status, COUNT(*) AS n").Group("status").Scan(&groups).Error; err != nil {
		return Stats{}, storageErr(op, err)
	}
	byStatus := make(map[string]int, len(groups))
	for _, g := range groups {
		byStatus[g.Status] = g.N
	}
	return Stats{
		Students:     int(students),
		Jobs:         int(jobs),
		Requirements: int(reqs),
		Applications: int(apps),
		ByStatus:     byStatus,
	}, nil
}

// Ping checks the database connection.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storageErr("gormstore.ping", err)
	}
	return storageErr("gormstore.ping", sqlDB.PingContext(ctx))
}

// Close closes the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormTx implements submission.Tx on a transaction handle.
type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) Student(ctx context.Context, studentID string) (*model.Student, error) {
	var row studentRow
	if found, err := first(t.db.WithContext(ctx).Where("id = ?", studentID), &row); !found || err != nil {
		return nil, err
	}
	return &model.Student{ID: row.ID, Name: row.Name, Branch: row.Branch}, nil
}

func (t *gormTx) Academics(ctx context.Context, studentID string) (*model.Academics, error) {
	var row academicRow
	if found, err := first(t.db.WithContext(ctx).Where("student_id = ?", studentID), &row); !found || err != nil {
		return nil, err
	}
	return &model.Academics{
		StudentID:  row.StudentID,
		TenthPct:   row.TenthPct,
		TwelfthPct: row.TwelfthPct,
		UGCGPA:     row.UGCGPA,
		PGCGPA:     row.PGCGPA,
	}, nil
}

func (t *gormTx) Internships(ctx context.Context, studentID string) ([]model.Internship, error) {
	var rows []internshipRow
	if err := t.db.WithContext(ctx).Where("student_id = ?", studentID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Internship, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.Internship{StudentID: row.StudentID, Company: row.Company, Duration: row.Duration})
	}
	return out, nil
}

func (t *gormTx) Job(ctx context.Context, jobID string) (*model.Job, error) {
	var row jobRow
	if found, err := first(t.db.WithContext(ctx).Where("id = ?", jobID), &row); !found || err != nil {
		return nil, err
	}
	return &model.Job{ID: row.ID, CompanyID: row.CompanyID, Title: row.Title, ApplicationDeadline: row.ApplicationDeadline}, nil
}

func (t *gormTx) Requirement(ctx context.Context, jobID string) (*requirement.Requirement, error) {
	var row requirementRow
	if found, err := first(t.db.WithContext(ctx).Where("job_id = ?", jobID), &row); !found || err != nil {
		return nil, err
	}
	return row.toDomain()
}

// FindApplication is a plain read. A locking read on an absent key would take
// an InnoDB gap lock that two racing submitters both acquire, deadlocking
// their inserts; the uk_applications_student_job index decides the race.
func (t *gormTx) FindApplication(ctx context.Context, studentID, jobID string) (*model.Application, error) {
	var row applicationRow
	q := t.db.WithContext(ctx).
		Where("student_id = ? AND job_id = ?", studentID, jobID)
	if found, err := first(q, &row); !found || err != nil {
		return nil, err
	}
	app := row.toDomain()
	return &app, nil
}

func (t *gormTx) InsertApplication(ctx context.Context, app *model.Application) error {
	const op = "repository.gorm.insert_application"
	defer observe("insert_application", time.Now())

	row := toApplicationRow(app)
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.NewKind(op, model.ErrConflict, submission.DuplicateMessage)
		}
		return err
	}
	return nil
}

func (t *gormTx) UpdateDecision(ctx context.Context, app *model.Application) error {
	const op = "repository.gorm.update_decision"
	defer observe("update_decision", time.Now())

	db := t.db.WithContext(ctx)
	var existing applicationRow
	found, err := first(db.Select("id").Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", app.ID), &existing)
	if err != nil {
		return err
	}
	if !found {
		return model.NewKind(op, model.ErrNotFound, "Application not found")
	}

	return db.Model(&applicationRow{}).Where("id = ?", app.ID).Updates(map[string]any{
		"tenth_meets":      app.TenthMeets,
		"twelfth_meets":    app.TwelfthMeets,
		"ug_cgpa_meets":    app.UGCGPAMeets,
		"pg_cgpa_meets":    app.PGCGPAMeets,
		"experience_meets": app.ExperienceMeets,
		"branch_meets":     app.BranchMeets,
		"status":           string(app.Status),
		"comments":         app.Comments,
		"evaluated_at":     app.EvaluatedAt,
	}).Error
}

// first loads one row; a missing row is (false, nil).
func first(q *gorm.DB, dst any) (bool, error) {
	err := q.Take(dst).Error
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	default:
		return false, err
	}
}

func jobExists(db *gorm.DB, op, jobID string) error {
	var row jobRow
	found, err := first(db.Select("id").Where("id = ?", jobID), &row)
	if err != nil {
		return storageErr(op, err)
	}
	if !found {
		return model.NewKind(op, model.ErrNotFound, "Job not found")
	}
	return nil
}

func observe(operation string, start time.Time) {
	metrics.RecordRepositoryQueryLatency(operation, float64(time.Since(start).Microseconds())/1000)
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// databaseName extracts the schema name from a go-sql-driver DSN.
func databaseName(dsn string) string {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return ""
	}
	return cfg.DBName
}
