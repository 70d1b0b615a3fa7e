package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/ppiankov/truthguard/internal/model"
)

// KnownTrueNews is a stored known-true example
type KnownTrueNews struct {
	ID        uint      `gorm:"primaryKey"`
	Title     string    `gorm:"size:512"`
	Content   string    `gorm:"type:text;not null"`
	Source    string    `gorm:"size:255"`
	DateAdded time.Time `gorm:"autoCreateTime"`
}

func (KnownTrueNews) TableName() string { return "known_true_news" }

// KnownFalseNews is a stored known-false example
type KnownFalseNews struct {
	ID        uint      `gorm:"primaryKey"`
	Title     string    `gorm:"size:512"`
	Content   string    `gorm:"type:text;not null"`
	Source    string    `gorm:"size:255"`
	DateAdded time.Time `gorm:"autoCreateTime"`
}

func (KnownFalseNews) TableName() string { return "known_false_news" }

// CredibilitySource is a per-domain rating
type CredibilitySource struct {
	ID               uint      `gorm:"primaryKey"`
	Domain           string    `gorm:"size:255;uniqueIndex;not null"`
	CredibilityScore float64   `gorm:"not null"`
	DateUpdated      time.Time `gorm:"autoUpdateTime"`
}

func (CredibilitySource) TableName() string { return "credibility_sources" }

// UserFeedback is aggregated feedback for one piece of content
type UserFeedback struct {
	ID            uint   `gorm:"primaryKey"`
	ContentHash   string `gorm:"size:32;uniqueIndex;not null"`
	UserVerdict   string `gorm:"size:32"`
	SystemVerdict string `gorm:"size:32"`
	Confidence    float64
	FeedbackCount int       `gorm:"default:1"`
	DateAdded     time.Time `gorm:"autoCreateTime"`
}

func (UserFeedback) TableName() string { return "user_feedback" }

// GormStore is a MySQL-backed knowledge store
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// ConnectMySQL opens a gorm DB with sane defaults
func ConnectMySQL(dsn string) (*gorm.DB, error) {
	dsn = ensureParam(dsn, "parseTime", "true")
	if !strings.Contains(dsn, "charset=") {
		dsn = ensureParam(dsn, "charset", "utf8mb4")
		dsn = ensureParam(dsn, "collation", "utf8mb4_unicode_ci")
	}

	gormLogger := logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		logger.Config{SlowThreshold: time.Second, LogLevel: logger.Warn, IgnoreRecordNotFoundError: true, Colorful: false},
	)

	return gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger})
}

func ensureParam(dsn, key, val string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + val
}

// NewGormStore connects to MySQL and migrates the knowledge tables
func NewGormStore(dsn string) (*GormStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: mysql storage requires a DSN", model.ErrInvalidInput)
	}

	db, err := ConnectMySQL(dsn)
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}

	return NewGormStoreFromDB(db)
}

// NewGormStoreFromDB wraps an open gorm connection
func NewGormStoreFromDB(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&KnownTrueNews{}, &KnownFalseNews{}, &CredibilitySource{}, &UserFeedback{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Close closes the underlying connection pool
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FindExactMatch checks known-true examples before known-false ones
func (s *GormStore) FindExactMatch(ctx context.Context, text string) (model.KnowledgeMatch, error) {
	snippet := Snippet(text)
	if snippet == "" {
		return model.MatchNone, nil
	}

	for _, candidate := range []struct {
		table interface{}
		match model.KnowledgeMatch
	}{
		{&KnownTrueNews{}, model.MatchKnownTrue},
		{&KnownFalseNews{}, model.MatchKnownFalse},
	} {
		var ids []uint
		err := s.db.WithContext(ctx).Model(candidate.table).
			Where("INSTR(content, ?) > 0", snippet).
			Limit(1).
			Pluck("id", &ids).Error
		if err != nil {
			return model.MatchNone, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		if len(ids) > 0 {
			return candidate.match, nil
		}
	}

	return model.MatchNone, nil
}

// DomainCredibility returns the stored rating for domain
func (s *GormStore) DomainCredibility(ctx context.Context, domain string) (float64, bool, error) {
	if domain == "" {
		return 0, false, nil
	}

	var src CredibilitySource
	err := s.db.WithContext(ctx).Where("domain = ?", domain).First(&src).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return src.CredibilityScore, true, nil
}

// AddExample stores a labelled article
func (s *GormStore) AddExample(ctx context.Context, ex Example) error {
	if strings.TrimSpace(ex.Content) == "" {
		return fmt.Errorf("%w: example content is empty", model.ErrInvalidInput)
	}

	var row interface{}
	if ex.IsTrue {
		row = &KnownTrueNews{Title: ex.Title, Content: ex.Content, Source: ex.Source}
	} else {
		row = &KnownFalseNews{Title: ex.Title, Content: ex.Content, Source: ex.Source}
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert example: %w", err)
	}
	return nil
}

// UpsertCredibility inserts or replaces a domain rating
func (s *GormStore) UpsertCredibility(ctx context.Context, domain string, score float64) error {
	domain = NormalizeDomain(domain)
	if domain == "" {
		return fmt.Errorf("%w: empty domain", model.ErrInvalidInput)
	}
	if err := ValidateScore(score); err != nil {
		return err
	}

	row := CredibilitySource{Domain: domain, CredibilityScore: score}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "domain"}},
		DoUpdates: clause.AssignmentColumns([]string{"credibility_score", "date_updated"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert credibility: %w", err)
	}
	return nil
}

// RecordFeedback stores feedback keyed by content hash; repeats increment the count
func (s *GormStore) RecordFeedback(ctx context.Context, fb Feedback) error {
	if strings.TrimSpace(fb.Content) == "" {
		return fmt.Errorf("%w: feedback content is empty", model.ErrInvalidInput)
	}

	row := UserFeedback{
		ContentHash:   ContentHash(fb.Content),
		UserVerdict:   fb.UserVerdict,
		SystemVerdict: fb.SystemVerdict,
		Confidence:    fb.Confidence,
		FeedbackCount: 1,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "content_hash"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"feedback_count": gorm.Expr("feedback_count + 1"),
			"user_verdict":   fb.UserVerdict,
			"system_verdict": fb.SystemVerdict,
			"confidence":     fb.Confidence,
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}
	return nil
}

// FeedbackCount returns how many times feedback was given for content
func (s *GormStore) FeedbackCount(ctx context.Context, content string) (int, error) {
	var row UserFeedback
	err := s.db.WithContext(ctx).Where("content_hash = ?", ContentHash(content)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query feedback: %w", err)
	}
	return row.FeedbackCount, nil
}

// Stats counts rows in every knowledge table
func (s *GormStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)
	for _, q := range []struct {
		model interface{}
		dst   *int64
	}{
		{&KnownTrueNews{}, &st.KnownTrue},
		{&KnownFalseNews{}, &st.KnownFalse},
		{&CredibilitySource{}, &st.Domains},
		{&UserFeedback{}, &st.Feedback},
	} {
		if err := db.Model(q.model).Count(q.dst).Error; err != nil {
			return Stats{}, fmt.Errorf("count: %w", err)
		}
	}
	return st, nil
}
