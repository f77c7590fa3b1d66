package schemes

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/farmiq/farmiq/internal/models"
	appErrors "github.com/farmiq/farmiq/pkg/errors"
)

// matchAll marks a scheme restriction that applies to every state or category.
const matchAll = "ALL"

var (
	// ErrSchemeNotFound is returned when a scheme id does not exist.
	ErrSchemeNotFound = appErrors.New("SCHEME_NOT_FOUND", "NGO scheme not found", http.StatusNotFound)
	// ErrNoCriteria is returned when an eligibility query carries no filter at all.
	ErrNoCriteria = appErrors.NewBadRequest("At least one filter criteria (state, land, category, or age) is required")
)

// Criteria narrows schemes to those a farmer is eligible for. Empty strings and nil pointers
// leave that dimension unrestricted.
type Criteria struct {
	State    string
	Land     *float64
	Category string
	Age      *int
}

// Empty reports whether no criterion is set.
func (c Criteria) Empty() bool {
	return strings.TrimSpace(c.State) == "" && c.Land == nil && strings.TrimSpace(c.Category) == "" && c.Age == nil
}

// Service reads NGO and government schemes.
type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewService constructs a scheme Service.
func NewService(db *gorm.DB, log *zap.Logger) (*Service, error) {
	if db == nil {
		return nil, errors.New("schemes: database is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, log: log}, nil
}

// List returns every scheme, newest first.
func (s *Service) List(ctx context.Context) ([]models.NgoScheme, error) {
	var schemes []models.NgoScheme
	if err := s.newest(s.db.WithContext(ctx)).Find(&schemes).Error; err != nil {
		return nil, appErrors.Wrap(err, "Internal server error")
	}
	return schemes, nil
}

// Get returns a single scheme by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.NgoScheme, error) {
	var scheme models.NgoScheme
	err := s.db.WithContext(ctx).First(&scheme, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSchemeNotFound
	}
	if err != nil {
		return nil, appErrors.Wrap(err, "Internal server error")
	}
	return &scheme, nil
}

// Eligible returns schemes whose restrictions admit every supplied criterion, newest first.
// A NULL bound or a restriction of "ALL" admits any value.
func (s *Service) Eligible(ctx context.Context, c Criteria) ([]models.NgoScheme, error) {
	if c.Empty() {
		return nil, ErrNoCriteria
	}

	query := s.db.WithContext(ctx).Model(&models.NgoScheme{})

	if state := strings.TrimSpace(c.State); state != "" {
		query = query.Where("required_state IS NULL OR required_state = ? OR required_state = ?", matchAll, state)
	}
	if c.Land != nil {
		query = query.
			Where("min_land IS NULL OR min_land <= ?", *c.Land).
			Where("max_land IS NULL OR max_land >= ?", *c.Land)
	}
	if category := strings.TrimSpace(c.Category); category != "" {
		query = query.Where("required_category IS NULL OR required_category = ? OR required_category = ?", matchAll, category)
	}
	if c.Age != nil {
		query = query.
			Where("age_min IS NULL OR age_min <= ?", *c.Age).
			Where("age_max IS NULL OR age_max >= ?", *c.Age)
	}

	var schemes []models.NgoScheme
	if err := s.newest(query).Find(&schemes).Error; err != nil {
		return nil, appErrors.Wrap(err, "Internal server error")
	}

	s.log.Info("eligible schemes resolved",
		zap.String("state", c.State),
		zap.String("category", c.Category),
		zap.Bool("land", c.Land != nil),
		zap.Bool("age", c.Age != nil),
		zap.Int("count", len(schemes)),
	)
	return schemes, nil
}

func (s *Service) newest(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}
