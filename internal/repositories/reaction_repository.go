package repositories

import (
	"errors"
	"fmt"

	"github.com/greenloop/ecopost/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStatsConflict is returned when a conditional counter update loses to a
// concurrent writer. Callers re-read the row and retry.
var ErrStatsConflict = errors.New("reaction stats modified concurrently")

// ReactionRepository defines the interface for reaction stats and per-user
// reaction data operations
type ReactionRepository interface {
	GetStats(postID string) (*models.ReactionStats, error)
	CreateStats(postID string) error
	UpdateStatsField(postID string, t models.ReactionType, oldValue, newValue int) error
	GetUserReaction(userID uint, postID string) (*models.UserPostReaction, error)
	UpsertUserReaction(reaction *models.UserPostReaction) error
	ListUserReactions(userID uint) ([]models.UserPostReaction, error)
}

// PostgresReactionRepository implements ReactionRepository for PostgreSQL
type PostgresReactionRepository struct {
	db *gorm.DB
}

// NewPostgresReactionRepository creates a new PostgresReactionRepository
func NewPostgresReactionRepository(db *gorm.DB) *PostgresReactionRepository {
	return &PostgresReactionRepository{db: db}
}

// statsColumn maps a reaction type to its counter column
func statsColumn(t models.ReactionType) (string, error) {
	switch t {
	case models.ReactionLeaf:
		return "leafs", nil
	case models.ReactionGoing:
		return "goings", nil
	case models.ReactionRecycle:
		return "recycles", nil
	}
	return "", fmt.Errorf("unknown reaction type: %s", t)
}

// GetStats retrieves the aggregate counters for a post. A missing row is not
// an error and yields all-zero counts.
func (r *PostgresReactionRepository) GetStats(postID string) (*models.ReactionStats, error) {
	var stats models.ReactionStats
	err := r.db.Where("post_id = ?", postID).First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.ReactionStats{PostID: postID}, nil
		}
		return nil, err
	}
	return &stats, nil
}

// CreateStats inserts the zeroed aggregate row for a newly created post
func (r *PostgresReactionRepository) CreateStats(postID string) error {
	return r.db.Create(&models.ReactionStats{PostID: postID}).Error
}

// UpdateStatsField writes newValue to one counter column, conditioned on the
// stored value still being oldValue. Returns ErrStatsConflict when the row
// moved underneath the caller; creates the row if it does not exist yet.
func (r *PostgresReactionRepository) UpdateStatsField(postID string, t models.ReactionType, oldValue, newValue int) error {
	col, err := statsColumn(t)
	if err != nil {
		return err
	}

	res := r.db.Model(&models.ReactionStats{}).
		Where("post_id = ? AND "+col+" = ?", postID, oldValue).
		Update(col, newValue)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// Either the counter moved or the row never existed. Posts created
	// before stats rows were introduced fall into the second bucket.
	var count int64
	if err := r.db.Model(&models.ReactionStats{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrStatsConflict
	}

	var counts models.ReactionCounts
	counts.Set(t, newValue)
	stats := models.ReactionStats{
		PostID:   postID,
		Leafs:    counts.Leafs,
		Goings:   counts.Goings,
		Recycles: counts.Recycles,
	}
	return r.db.Create(&stats).Error
}

// GetUserReaction retrieves one user's reaction row for a post. A missing
// row returns (nil, nil): the user has never reacted.
func (r *PostgresReactionRepository) GetUserReaction(userID uint, postID string) (*models.UserPostReaction, error) {
	var reaction models.UserPostReaction
	err := r.db.Where("user_id = ? AND post_id = ?", userID, postID).First(&reaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reaction, nil
}

// UpsertUserReaction creates or replaces the reaction row keyed on
// (user_id, post_id). Rows are never deleted; cleared flags are stored as 0.
func (r *PostgresReactionRepository) UpsertUserReaction(reaction *models.UserPostReaction) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"leafs", "goings", "recycles", "updated_at"}),
	}).Create(reaction).Error
}

// ListUserReactions retrieves every reaction row belonging to a user
func (r *PostgresReactionRepository) ListUserReactions(userID uint) ([]models.UserPostReaction, error) {
	var reactions []models.UserPostReaction
	if err := r.db.Where("user_id = ?", userID).Find(&reactions).Error; err != nil {
		return nil, err
	}
	return reactions, nil
}
