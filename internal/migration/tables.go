package migration

import (
	"context"

	"gorm.io/gorm"

	"github.com/farmiq/farmiq/internal/models"
)

// Table names in dependency order. Later tables may reference earlier ones.
const (
	TableUsers        = "users"
	TableProfiles     = "profiles"
	TableNgoSchemes   = "ngo_schemes"
	TableSoilLab      = "soil_lab"
	TableCropHistory  = "crop_history"
	TableIotReading   = "iot_reading"
	TableIotStatus    = "iot_status"
	TableExpertsInfo  = "experts_info"
	TableFarmerForum  = "farmer_forum"
	TableForumPosts   = "forum_posts"
	TableForumReplies = "forum_replies"
)

func defaultSteps() []step {
	return []step{
		tableStep[models.User]{name: TableUsers, orderBy: "id", pk: "id", serial: true},
		tableStep[models.Profile]{name: TableProfiles, orderBy: "id", pk: "id"},
		tableStep[models.NgoScheme]{name: TableNgoSchemes, orderBy: "id", pk: "id", serial: true},
		tableStep[models.SoilLab]{name: TableSoilLab, orderBy: "id", pk: "id", serial: true},
		tableStep[models.CropHistory]{name: TableCropHistory, orderBy: "id", pk: "id", serial: true},
		tableStep[models.IotReading]{name: TableIotReading, orderBy: "id", pk: "id", serial: true},
		tableStep[models.IotStatus]{name: TableIotStatus, orderBy: "user_id", pk: "user_id"},
		tableStep[models.ExpertInfo]{name: TableExpertsInfo, orderBy: "id", pk: "id", serial: true},
		tableStep[models.FarmerForumItem]{name: TableFarmerForum, orderBy: "id", pk: "id", serial: true},
		tableStep[models.ForumPost]{
			name: TableForumPosts, orderBy: "id", pk: "id", serial: true,
			filter: postsWithUsers, reason: "user_id not found in destination users",
		},
		tableStep[models.ForumReply]{
			name: TableForumReplies, orderBy: "id", pk: "id", serial: true,
			filter: repliesWithPosts, reason: "post_id not found in destination forum_posts",
		},
	}
}

// Tables lists every migrated table in the order the pipeline copies them.
func Tables() []string {
	steps := defaultSteps()
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.table()
	}
	return names
}

func postsWithUsers(ctx context.Context, dest *gorm.DB, rows []models.ForumPost) ([]models.ForumPost, int, error) {
	users, err := idSet(ctx, dest, &models.User{})
	if err != nil {
		return nil, 0, err
	}
	kept := rows[:0:0]
	for _, row := range rows {
		if _, ok := users[row.UserID]; ok {
			kept = append(kept, row)
		}
	}
	return kept, len(rows) - len(kept), nil
}

func repliesWithPosts(ctx context.Context, dest *gorm.DB, rows []models.ForumReply) ([]models.ForumReply, int, error) {
	posts, err := idSet(ctx, dest, &models.ForumPost{})
	if err != nil {
		return nil, 0, err
	}
	kept := rows[:0:0]
	for _, row := range rows {
		if _, ok := posts[row.PostID]; ok {
			kept = append(kept, row)
		}
	}
	return kept, len(rows) - len(kept), nil
}
