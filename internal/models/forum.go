package models

// FarmerForumItem is a curated question answered by an expert.
type FarmerForumItem struct {
	ID                  int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id" validate:"required,gt=0"`
	Question            string    `gorm:"column:question;not null" json:"question" validate:"required"`
	HighlightedKeywords *string   `gorm:"column:highlighted_keywords" json:"highlighted_keywords"`
	Community           string    `gorm:"column:community;not null" json:"community" validate:"required"`
	Answer              string    `gorm:"column:answer;not null" json:"answer" validate:"required"`
	ExpertName          string    `gorm:"column:expert_name;not null" json:"expert_name" validate:"required"`
	ExpertRole          string    `gorm:"column:expert_role;not null" json:"expert_role" validate:"required"`
	Upvotes             *int      `gorm:"column:upvotes" json:"upvotes"`
	Replies             *int      `gorm:"column:replies" json:"replies"`
	CreatedAt           Timestamp `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
}

// TableName pins the legacy table name.
func (FarmerForumItem) TableName() string { return "farmer_forum" }

// ForumPost is a user-authored forum question. UserID must resolve to a users row.
type ForumPost struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id" validate:"required,gt=0"`
	UserID            int64     `gorm:"column:user_id;not null;index" json:"user_id" validate:"required,gt=0"`
	Category          string    `gorm:"column:category;not null" json:"category" validate:"required"`
	Question          string    `gorm:"column:question;not null" json:"question" validate:"required"`
	Community         *string   `gorm:"column:community" json:"community"`
	Status            *string   `gorm:"column:status" json:"status"`
	ExtractedKeywords *string   `gorm:"column:extracted_keywords" json:"extracted_keywords"`
	Upvotes           *int      `gorm:"column:upvotes" json:"upvotes"`
	ReplyCount        *int      `gorm:"column:reply_count" json:"reply_count"`
	CreatedAt         Timestamp `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
}

// TableName pins the legacy table name.
func (ForumPost) TableName() string { return "forum_posts" }

// ForumReply answers a forum post. PostID must resolve to a forum_posts row.
type ForumReply struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id" validate:"required,gt=0"`
	PostID    int64     `gorm:"column:post_id;not null;index" json:"post_id" validate:"required,gt=0"`
	ReplyText string    `gorm:"column:reply_text;not null" json:"reply_text" validate:"required"`
	RepliedBy string    `gorm:"column:replied_by;not null" json:"replied_by" validate:"required"`
	Upvotes   *int      `gorm:"column:upvotes" json:"upvotes"`
	CreatedAt Timestamp `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
}

// TableName pins the legacy table name.
func (ForumReply) TableName() string { return "forum_replies" }
