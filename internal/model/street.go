package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StreetType enum constants
const (
	StreetTypeVideo = "video"
	StreetType3D    = "3d"
)

// Mode enum constants (video streets only)
const (
	ModeWalk  = "walk"
	ModeDrive = "drive"
	ModeFly   = "fly"
	ModeSit   = "sit"
)

// Status enum constants
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
)

// ValidMode reports whether mode is one of the supported viewer modes.
func ValidMode(mode string) bool {
	return mode == ModeWalk || mode == ModeDrive || mode == ModeFly || mode == ModeSit
}

// Street is a single uploaded content unit (video sequence or 3D model)
// pinned to a coordinate.
type Street struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Type        string    `gorm:"type:varchar(10);not null;index" json:"type"` // video, 3d
	Mode        string    `gorm:"type:varchar(10);index" json:"mode"`          // walk, drive, fly, sit
	Name        string    `gorm:"type:varchar(120)" json:"name"`
	City        string    `gorm:"type:varchar(120)" json:"city"`
	Country     string    `gorm:"type:varchar(120)" json:"country"`
	Description string    `gorm:"type:varchar(500)" json:"description"`
	Category    string    `gorm:"type:varchar(80);index" json:"category"`
	Lat         float64   `gorm:"not null" json:"lat"`
	Lng         float64   `gorm:"not null" json:"lng"`

	Videos       []StreetVideo `gorm:"foreignKey:StreetID;constraint:OnDelete:CASCADE" json:"videos"`
	GlbURL       string        `gorm:"type:text" json:"glb_url,omitempty"`
	ThumbnailURL string        `gorm:"type:text" json:"thumbnail_url,omitempty"`

	Likes int64 `gorm:"not null;default:0" json:"likes"`

	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner   User      `gorm:"foreignKey:OwnerID" json:"-"`

	Status string `gorm:"type:varchar(20);not null;default:published;index" json:"status"`

	// Tour curation metadata (video streets only)
	IsTour       bool   `gorm:"default:false" json:"is_tour"`
	TourCategory string `gorm:"type:varchar(80)" json:"tour_category,omitempty"`
	TourBestTime string `gorm:"type:varchar(80)" json:"tour_best_time,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// BeforeCreate assigns the UUID primary key so inserts also work on engines
// without a uuid default (the in-memory sqlite test database).
func (s *Street) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// StreetVideo is one entry of a video street's ordered clip sequence.
type StreetVideo struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StreetID uuid.UUID `gorm:"type:uuid;not null;index" json:"street_id"`
	URL      string    `gorm:"type:text;not null" json:"url"`
	Title    string    `gorm:"type:varchar(255)" json:"title"`
	Position int       `gorm:"not null" json:"position"`
}

func (v *StreetVideo) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// StreetLike records one like per (street, liker) pair. LikerKey is the user
// id for signed-in users or the opaque like-session cookie value otherwise;
// the unique index makes repeat likes no-ops.
type StreetLike struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StreetID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_street_liker" json:"street_id"`
	LikerKey  string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_street_liker" json:"liker_key"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (l *StreetLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
