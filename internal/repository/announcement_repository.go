package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/pkg/docstore"
)

type announcementDocument struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// AnnouncementRepository persists announcements.
type AnnouncementRepository struct {
	store docstore.Store
}

// NewAnnouncementRepository constructs the repository.
func NewAnnouncementRepository(store docstore.Store) *AnnouncementRepository {
	return &AnnouncementRepository{store: store}
}

// Create stores an announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	fields, err := docstore.Encode(announcementDocument{Title: a.Title, Description: a.Description, Date: a.Date})
	if err != nil {
		return err
	}
	doc, err := r.store.Create(ctx, CollectionAnnouncements, fields)
	if err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	a.ID, a.CreatedAt = doc.ID, doc.CreatedAt
	return nil
}

// List returns announcements by date, newest first.
func (r *AnnouncementRepository) List(ctx context.Context) ([]models.Announcement, error) {
	docs, err := r.store.Query(ctx, CollectionAnnouncements, docstore.Query{OrderBy: "date", Direction: docstore.Desc})
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	items := make([]models.Announcement, 0, len(docs))
	for _, doc := range docs {
		var body announcementDocument
		if err := doc.Decode(&body); err != nil {
			return nil, err
		}
		items = append(items, models.Announcement{
			ID:          doc.ID,
			Title:       body.Title,
			Description: body.Description,
			Date:        body.Date,
			CreatedAt:   doc.CreatedAt,
		})
	}
	return items, nil
}

// Delete removes an announcement.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, CollectionAnnouncements, id); err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return nil
}
