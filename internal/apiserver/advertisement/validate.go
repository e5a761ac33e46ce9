package advertisement

import (
	"fmt"
	"strings"

	"skoropad-backend/internal/shared/model"
)

const (
	maxTitleLength       = 120
	maxDescriptionLength = 4000
)

// validateAdvertisement 校验广告字段，返回第一个错误
func validateAdvertisement(ad *model.Advertisement) error {
	title := strings.TrimSpace(ad.Title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if len(title) > maxTitleLength {
		return fmt.Errorf("title must be at most %d characters", maxTitleLength)
	}
	if strings.TrimSpace(ad.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if len(ad.Description) > maxDescriptionLength {
		return fmt.Errorf("description must be at most %d characters", maxDescriptionLength)
	}
	if !model.ValidCategory(ad.Category) {
		return fmt.Errorf("unknown category: %s", ad.Category)
	}
	if !model.ValidSubcategory(ad.Category, ad.Subcategory) {
		return fmt.Errorf("unknown subcategory %q in category %q", ad.Subcategory, ad.Category)
	}
	if ad.Price != nil && *ad.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if !ad.HasContact() {
		return fmt.Errorf("at least one contact (discord or telegram) is required")
	}
	if len(ad.Images) > model.MaxImagesPerAdvertisement {
		return fmt.Errorf("at most %d images are allowed", model.MaxImagesPerAdvertisement)
	}
	return nil
}

// normalizeContact 去掉首尾空白，空串归一为 nil
func normalizeContact(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
