package model

// Category 广告分类及其固定子分类集合
type Category struct {
	Slug          string   `json:"slug"`
	Subcategories []string `json:"subcategories"`
}

// Categories 固定分类目录。Slug 与路由、存储行中的值一致，
// 不可在本代码库中重新协商。
var Categories = []Category{
	{Slug: "automobiles", Subcategories: []string{"sale", "trucks", "vinyls", "parts", "numbers", "car-rental", "truck-rental"}},
	{Slug: "clothing", Subcategories: []string{"sale", "accessories", "backpacks"}},
	{Slug: "real-estate", Subcategories: []string{"business", "apartments", "houses", "greenhouses"}},
	{Slug: "other", Subcategories: []string{"misc"}},
}

// ValidCategory 分类是否存在
func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c.Slug == category {
			return true
		}
	}
	return false
}

// ValidSubcategory 子分类是否属于指定分类
func ValidSubcategory(category, subcategory string) bool {
	for _, c := range Categories {
		if c.Slug != category {
			continue
		}
		for _, s := range c.Subcategories {
			if s == subcategory {
				return true
			}
		}
	}
	return false
}
