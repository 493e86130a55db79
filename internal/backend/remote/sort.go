package remote

import (
	"sort"
	"strings"

	"zotero-bridge/internal/model"
)

// sortItems orders items the way the API orders a sorted page.
func sortItems(items []model.Item, key, direction string) {
	key, direction = model.NormalizeSort(key, direction)
	value := func(it model.Item) string {
		switch key {
		case model.SortDateAdded:
			return it.DateAdded
		case model.SortTitle:
			return strings.ToLower(it.Title)
		case model.SortCreator:
			if len(it.Creators) == 0 {
				return ""
			}
			return strings.ToLower(model.CreatorSurname(it.Creators[0]))
		case model.SortItemType:
			return it.ItemType
		case model.SortDate:
			return sortableDate(it.Date)
		default:
			return it.DateModified
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := value(items[i]), value(items[j])
		if a == b {
			if direction == "asc" {
				return items[i].Key < items[j].Key
			}
			return items[i].Key > items[j].Key
		}
		if direction == "asc" {
			return a < b
		}
		return a > b
	})
}

// sortableDate puts the year first so free-form dates compare chronologically.
func sortableDate(date string) string {
	if t, ok := model.ParseTime(date); ok {
		return t.Format("2006-01-02")
	}
	if year := model.Year(date); year != "" {
		return year
	}
	return ""
}
