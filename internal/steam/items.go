package steam

import "strings"

// Item — asset, склеенный со своим description. Для assets без
// description подставляется заглушка, чтобы счётчики не расходились.
type Item struct {
	Asset

	Name                        string            `json:"name"`
	NameColor                   string            `json:"name_color,omitempty"`
	Type                        string            `json:"type"`
	MarketName                  string            `json:"market_name"`
	MarketHashName              string            `json:"market_hash_name"`
	IconURL                     string            `json:"icon_url"`
	IconURLLarge                string            `json:"icon_url_large,omitempty"`
	Tradable                    int               `json:"tradable"`
	Marketable                  int               `json:"marketable"`
	Commodity                   int               `json:"commodity"`
	MarketTradableRestriction   int               `json:"market_tradable_restriction,omitempty"`
	MarketMarketableRestriction int               `json:"market_marketable_restriction,omitempty"`
	Descriptions                []DescriptionLine `json:"descriptions,omitempty"`
	Tags                        []Tag             `json:"tags,omitempty"`
	Actions                     []Action          `json:"actions,omitempty"`
	MarketActions               []Action          `json:"market_actions,omitempty"`
}

// Tag возвращает тег предмета по категории (Rarity, Type, ...).
func (i *Item) Tag(category string) *Tag {
	for idx := range i.Tags {
		if i.Tags[idx].Category == category {
			return &i.Tags[idx]
		}
	}
	return nil
}

// MergeDescriptions соединяет assets с descriptions по составному ключу
// (classid, instanceid). Asset без пары не выбрасывается, а получает
// заглушку "Unknown Item" — итоговое число предметов равно числу assets.
func MergeDescriptions(assets []Asset, descriptions []Description) []Item {
	type key struct{ classID, instanceID string }

	index := make(map[key]*Description, len(descriptions))
	for i := range descriptions {
		d := &descriptions[i]
		index[key{d.ClassID, d.InstanceID}] = d
	}

	items := make([]Item, 0, len(assets))
	for _, a := range assets {
		d, ok := index[key{a.ClassID, a.InstanceID}]
		if !ok {
			items = append(items, Item{
				Asset: a,
				Name:  "Unknown Item",
				Type:  "Unknown",
			})
			continue
		}

		items = append(items, Item{
			Asset:                       a,
			Name:                        d.Name,
			NameColor:                   d.NameColor,
			Type:                        d.Type,
			MarketName:                  d.MarketName,
			MarketHashName:              d.MarketHashName,
			IconURL:                     d.IconURL,
			IconURLLarge:                d.IconURLLarge,
			Tradable:                    d.Tradable,
			Marketable:                  d.Marketable,
			Commodity:                   d.Commodity,
			MarketTradableRestriction:   d.MarketTradableRestriction,
			MarketMarketableRestriction: d.MarketMarketableRestriction,
			Descriptions:                d.Descriptions,
			Tags:                        d.Tags,
			Actions:                     d.Actions,
			MarketActions:               d.MarketActions,
		})
	}

	return items
}

// Filters — клиентская фильтрация поверх уже загруженного набора.
// Композиция чистых предикатов, а не серверный запрос.
type Filters struct {
	Search     string
	Rarity     string
	Type       string
	Tradable   *bool
	Marketable *bool
}

// Match проверяет один предмет против всех активных фильтров.
func (f *Filters) Match(item *Item) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(item.Name), q) &&
			!strings.Contains(strings.ToLower(item.MarketName), q) {
			return false
		}
	}

	if f.Rarity != "" {
		tag := item.Tag("Rarity")
		if tag == nil || tag.InternalName != f.Rarity {
			return false
		}
	}

	if f.Type != "" {
		tag := item.Tag("Type")
		if tag == nil || tag.InternalName != f.Type {
			return false
		}
	}

	if f.Tradable != nil && (item.Tradable == 1) != *f.Tradable {
		return false
	}

	if f.Marketable != nil && (item.Marketable == 1) != *f.Marketable {
		return false
	}

	return true
}

// Apply возвращает предметы, прошедшие все фильтры.
func (f *Filters) Apply(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for i := range items {
		if f.Match(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}
