package resolver

import (
	"fmt"

	"github.com/gronxb/hot-updater-sub000/models"
)

// FilterCandidates возвращает бандлы каталога, подходящие запросу.
// Бандл подходит, если совпадают платформа и канал, он включен, поле выбранной
// стратегии не пустое и совместимо, а id не меньше minBundleId.
// Входной срез не изменяется.
func FilterCandidates(bundles []models.Bundle, req Request) []models.Bundle {
	if req == nil {
		panic("resolver: nil request")
	}
	c := req.common()
	match := strategyMatcher(req)

	out := make([]models.Bundle, 0, len(bundles))
	for i := range bundles {
		b := &bundles[i]
		if b.Platform != c.Platform || b.Channel != c.Channel || !b.Enabled {
			continue
		}
		if b.ID.Less(c.MinBundleID) {
			continue
		}
		if !match(b) {
			continue
		}
		out = append(out, *b)
	}
	return out
}

// strategyMatcher возвращает проверку совместимости бандла для конкретной формы запроса.
func strategyMatcher(req Request) func(*models.Bundle) bool {
	switch r := req.(type) {
	case AppVersionRequest:
		vm := newVersionMatcher(r.AppVersion)
		return func(b *models.Bundle) bool {
			return b.TargetAppVersion != nil && vm.match(*b.TargetAppVersion)
		}
	case FingerprintRequest:
		return func(b *models.Bundle) bool {
			return b.FingerprintHash != nil && *b.FingerprintHash == r.FingerprintHash
		}
	default:
		panic(fmt.Sprintf("resolver: неизвестный тип запроса %T", req))
	}
}
