// Package resolver принимает решение об обновлении клиента:
// ничего не делать, обновиться до бандла или откатиться.
//
// Пакет не выполняет ввод-вывод и не хранит состояния, поэтому функции
// можно вызывать из любого числа горутин без синхронизации. Каталог,
// переданный в Resolve, только читается.
package resolver

import "github.com/gronxb/hot-updater-sub000/models"

// Status - итог разрешения.
type Status int

// Возможные итоги.
const (
	StatusNone Status = iota
	StatusUpdate
	StatusRollback
)

func (s Status) String() string {
	switch s {
	case StatusUpdate:
		return string(models.StatusUpdate)
	case StatusRollback:
		return string(models.StatusRollback)
	default:
		return "NONE"
	}
}

// Decision - решение для одного запроса.
// Для StatusRollback Bundle == nil означает откат на встроенный в приложение код.
type Decision struct {
	Status Status
	Bundle *models.Bundle
}

// IsInitialRollback сообщает, что клиенту нужно вернуться к встроенному бандлу.
func (d Decision) IsInitialRollback() bool {
	return d.Status == StatusRollback && d.Bundle == nil
}

// UpdateInfo формирует ответ клиенту. Для StatusNone возвращает nil.
func (d Decision) UpdateInfo() *models.UpdateInfo {
	switch d.Status {
	case StatusUpdate:
		return bundleInfo(d.Bundle, models.StatusUpdate, d.Bundle.ShouldForceUpdate)
	case StatusRollback:
		if d.Bundle == nil {
			return &models.UpdateInfo{
				ID:                models.NilBundleID,
				ShouldForceUpdate: true,
				Status:            models.StatusRollback,
			}
		}
		// При откате перезагрузка обязательна независимо от флага бандла.
		return bundleInfo(d.Bundle, models.StatusRollback, true)
	default:
		return nil
	}
}

func bundleInfo(b *models.Bundle, status models.UpdateStatus, force bool) *models.UpdateInfo {
	uri := b.StorageURI
	info := &models.UpdateInfo{
		ID:                b.ID,
		Message:           b.Message,
		ShouldForceUpdate: force,
		Status:            status,
		StorageURI:        &uri,
		Signature:         b.Signature,
	}
	if b.FileHash != "" {
		hash := b.FileHash
		info.FileHash = &hash
	}
	return info
}

// Resolve выбирает решение для запроса по снимку каталога.
// Ошибок не возвращает: отсутствие подходящих бандлов - обычный исход.
// Паникует только при nil-запросе.
func Resolve(bundles []models.Bundle, req Request) Decision {
	if req == nil {
		panic("resolver: nil request")
	}
	c := req.common()
	eligible := FilterCandidates(bundles, req)
	cand := SelectCandidates(eligible, c.BundleID)

	update := func(b *models.Bundle) Decision {
		if !IsDeviceEligible(c.DeviceID, b.RolloutPercentage, b.TargetDeviceIDs) {
			return Decision{Status: StatusNone}
		}
		return Decision{Status: StatusUpdate, Bundle: b}
	}

	switch {
	case c.BundleID.IsNil():
		if cand.Latest == nil {
			return Decision{Status: StatusNone}
		}
		return update(cand.Latest)

	case cand.Current != nil:
		if cand.Current.ID.Less(cand.Latest.ID) {
			return update(cand.Latest)
		}
		return Decision{Status: StatusNone}

	case cand.UpdateCandidate != nil:
		return update(cand.UpdateCandidate)

	case cand.RollbackCandidate != nil:
		return Decision{Status: StatusRollback, Bundle: cand.RollbackCandidate}

	case c.BundleID.Compare(c.MinBundleID) <= 0:
		return Decision{Status: StatusNone}

	default:
		return Decision{Status: StatusRollback}
	}
}
