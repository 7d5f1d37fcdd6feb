package resolver

import "github.com/gronxb/hot-updater-sub000/models"

// Candidates - результат одного прохода по подходящим бандлам.
// Указатели ссылаются на элементы входного среза; nil означает «нет такого бандла».
type Candidates struct {
	// Latest - бандл с максимальным id.
	Latest *models.Bundle
	// Current - бандл, установленный на устройстве, если он остался в выборке.
	Current *models.Bundle
	// UpdateCandidate - минимальный id строго больше текущего.
	UpdateCandidate *models.Bundle
	// RollbackCandidate - максимальный id строго меньше текущего.
	RollbackCandidate *models.Bundle
}

// SelectCandidates находит кандидатов за один проход, без сортировки.
func SelectCandidates(eligible []models.Bundle, current models.BundleID) Candidates {
	var c Candidates
	for i := range eligible {
		b := &eligible[i]
		if c.Latest == nil || c.Latest.ID.Less(b.ID) {
			c.Latest = b
		}
		switch cmp := b.ID.Compare(current); {
		case cmp == 0:
			c.Current = b
		case cmp > 0:
			if c.UpdateCandidate == nil || b.ID.Less(c.UpdateCandidate.ID) {
				c.UpdateCandidate = b
			}
		default:
			if c.RollbackCandidate == nil || c.RollbackCandidate.ID.Less(b.ID) {
				c.RollbackCandidate = b
			}
		}
	}
	return c
}
