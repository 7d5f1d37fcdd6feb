package resolver_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gronxb/hot-updater-sub000/internal/resolver"
	"github.com/gronxb/hot-updater-sub000/models"
)

// bid строит идентификатор, порядок которого совпадает с порядком n.
// bid(0) совпадает с models.NilBundleID.
func bid(n int) models.BundleID {
	return models.BundleID(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

// bundle возвращает включенный бандл для ios/production, совместимый с любой версией.
func bundle(n int, opts ...func(*models.Bundle)) models.Bundle {
	b := models.Bundle{
		ID:               bid(n),
		Platform:         models.PlatformIOS,
		Channel:          models.DefaultChannel,
		Enabled:          true,
		TargetAppVersion: ptr("*"),
		StorageURI:       fmt.Sprintf("s3://bundles/%d/bundle.zip", n),
	}
	for _, o := range opts {
		o(&b)
	}
	return b
}

func ids(bs ...*models.Bundle) []models.BundleID {
	out := make([]models.BundleID, 0, len(bs))
	for _, b := range bs {
		if b == nil {
			out = append(out, "")
			continue
		}
		out = append(out, b.ID)
	}
	return out
}

func TestNilBundleIDFixture(t *testing.T) {
	require.Equal(t, models.NilBundleID, bid(0))
}

func TestSelectCandidates(t *testing.T) {
	eligible := []models.Bundle{bundle(5), bundle(2), bundle(9), bundle(7), bundle(3)}

	tests := []struct {
		name    string
		current models.BundleID
		want    []models.BundleID // latest, current, update, rollback
	}{
		{name: "Текущий в середине", current: bid(5), want: []models.BundleID{bid(9), bid(5), bid(7), bid(3)}},
		{name: "Текущий отсутствует", current: bid(6), want: []models.BundleID{bid(9), "", bid(7), bid(5)}},
		{name: "Текущий самый новый", current: bid(9), want: []models.BundleID{bid(9), bid(9), "", bid(7)}},
		{name: "Нулевой текущий", current: models.NilBundleID, want: []models.BundleID{bid(9), "", bid(2), ""}},
		{name: "Текущий новее всех", current: bid(20), want: []models.BundleID{bid(9), "", "", bid(9)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := resolver.SelectCandidates(eligible, tt.current)
			assert.Equal(t, tt.want, ids(c.Latest, c.Current, c.UpdateCandidate, c.RollbackCandidate))
		})
	}
}

func TestSelectCandidates_Empty(t *testing.T) {
	c := resolver.SelectCandidates(nil, bid(1))

	assert.Nil(t, c.Latest)
	assert.Nil(t, c.Current)
	assert.Nil(t, c.UpdateCandidate)
	assert.Nil(t, c.RollbackCandidate)
}

func TestSelectCandidates_PointsIntoInput(t *testing.T) {
	eligible := []models.Bundle{bundle(1), bundle(2)}

	c := resolver.SelectCandidates(eligible, bid(1))

	assert.Same(t, &eligible[1], c.Latest)
	assert.Same(t, &eligible[0], c.Current)
}
