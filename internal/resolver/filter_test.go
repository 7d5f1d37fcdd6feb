package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gronxb/hot-updater-sub000/internal/resolver"
	"github.com/gronxb/hot-updater-sub000/models"
)

func appReq(t *testing.T, c resolver.Common, appVersion string) resolver.AppVersionRequest {
	t.Helper()
	if c.Platform == "" {
		c.Platform = models.PlatformIOS
	}
	req, err := resolver.NewAppVersionRequest(c, appVersion)
	require.NoError(t, err)
	return req
}

func fpReq(t *testing.T, c resolver.Common, hash string) resolver.FingerprintRequest {
	t.Helper()
	if c.Platform == "" {
		c.Platform = models.PlatformIOS
	}
	req, err := resolver.NewFingerprintRequest(c, hash)
	require.NoError(t, err)
	return req
}

func idsOf(bs []models.Bundle) []models.BundleID {
	out := make([]models.BundleID, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.ID)
	}
	return out
}

func TestFilterCandidates_AppVersion(t *testing.T) {
	catalog := []models.Bundle{
		bundle(1),
		bundle(2, func(b *models.Bundle) { b.Enabled = false }),
		bundle(3, func(b *models.Bundle) { b.Platform = models.PlatformAndroid }),
		bundle(4, func(b *models.Bundle) { b.Channel = "staging" }),
		bundle(5, func(b *models.Bundle) { b.TargetAppVersion = nil; b.FingerprintHash = ptr("fp") }),
		bundle(6, func(b *models.Bundle) { b.TargetAppVersion = ptr("2.x") }),
		bundle(7, func(b *models.Bundle) { b.TargetAppVersion = ptr("1.0") }),
		bundle(8, func(b *models.Bundle) { b.TargetAppVersion = ptr("garbage") }),
	}

	got := resolver.FilterCandidates(catalog, appReq(t, resolver.Common{}, "1.0.3"))

	assert.Equal(t, []models.BundleID{bid(1), bid(7)}, idsOf(got))
}

func TestFilterCandidates_Fingerprint(t *testing.T) {
	catalog := []models.Bundle{
		bundle(1, func(b *models.Bundle) { b.FingerprintHash = ptr("abc") }),
		bundle(2, func(b *models.Bundle) { b.FingerprintHash = ptr("other") }),
		bundle(3),
		bundle(4, func(b *models.Bundle) { b.TargetAppVersion = nil; b.FingerprintHash = ptr("abc") }),
	}

	got := resolver.FilterCandidates(catalog, fpReq(t, resolver.Common{}, "abc"))

	assert.Equal(t, []models.BundleID{bid(1), bid(4)}, idsOf(got))
}

func TestFilterCandidates_MinBundleID(t *testing.T) {
	catalog := []models.Bundle{bundle(1), bundle(2), bundle(3), bundle(4)}

	got := resolver.FilterCandidates(catalog, appReq(t, resolver.Common{MinBundleID: bid(3)}, "1.0"))

	assert.Equal(t, []models.BundleID{bid(3), bid(4)}, idsOf(got))
}

func TestFilterCandidates_Channel(t *testing.T) {
	catalog := []models.Bundle{
		bundle(1),
		bundle(2, func(b *models.Bundle) { b.Channel = "beta" }),
	}

	got := resolver.FilterCandidates(catalog, appReq(t, resolver.Common{Channel: "beta"}, "1.0"))

	assert.Equal(t, []models.BundleID{bid(2)}, idsOf(got))
}

func TestFilterCandidates_DoesNotMutateInput(t *testing.T) {
	catalog := []models.Bundle{bundle(2), bundle(1, func(b *models.Bundle) { b.Enabled = false })}
	snapshot := append([]models.Bundle(nil), catalog...)

	_ = resolver.FilterCandidates(catalog, appReq(t, resolver.Common{}, "1.0"))

	assert.Equal(t, snapshot, catalog)
}

func TestFilterCandidates_NilRequestPanics(t *testing.T) {
	assert.Panics(t, func() { resolver.FilterCandidates(nil, nil) })
}
