package resolver

import (
	"slices"
	"unicode/utf16"
)

const fullRollout = 100

// DeviceBucket раскладывает идентификатор устройства по корзинам [0, 100).
//
// Хэш совпадает с тем, что уже используется клиентами в эксплуатации:
// h = h*31 + c по кодовым единицам UTF-16 в знаковом 32-битном аккумуляторе,
// затем |h mod 100|. Смена функции перетасовала бы устройства между корзинами.
func DeviceBucket(deviceID string) int {
	var h int32
	for _, c := range utf16.Encode([]rune(deviceID)) {
		h = h*31 + int32(c)
	}
	bucket := int(h % 100)
	if bucket < 0 {
		bucket = -bucket
	}
	return bucket
}

// IsDeviceEligible решает, может ли устройство получить бандл как UPDATE.
// Порядок правил:
//  1. без deviceID устройство всегда подходит (старые клиенты);
//  2. непустой список targets решает сам, процент игнорируется;
//  3. pct == nil или pct >= 100 - подходит, pct <= 0 - нет;
//  4. иначе DeviceBucket(deviceID) < pct.
func IsDeviceEligible(deviceID *string, pct *int, targets []string) bool {
	if deviceID == nil {
		return true
	}
	if len(targets) > 0 {
		return slices.Contains(targets, *deviceID)
	}
	if pct == nil || *pct >= fullRollout {
		return true
	}
	if *pct <= 0 {
		return false
	}
	return DeviceBucket(*deviceID) < *pct
}
