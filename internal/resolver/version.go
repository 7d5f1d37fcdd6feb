package resolver

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// anyVersion - выражение, совместимое с любой версией приложения.
const anyVersion = "*"

// coerceRe находит первую последовательность вида N[.N[.N]] в строке версии.
var coerceRe = regexp.MustCompile(`(\d+)(?:\.(\d+))?(?:\.(\d+))?`)

// CoerceVersion приводит произвольную строку версии к ближайшей семантической версии:
// "1.0" -> 1.0.0, "v2" -> 2.0.0, "1.2.3.4" -> 1.2.3.
// Возвращает false, если в строке нет чисел или компонент не помещается в uint64.
func CoerceVersion(raw string) (*semver.Version, bool) {
	m := coerceRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	parts := []string{m[1], "0", "0"}
	if m[2] != "" {
		parts[1] = m[2]
	}
	if m[3] != "" {
		parts[2] = m[3]
	}
	v, err := semver.StrictNewVersion(strings.Join(parts, "."))
	if err != nil {
		return nil, false
	}
	return v, true
}

// SatisfiesTargetVersion сообщает, принимает ли выражение target версию приложения appVersion.
//
// Поддерживаются "*", точные и неполные версии ("1.2.3", "1.2", "1"), шаблоны
// ("1.x.x", "1.2.x"), "~", "^", диапазоны через дефис и списки компараторов
// через пробел или запятую (конъюнкция). Некорректное выражение или версия,
// которую нельзя привести, дают false.
func SatisfiesTargetVersion(target, appVersion string) bool {
	v, ok := CoerceVersion(appVersion)
	if !ok {
		return false
	}
	return satisfies(strings.TrimSpace(target), v)
}

func satisfies(target string, v *semver.Version) bool {
	if target == anyVersion {
		return true
	}
	if target == "" {
		return false
	}
	c, err := semver.NewConstraint(target)
	if err != nil {
		return false
	}
	return c.Check(v)
}

// FilterCompatibleAppVersions оставляет уникальные выражения target_app_version,
// совместимые с appVersion, отсортированные по убыванию строки.
// Используется как предварительный фильтр перед запросом каталога.
func FilterCompatibleAppVersions(targets []string, appVersion string) []string {
	v, ok := CoerceVersion(appVersion)
	if !ok {
		return []string{}
	}
	seen := make(map[string]struct{}, len(targets))
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if satisfies(strings.TrimSpace(t), v) {
			out = append(out, t)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// versionMatcher запоминает результаты проверки в пределах одного вызова фильтра.
// Экземпляр не разделяется между запросами.
type versionMatcher struct {
	version *semver.Version
	ok      bool
	memo    map[string]bool
}

func newVersionMatcher(appVersion string) *versionMatcher {
	v, ok := CoerceVersion(appVersion)
	return &versionMatcher{version: v, ok: ok, memo: make(map[string]bool)}
}

func (m *versionMatcher) match(target string) bool {
	if !m.ok {
		return false
	}
	if res, hit := m.memo[target]; hit {
		return res
	}
	res := satisfies(strings.TrimSpace(target), m.version)
	m.memo[target] = res
	return res
}
