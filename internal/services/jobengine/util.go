package jobengine

import (
	"strings"

	"github.com/ternarybob/sitecorpus/internal/services/urlscope"
)

func dashed(baseDomain string) string {
	return strings.ReplaceAll(baseDomain, ".", "-")
}

func normalizeQuiet(raw string) (string, error) {
	return urlscope.Normalize(raw)
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func filterScoped(urls []string, baseDomain string) []string {
	return urlscope.FilterByDomain(urls, baseDomain)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
