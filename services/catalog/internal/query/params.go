package query

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/example/game-store/services/catalog/internal/domain"
)

// ParseValues reads a listing request from named parameters, as found in an
// HTTP query string. List parameters accept repeated keys and comma
// separated values. Sort and pageCount have no default; page defaults to 1.
func ParseValues(v map[string][]string) (Request, error) {
	req := Request{Page: 1}
	details := map[string]any{}
	get := func(key string) string {
		if vals := v[key]; len(vals) > 0 {
			return strings.TrimSpace(vals[0])
		}
		return ""
	}

	var badGenres []string
	for _, raw := range list(v["genres"]) {
		ref := domain.ParseRef(raw)
		if ref.Kind == domain.RefInvalid {
			badGenres = append(badGenres, raw)
			continue
		}
		req.Genres = append(req.Genres, ref)
	}
	if len(badGenres) > 0 {
		return Request{}, domain.IdsNotValid("genre", badGenres)
	}
	var badPlatforms []string
	for _, raw := range list(v["platforms"]) {
		id, err := uuid.Parse(raw)
		if err != nil {
			badPlatforms = append(badPlatforms, raw)
			continue
		}
		req.Platforms = append(req.Platforms, id)
	}
	if len(badPlatforms) > 0 {
		return Request{}, domain.IdsNotValid("platform", badPlatforms)
	}
	req.Publishers = list(v["publishers"])

	for key, dst := range map[string]**float64{"minPrice": &req.MinPrice, "maxPrice": &req.MaxPrice} {
		raw := get(key)
		if raw == "" {
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 {
			details[key] = "must be a non-negative number"
			continue
		}
		*dst = &f
	}

	req.Name = get("name")
	if raw := get("datePublishing"); raw != "" {
		if b, ok := domain.ParseDateBucket(raw); ok {
			req.Date = b
		} else {
			details["datePublishing"] = "unknown date bucket"
		}
	}
	if s, ok := domain.ParseSortOrder(get("sort")); ok {
		req.Sort = s
	} else {
		details["sort"] = "must be one of MostPopular, MostCommented, PriceAsc, PriceDesc, Newest"
	}
	if pc, ok := domain.ParsePageCount(get("pageCount")); ok {
		req.PageCount = pc
	} else {
		details["pageCount"] = "must be one of 10, 20, 50, 100, all"
	}
	if raw := get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			details["page"] = "must be at least 1"
		} else {
			req.Page = n
		}
	}
	if t, ok := domain.ParseTrigger(get("trigger")); ok {
		req.Trigger = t
	} else {
		details["trigger"] = "must be one of ApplyFilters, PageCountChange, SortingChange"
	}
	if raw := get("includeDeleted"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			details["includeDeleted"] = "must be a boolean"
		}
		req.IncludeDeleted = b
	}

	if len(details) > 0 {
		return Request{}, domain.Validation("invalid listing request", details)
	}
	return req, nil
}

func list(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
