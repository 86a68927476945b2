package domain

import (
	"strconv"
	"strings"
	"time"
)

// PageCount is a page size; PageAll returns every item on one page.
type PageCount int

const PageAll PageCount = -1

var PageCounts = []PageCount{10, 20, 50, 100, PageAll}

func ParsePageCount(s string) (PageCount, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return PageAll, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	for _, pc := range PageCounts {
		if int(pc) == n {
			return pc, true
		}
	}
	return 0, false
}

func (p PageCount) String() string {
	if p == PageAll {
		return "all"
	}
	return strconv.Itoa(int(p))
}

func (p PageCount) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

type SortOrder string

const (
	SortMostPopular   SortOrder = "MostPopular"
	SortMostCommented SortOrder = "MostCommented"
	SortPriceAsc      SortOrder = "PriceAsc"
	SortPriceDesc     SortOrder = "PriceDesc"
	SortNewest        SortOrder = "Newest"
)

var SortOrders = []SortOrder{SortMostPopular, SortMostCommented, SortPriceAsc, SortPriceDesc, SortNewest}

func ParseSortOrder(s string) (SortOrder, bool) {
	s = strings.TrimSpace(s)
	for _, o := range SortOrders {
		if strings.EqualFold(s, string(o)) {
			return o, true
		}
	}
	return "", false
}

type DateBucket string

const (
	DateLastWeek   DateBucket = "last week"
	DateLastMonth  DateBucket = "last month"
	DateLastYear   DateBucket = "last year"
	DateTwoYears   DateBucket = "2 years"
	DateThreeYears DateBucket = "3 years"
)

var DateBuckets = []DateBucket{DateLastWeek, DateLastMonth, DateLastYear, DateTwoYears, DateThreeYears}

// ParseDateBucket accepts the display names and their compact forms
// (week, month, year, 2years, 3years).
func ParseDateBucket(s string) (DateBucket, bool) {
	norm := strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch norm {
	case "lastweek", "week":
		return DateLastWeek, true
	case "lastmonth", "month":
		return DateLastMonth, true
	case "lastyear", "year":
		return DateLastYear, true
	case "2years", "twoyears":
		return DateTwoYears, true
	case "3years", "threeyears":
		return DateThreeYears, true
	}
	return "", false
}

// Since returns the earliest creation time that falls inside the bucket.
func (b DateBucket) Since(now time.Time) time.Time {
	switch b {
	case DateLastWeek:
		return now.AddDate(0, 0, -7)
	case DateLastMonth:
		return now.AddDate(0, -1, 0)
	case DateLastYear:
		return now.AddDate(-1, 0, 0)
	case DateTwoYears:
		return now.AddDate(-2, 0, 0)
	case DateThreeYears:
		return now.AddDate(-3, 0, 0)
	}
	return time.Time{}
}

// Trigger is the caller's intent: new filters, or only a new sort/page.
type Trigger string

const (
	TriggerApplyFilters    Trigger = "ApplyFilters"
	TriggerPageCountChange Trigger = "PageCountChange"
	TriggerSortingChange   Trigger = "SortingChange"
)

var Triggers = []Trigger{TriggerApplyFilters, TriggerPageCountChange, TriggerSortingChange}

// ParseTrigger treats an empty value as ApplyFilters.
func ParseTrigger(s string) (Trigger, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TriggerApplyFilters, true
	}
	for _, t := range Triggers {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}

// NameFilterMinLen is the shortest name substring that filters anything.
const NameFilterMinLen = 3

// EffectiveName returns the name filter to apply, or "" when name is too short
// to filter on.
func EffectiveName(name string) string {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < NameFilterMinLen {
		return ""
	}
	return name
}
