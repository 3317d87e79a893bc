package listing

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/cebeepredict/admin/model"
)

// Comparator is a total order over rows: negative when a sorts before b.
type Comparator func(a, b model.Row) int

// Sort value types.
const (
	TypeNumber = "number"
	TypeString = "string"
	TypeTime   = "time"
)

// Sort directions.
const (
	Asc  = "asc"
	Desc = "desc"
)

// Collator wraps a locale collator for concurrent use. collate.Collator
// keeps internal buffers and is not safe to share between goroutines.
type Collator struct {
	mu sync.Mutex
	c  *collate.Collator
}

// NewCollator returns a collator for the given BCP 47 locale. Unparseable
// locales fall back to English.
func NewCollator(locale string) *Collator {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Collator{c: collate.New(tag)}
}

// Compare compares two strings in locale order.
func (c *Collator) Compare(a, b string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.c.CompareString(a, b)
}

// NumberAsc orders by a numeric field ascending. Missing and non-numeric
// values sort lowest.
func NumberAsc(field string) Comparator {
	return func(a, b model.Row) int {
		return compareNullable(number(a.Field(field)), number(b.Field(field)))
	}
}

// NumberDesc orders by a numeric field descending. Missing values sort last.
func NumberDesc(field string) Comparator {
	return reverse(NumberAsc(field))
}

// StringAsc orders by a string field ascending in locale order. Missing
// values compare as the empty string.
func StringAsc(field string, coll *Collator) Comparator {
	return func(a, b model.Row) int {
		return coll.Compare(model.FormatValue(a.Field(field)), model.FormatValue(b.Field(field)))
	}
}

// StringDesc orders by a string field descending in locale order.
func StringDesc(field string, coll *Collator) Comparator {
	return reverse(StringAsc(field, coll))
}

// TimeAsc orders by a timestamp field ascending. Missing and unparseable
// values sort lowest.
func TimeAsc(field string) Comparator {
	return func(a, b model.Row) int {
		return compareNullable(timestamp(a.Field(field)), timestamp(b.Field(field)))
	}
}

// TimeDesc orders by a timestamp field descending.
func TimeDesc(field string) Comparator {
	return reverse(TimeAsc(field))
}

// Build returns the comparator for one sort declaration.
func Build(field, valueType, dir string, coll *Collator) (Comparator, error) {
	desc := strings.EqualFold(dir, Desc)
	switch valueType {
	case TypeNumber:
		if desc {
			return NumberDesc(field), nil
		}
		return NumberAsc(field), nil
	case TypeString, "":
		if desc {
			return StringDesc(field, coll), nil
		}
		return StringAsc(field, coll), nil
	case TypeTime:
		if desc {
			return TimeDesc(field), nil
		}
		return TimeAsc(field), nil
	default:
		return nil, fmt.Errorf("listing: unsupported sort type %q", valueType)
	}
}

// Comparators builds the comparator table for a set of sort declarations.
func Comparators(sorts []model.SortDefinition, coll *Collator) (map[string]Comparator, error) {
	out := make(map[string]Comparator, len(sorts))
	for _, s := range sorts {
		c, err := Build(s.Field, s.Type, s.Dir, coll)
		if err != nil {
			return nil, fmt.Errorf("sort %q: %w", s.Key, err)
		}
		out[s.Key] = c
	}
	return out, nil
}

func reverse(c Comparator) Comparator {
	return func(a, b model.Row) int { return c(b, a) }
}

// nullable is a value that may be absent. Absent values order first.
type nullable[T cmp.Ordered] struct {
	v  T
	ok bool
}

func compareNullable[T cmp.Ordered](a, b nullable[T]) int {
	switch {
	case !a.ok && !b.ok:
		return 0
	case !a.ok:
		return -1
	case !b.ok:
		return 1
	default:
		return cmp.Compare(a.v, b.v)
	}
}

func number(v any) nullable[float64] {
	switch t := v.(type) {
	case float64:
		return nullable[float64]{t, true}
	case float32:
		return nullable[float64]{float64(t), true}
	case int:
		return nullable[float64]{float64(t), true}
	case int64:
		return nullable[float64]{float64(t), true}
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nullable[float64]{}
		}
		return nullable[float64]{f, true}
	default:
		return nullable[float64]{}
	}
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", time.DateOnly}

func timestamp(v any) nullable[int64] {
	switch t := v.(type) {
	case string:
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, t); err == nil {
				return nullable[int64]{ts.UnixNano(), true}
			}
		}
		return nullable[int64]{}
	case float64:
		// Epoch milliseconds, as JavaScript backends emit.
		return nullable[int64]{time.UnixMilli(int64(t)).UnixNano(), true}
	case time.Time:
		return nullable[int64]{t.UnixNano(), true}
	case map[string]any:
		// Firestore-style {_seconds, _nanoseconds} timestamps.
		if s, ok := t["_seconds"].(float64); ok {
			ns, _ := t["_nanoseconds"].(float64)
			return nullable[int64]{time.Unix(int64(s), int64(ns)).UnixNano(), true}
		}
		return nullable[int64]{}
	default:
		return nullable[int64]{}
	}
}
