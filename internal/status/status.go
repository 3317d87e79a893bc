// Package status maps raw backend status values onto the small, ordered set
// of display buckets each resource type presents. Each resource type has one
// canonical Vocabulary; pages, filters and chips all resolve through it.
package status

import (
	"strings"
	"unicode"

	"github.com/cebeepredict/admin/model"
)

// Colour tokens understood by the UI layer.
const (
	ColorDefault   = "default"
	ColorInfo      = "info"
	ColorWarning   = "warning"
	ColorError     = "error"
	ColorSuccess   = "success"
	ColorSecondary = "secondary"
)

// Bucket is one display state.
type Bucket struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Vocabulary maps raw status strings to buckets. Lookups ignore case and
// separators, so "prediction_open", "predictionOpen" and "PREDICTION-OPEN"
// are the same value. It is immutable after construction.
type Vocabulary struct {
	name     string
	buckets  []Bucket
	index    map[string]int
	aliases  map[string]string
	fallback string
}

// Def declares a bucket and the raw values that map onto it. The bucket key
// itself always maps to the bucket.
type Def struct {
	Bucket
	Raw []string
}

// New builds a vocabulary. Bucket order is the progression order used by
// StepIndex. fallback must name one of the buckets.
func New(name, fallback string, defs ...Def) *Vocabulary {
	v := &Vocabulary{
		name:     name,
		index:    make(map[string]int, len(defs)),
		aliases:  make(map[string]string),
		fallback: fallback,
	}
	for i, d := range defs {
		v.buckets = append(v.buckets, d.Bucket)
		v.index[d.Key] = i
		v.aliases[normalize(d.Key)] = d.Key
		for _, raw := range d.Raw {
			v.aliases[normalize(raw)] = d.Key
		}
	}
	if _, ok := v.index[fallback]; !ok {
		panic("status: fallback bucket " + fallback + " not declared in vocabulary " + name)
	}
	return v
}

// Name returns the vocabulary name.
func (v *Vocabulary) Name() string { return v.name }

// Fallback returns the bucket unknown values map to.
func (v *Vocabulary) Fallback() Bucket { return v.buckets[v.index[v.fallback]] }

// Buckets returns the buckets in progression order.
func (v *Vocabulary) Buckets() []Bucket {
	out := make([]Bucket, len(v.buckets))
	copy(out, v.buckets)
	return out
}

// Known reports whether raw is a recognised value.
func (v *Vocabulary) Known(raw any) bool {
	_, ok := v.aliases[normalize(model.FormatValue(raw))]
	return ok
}

// BucketKey returns the bucket key for a raw value. Unknown and empty values
// map to the fallback bucket.
func (v *Vocabulary) BucketKey(raw any) string {
	if key, ok := v.aliases[normalize(model.FormatValue(raw))]; ok {
		return key
	}
	return v.fallback
}

// Resolve returns the display bucket for a raw value.
func (v *Vocabulary) Resolve(raw any) Bucket {
	return v.buckets[v.index[v.BucketKey(raw)]]
}

// StepIndex returns the zero-based position of the raw value's bucket in the
// progression, for linear progress indicators.
func (v *Vocabulary) StepIndex(raw any) int {
	return v.index[v.BucketKey(raw)]
}

// Normalizer returns a function suitable as a listing filter normaliser: it
// maps a row value to its bucket key.
func (v *Vocabulary) Normalizer() func(any) string {
	return v.BucketKey
}

// Options returns the buckets as filter options, with an "All" entry first.
func (v *Vocabulary) Options() []model.OptionDescriptor {
	opts := make([]model.OptionDescriptor, 0, len(v.buckets)+1)
	opts = append(opts, model.OptionDescriptor{Label: "All", Value: "all"})
	for _, b := range v.buckets {
		opts = append(opts, model.OptionDescriptor{Label: b.Label, Value: b.Key})
	}
	return opts
}

// StatusMap returns the bucket display map keyed by bucket key.
func (v *Vocabulary) StatusMap() map[string]model.StatusDescriptor {
	m := make(map[string]model.StatusDescriptor, len(v.buckets))
	for _, b := range v.buckets {
		m[b.Key] = model.StatusDescriptor{Label: b.Label, Color: b.Color}
	}
	return m
}

func normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
