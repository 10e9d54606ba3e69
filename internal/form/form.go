// Package form defines the flat key scheme product submissions travel in.
//
// A submission is a set of scalar product fields plus a positional list of variants:
//
//	title, description, category, imageUrl, tags, variantCount,
//	variants[0].size, variants[0].price, variants[0].dimensions, variants[0].amazonLink, ...
//
// The variant editor encodes into it, the HTTP controller decodes from it.
package form

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Product field keys.
const (
	TitleKey        = "title"
	DescriptionKey  = "description"
	CategoryKey     = "category"
	ImageURLKey     = "imageUrl"
	TagsKey         = "tags"
	VariantCountKey = "variantCount"
)

// Variant field names, used as the suffix of variants[i].<field>.
const (
	SizeField       = "size"
	PriceField      = "price"
	DimensionsField = "dimensions"
	AmazonLinkField = "amazonLink"
)

// MaxVariants bounds variantCount so a single request cannot make the decoder loop indefinitely.
const MaxVariants = 100

var (
	ErrInvalidVariantCount = errors.New("variantCount must be a non-negative integer")
	ErrTooManyVariants     = fmt.Errorf("variantCount must not exceed %d", MaxVariants)
	ErrUnknownField        = errors.New("unknown variant field")
)

// VariantFields lists the variant fields in wire order.
var VariantFields = []string{SizeField, PriceField, DimensionsField, AmazonLinkField}

// VariantKey returns the wire key of one field of the i-th variant.
func VariantKey(i int, field string) string {
	return fmt.Sprintf("variants[%d].%s", i, field)
}

// Variant is one variant as it appears on the wire: unvalidated text.
type Variant struct {
	Size       string `json:"size"`
	Price      string `json:"price"`
	Dimensions string `json:"dimensions"`
	AmazonLink string `json:"amazonLink"`
}

// Get returns the named field.
func (v Variant) Get(field string) (string, error) {
	switch field {
	case SizeField:
		return v.Size, nil
	case PriceField:
		return v.Price, nil
	case DimensionsField:
		return v.Dimensions, nil
	case AmazonLinkField:
		return v.AmazonLink, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
}

// Set replaces the named field.
func (v *Variant) Set(field, value string) error {
	switch field {
	case SizeField:
		v.Size = value
	case PriceField:
		v.Price = value
	case DimensionsField:
		v.Dimensions = value
	case AmazonLinkField:
		v.AmazonLink = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Submission is a whole product form.
type Submission struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"imageUrl"`
	Tags        string    `json:"tags"`
	Variants    []Variant `json:"variants"`
}

// Encode flattens the submission. variantCount always equals len(Variants).
func (s Submission) Encode() url.Values {
	values := url.Values{}
	values.Set(TitleKey, s.Title)
	values.Set(DescriptionKey, s.Description)
	values.Set(CategoryKey, s.Category)
	values.Set(ImageURLKey, s.ImageURL)
	values.Set(TagsKey, s.Tags)
	values.Set(VariantCountKey, strconv.Itoa(len(s.Variants)))
	for i, v := range s.Variants {
		values.Set(VariantKey(i, SizeField), v.Size)
		values.Set(VariantKey(i, PriceField), v.Price)
		values.Set(VariantKey(i, DimensionsField), v.Dimensions)
		values.Set(VariantKey(i, AmazonLinkField), v.AmazonLink)
	}
	return values
}

// Decode reads a submission through get, which returns "" for absent keys
// (url.Values.Get and gin's Context.PostForm both fit).
// An absent variantCount means zero variants. Variant fields missing from the form decode as "".
func Decode(get func(key string) string) (Submission, error) {
	count, err := ParseVariantCount(get(VariantCountKey))
	if err != nil {
		return Submission{}, err
	}

	s := Submission{
		Title:       get(TitleKey),
		Description: get(DescriptionKey),
		Category:    get(CategoryKey),
		ImageURL:    get(ImageURLKey),
		Tags:        get(TagsKey),
		Variants:    make([]Variant, count),
	}
	for i := range s.Variants {
		s.Variants[i] = Variant{
			Size:       get(VariantKey(i, SizeField)),
			Price:      get(VariantKey(i, PriceField)),
			Dimensions: get(VariantKey(i, DimensionsField)),
			AmazonLink: get(VariantKey(i, AmazonLinkField)),
		}
	}
	return s, nil
}

// ParseVariantCount parses the variantCount field. Blank means zero.
func ParseVariantCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	count, err := strconv.Atoi(raw)
	if err != nil || count < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVariantCount, raw)
	}
	if count > MaxVariants {
		return 0, ErrTooManyVariants
	}
	return count, nil
}
