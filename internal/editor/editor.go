// Package editor holds the state of a product form being composed: the product fields and an
// ordered list of variant drafts that never becomes empty.
package editor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/iyhunko/wallart-storefront/internal/form"
)

// ErrSubmitInFlight is returned by Submit while an earlier submission has not completed.
var ErrSubmitInFlight = errors.New("a submission is already in flight")

// Banners shown after a submission attempt.
const (
	SuccessBanner = "Product added successfully!"
	FailureBanner = "Failed to add product. Please try again."
)

// Submitter sends an encoded form and returns the server's message.
type Submitter interface {
	SubmitForm(ctx context.Context, values url.Values) (string, error)
}

// Draft is a variant being edited. LocalID keys the draft inside the editor and is never sent.
type Draft struct {
	LocalID int64
	form.Variant
}

// Fields are the product-level inputs of the form.
type Fields struct {
	Title       string
	Description string
	Category    string
	ImageURL    string
	Tags        string
}

// Editor is safe for concurrent use.
type Editor struct {
	mu         sync.Mutex
	drafts     []Draft
	nextID     int64
	submitting bool
}

// New returns an editor holding exactly one empty draft.
func New() *Editor {
	e := &Editor{}
	e.drafts = []Draft{e.newDraft()}
	return e
}

func (e *Editor) newDraft() Draft {
	e.nextID++
	return Draft{LocalID: e.nextID}
}

// Drafts returns a copy of the current drafts in order.
func (e *Editor) Drafts() []Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Draft(nil), e.drafts...)
}

// Len returns the number of drafts.
func (e *Editor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.drafts)
}

// AddVariant appends an empty draft and returns its local id.
func (e *Editor) AddVariant() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	d := e.newDraft()
	e.drafts = append(e.drafts, d)
	return d.LocalID
}

// RemoveVariant removes the draft with localID. It refuses to remove the last draft
// and ignores unknown ids; the result reports whether a draft was removed.
func (e *Editor) RemoveVariant(localID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.drafts) <= 1 {
		return false
	}
	for i, d := range e.drafts {
		if d.LocalID == localID {
			e.drafts = append(e.drafts[:i:i], e.drafts[i+1:]...)
			return true
		}
	}
	return false
}

// EditField replaces one field of one draft.
func (e *Editor) EditField(localID int64, field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.drafts {
		if e.drafts[i].LocalID == localID {
			return e.drafts[i].Set(field, value)
		}
	}
	return fmt.Errorf("no draft with local id %d", localID)
}

// Submission combines fields with the current drafts.
func (e *Editor) Submission(fields Fields) form.Submission {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submissionLocked(fields)
}

func (e *Editor) submissionLocked(fields Fields) form.Submission {
	variants := make([]form.Variant, len(e.drafts))
	for i, d := range e.drafts {
		variants[i] = d.Variant
	}
	return form.Submission{
		Title:       fields.Title,
		Description: fields.Description,
		Category:    fields.Category,
		ImageURL:    fields.ImageURL,
		Tags:        fields.Tags,
		Variants:    variants,
	}
}

// Encode flattens fields and drafts into the submission wire format.
func (e *Editor) Encode(fields Fields) url.Values {
	return e.Submission(fields).Encode()
}

// Decode rebuilds an editor and its product fields from an encoded form.
// A form without variants yields the usual single empty draft.
func Decode(values url.Values) (*Editor, Fields, error) {
	sub, err := form.Decode(values.Get)
	if err != nil {
		return nil, Fields{}, err
	}

	e := &Editor{}
	for _, v := range sub.Variants {
		d := e.newDraft()
		d.Variant = v
		e.drafts = append(e.drafts, d)
	}
	if len(e.drafts) == 0 {
		e.drafts = []Draft{e.newDraft()}
	}

	fields := Fields{
		Title:       sub.Title,
		Description: sub.Description,
		Category:    sub.Category,
		ImageURL:    sub.ImageURL,
		Tags:        sub.Tags,
	}
	return e, fields, nil
}

// Submit encodes the form and hands it to s. Only one submission may be in flight.
// On success the drafts are replaced by a single fresh draft; on failure they are kept.
// The returned banner is the text to show the operator.
func (e *Editor) Submit(ctx context.Context, fields Fields, s Submitter) (string, error) {
	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return "", ErrSubmitInFlight
	}
	e.submitting = true
	values := e.submissionLocked(fields).Encode()
	e.mu.Unlock()

	_, err := s.SubmitForm(ctx, values)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitting = false
	if err != nil {
		return FailureBanner, err
	}
	e.drafts = []Draft{e.newDraft()}
	return SuccessBanner, nil
}
