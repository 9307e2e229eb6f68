package wizard

import (
	"context"
	"errors"

	"github.com/qargo/dashboard/pkg/state"
)

// DraftKey is the store namespace of wizard drafts.
const DraftKey = "newCompanyForm"

// ErrNoDraft is returned when no draft has been saved.
var ErrNoDraft = errors.New("wizard: no draft")

// DraftStore loads and saves the draft of one browser.
type DraftStore interface {
	Load(ctx context.Context) (FormData, error)
	Save(ctx context.Context, data FormData) error
	Clear(ctx context.Context) error
}

// StoreDrafts keeps drafts as JSON in a state.Store under
// "newCompanyForm:<browser-id>".
type StoreDrafts struct {
	drafts  *state.TypedStore[FormData]
	browser string
}

// NewStoreDrafts returns the draft store of browserID.
func NewStoreDrafts(store state.Store, browserID string) *StoreDrafts {
	return &StoreDrafts{
		drafts:  state.NewTypedStore[FormData](store, state.NewJSONSerializer[FormData](), DraftKey),
		browser: browserID,
	}
}

// Key returns the backend key of the draft.
func (s *StoreDrafts) Key() string {
	return s.drafts.Key(s.browser)
}

// Load returns the saved draft. A missing draft returns ErrNoDraft; an
// unreadable one returns an error wrapping state.ErrInvalidData.
func (s *StoreDrafts) Load(ctx context.Context) (FormData, error) {
	data, err := s.drafts.Get(ctx, s.browser)
	if errors.Is(err, state.ErrKeyNotFound) {
		return FormData{}, ErrNoDraft
	}
	if err != nil {
		return FormData{}, err
	}
	data.normalize()
	return data, nil
}

// Save replaces the draft. Drafts never expire.
func (s *StoreDrafts) Save(ctx context.Context, data FormData) error {
	return s.drafts.Set(ctx, s.browser, data, 0)
}

// Clear removes the draft.
func (s *StoreDrafts) Clear(ctx context.Context) error {
	return s.drafts.Delete(ctx, s.browser)
}
