// Package variantlist keeps the ordered, id-addressed image list of each
// product variant and gates form submission on conversions in flight.
package variantlist

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AnyUserName/shopimg-cli/internal/budget"
	"github.com/AnyUserName/shopimg-cli/internal/identity"
	"github.com/AnyUserName/shopimg-cli/internal/media"
	"github.com/AnyUserName/shopimg-cli/internal/rule"
)

var (
	// ErrBusy is returned by Add while another batch is converting.
	ErrBusy = errors.New("image conversion already in progress")
	// ErrUnknownID is returned by Reorder for ids not in the list.
	ErrUnknownID = errors.New("unknown image id")
)

// ValidationError rejects a batch before any conversion starts.
type ValidationError struct {
	Name    string
	Type    string
	Allowed []string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("%s: type %q is not allowed (allowed: %v)", e.Name, e.Type, e.Allowed)
}

// Converter normalizes one local file under a rule.
type Converter interface {
	Convert(f *media.LocalFile, r rule.Rule) (*media.NormalizedImage, error)
}

// State is the conversion state of a list.
type State int

const (
	Idle State = iota
	Converting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Converting:
		return "converting"
	default:
		return "unknown"
	}
}

// Option configures a List.
type Option func(*List)

// WithLogger sets the logger used for batch progress.
func WithLogger(log zerolog.Logger) Option {
	return func(l *List) { l.log = log }
}

// WithIdentifier replaces the default metadata-based identifier.
func WithIdentifier(id identity.Identifier) Option {
	return func(l *List) { l.ident = id }
}

// List is the image list of one variant.
type List struct {
	rule  rule.Rule
	conv  Converter
	ident identity.Identifier
	log   zerolog.Logger

	mu    sync.Mutex
	items []media.Item
	state State
}

// New creates an empty list.
func New(r rule.Rule, conv Converter, opts ...Option) *List {
	l := &List{
		rule: r,
		conv: conv,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewFromPersisted creates a list from data loaded from the backend. Every
// entry is identified once here; local files are converted like in Add.
func NewFromPersisted(r rule.Rule, conv Converter, persisted []media.RawInput, opts ...Option) (*List, error) {
	l := New(r, conv, opts...)
	if len(persisted) == 0 {
		return l, nil
	}
	if err := l.Add(persisted); err != nil {
		return nil, fmt.Errorf("load persisted images: %w", err)
	}
	return l, nil
}

// Rule returns the conversion rule of the list.
func (l *List) Rule() rule.Rule { return l.rule }

// Ready reports whether no batch is converting. Forms must not submit while
// any list is not ready.
func (l *List) Ready() bool {
	return l.State() == Idle
}

// State returns the current conversion state.
func (l *List) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Items returns a copy of the list in display order.
func (l *List) Items() []media.Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]media.Item(nil), l.items...)
}

// IDs returns the ids in display order.
func (l *List) IDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, len(l.items))
	for i, it := range l.items {
		ids[i] = it.ID
	}
	return ids
}

// Len returns the number of items.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Add validates, converts and appends a batch. The batch is all-or-nothing:
// on any error the list is left exactly as it was.
func (l *List) Add(inputs []media.RawInput) error {
	l.mu.Lock()
	if l.state == Converting {
		l.mu.Unlock()
		return ErrBusy
	}
	l.state = Converting
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.state = Idle
		l.mu.Unlock()
	}()

	if err := l.validate(inputs); err != nil {
		l.log.Warn().Err(err).Int("batch", len(inputs)).Msg("batch rejected")
		return err
	}

	added, err := l.convert(inputs)
	if err != nil {
		l.log.Warn().Err(err).Int("batch", len(inputs)).Msg("batch conversion failed")
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	merged := make([]media.Item, 0, len(l.items)+len(added))
	merged = append(merged, l.items...)
	merged = append(merged, added...)
	identity.Disambiguate(merged)

	if err := l.checkSizes(merged); err != nil {
		l.log.Warn().Err(err).Msg("merged list over budget")
		return err
	}

	l.items = merged
	l.log.Debug().Int("added", len(added)).Int("total", len(merged)).Msg("batch committed")
	return nil
}

// validate runs before any conversion so one bad input costs no work.
func (l *List) validate(inputs []media.RawInput) error {
	for _, in := range inputs {
		switch v := in.(type) {
		case *media.LocalFile:
			if v == nil {
				return &ValidationError{Name: "<nil>", Reason: "missing file"}
			}
			if !l.rule.Allows(v.Type) {
				return &ValidationError{Name: v.Name, Type: v.Type, Allowed: l.rule.AllowedTypes}
			}
		case media.Invalid:
			return &ValidationError{Name: "input", Reason: v.Reason}
		case media.RemoteURL:
			if v == "" {
				return &ValidationError{Name: "input", Reason: "empty url"}
			}
		case media.NormalizedRecord:
			if v.ID == "" || v.Src == nil {
				return &ValidationError{Name: "input", Reason: "record without id or source"}
			}
		default:
			return &ValidationError{Name: "input", Reason: fmt.Sprintf("unsupported input %T", in)}
		}
	}
	return nil
}

// convert processes inputs sequentially, in order.
func (l *List) convert(inputs []media.RawInput) ([]media.Item, error) {
	out := make([]media.Item, 0, len(inputs))
	for _, in := range inputs {
		it, err := l.ident.Identify(in)
		if err != nil {
			return nil, err
		}
		if f, ok := in.(*media.LocalFile); ok {
			img, err := l.conv.Convert(f, l.rule)
			if err != nil {
				return nil, err
			}
			it.Src = img
			l.log.Debug().
				Str("id", it.ID).
				Int64("bytes", img.Size()).
				Float64("quality", img.Quality).
				Msg("image normalized")
		}
		out = append(out, it)
	}
	return out, nil
}

func (l *List) checkSizes(items []media.Item) error {
	for _, it := range items {
		img, ok := it.Image()
		if !ok {
			continue
		}
		if img.Size() > l.rule.MaxBytes {
			return &budget.CompressionLimitError{
				MaxBytes:     l.rule.MaxBytes,
				SmallestSize: img.Size(),
				Quality:      img.Quality,
			}
		}
	}
	return nil
}

// Remove drops the item with the given id and reports whether it existed.
func (l *List) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, it := range l.items {
		if it.ID == id {
			l.items = append(l.items[:i:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Reorder moves the item fromID to the position currently held by toID.
// Items in between shift by one; no ids change.
func (l *List) Reorder(fromID, toID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	from, to := -1, -1
	for i, it := range l.items {
		if it.ID == fromID {
			from = i
		}
		if it.ID == toID {
			to = i
		}
	}
	if from < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownID, fromID)
	}
	if to < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownID, toID)
	}
	if from == to {
		return nil
	}

	moved := l.items[from]
	rest := append(l.items[:from:from], l.items[from+1:]...)
	reordered := make([]media.Item, 0, len(l.items))
	reordered = append(reordered, rest[:to]...)
	reordered = append(reordered, moved)
	reordered = append(reordered, rest[to:]...)
	l.items = reordered
	return nil
}
