package state

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-manager/bookui/internal/errs"
	"github.com/Astemirdum/book-manager/bookui/internal/model"
	"github.com/Astemirdum/book-manager/pkg/kafka"
	"github.com/Astemirdum/book-manager/pkg/validate"
)

const (
	ConfirmDeletePrompt  = "Are you sure you want to delete this book?"
	FillAllFieldsMessage = "Please fill in all fields."
)

// Manager holds what every session shares: the books API, the event log and the logger.
type Manager struct {
	svc       BookService
	events    kafka.EventLog
	validator *validate.CustomValidator
	log       *zap.Logger
	now       func() time.Time
}

func NewManager(svc BookService, events kafka.EventLog, log *zap.Logger) *Manager {
	if events == nil {
		events = kafka.Discard
	}
	return &Manager{
		svc:       svc,
		events:    events,
		validator: validate.NewCustomValidator(),
		log:       log.Named("state"),
		now:       time.Now,
	}
}

func (m *Manager) NewSession(id string) *Session {
	return &Session{
		id:    id,
		m:     m,
		log:   m.log.With(zap.String("session", id)),
		books: []model.Book{},
	}
}

// Session is the UI state of one browser: the list mirror, the draft and the working copy.
// The modal is open exactly when a working copy exists.
type Session struct {
	id  string
	m   *Manager
	log *zap.Logger

	mu      sync.Mutex
	mounted bool
	books   []model.Book
	draft   model.Book
	editing *model.Book
}

type View struct {
	Books     []model.Book
	Draft     model.Book
	Editing   model.Book
	ModalOpen bool
	// MissingFields lists the empty draft fields; the banner shows while it is not empty.
	MissingFields []string
}

func (v View) DraftIncomplete() bool {
	return len(v.MissingFields) > 0
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Books:         append([]model.Book(nil), s.books...),
		Draft:         s.draft,
		MissingFields: s.m.validator.MissingFields(s.draft),
	}
	if s.editing != nil {
		v.Editing = *s.editing
		v.ModalOpen = true
	}
	return v
}

// Mount loads the list if no load has run yet for the session.
func (s *Session) Mount(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mounted {
		return nil
	}
	s.mounted = true
	return s.refresh(ctx)
}

// Refresh reloads the list, as every page load does.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = true
	return s.refresh(ctx)
}

// refresh replaces the whole list. On failure the stale list stays.
func (s *Session) refresh(ctx context.Context) error {
	list, err := s.m.svc.ListBooks(ctx)
	if err != nil {
		s.log.Error("There was an error fetching the books!", zap.Error(err))
		return err
	}
	s.books = list
	return nil
}

// SetField is the shared input handler: it edits the working copy while the modal is open
// and the draft otherwise.
func (s *Session) SetField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := &s.draft
	if s.editing != nil {
		target = s.editing
	}
	return setField(target, name, value)
}

// SetDraftField edits the add form's draft even while the modal is open.
func (s *Session) SetDraftField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setField(&s.draft, name, value)
}

// SetEditingField edits the working copy; it fails when the modal is closed.
func (s *Session) SetEditingField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing == nil {
		return errs.ErrNotEditing
	}
	return setField(s.editing, name, value)
}

func setField(b *model.Book, name, value string) error {
	switch name {
	case model.FieldTitle:
		b.Title = value
	case model.FieldAuthor:
		b.Author = value
	case model.FieldPublishedYear:
		year, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			year = 0
		}
		b.PublishedYear = year
	case model.FieldGenre:
		b.Genre = value
	case model.FieldDescription:
		b.Description = value
	default:
		return errors.Wrap(errs.ErrUnknownField, name)
	}
	return nil
}

// AddBook submits the draft. An incomplete draft is rejected locally and nothing is sent.
func (s *Session) AddBook(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if missing := s.m.validator.MissingFields(s.draft); len(missing) > 0 {
		s.log.Debug("draft incomplete", zap.Strings("missing", missing))
		return errs.ErrIncompleteDraft
	}
	if err := s.m.svc.CreateBook(ctx, model.NewCreateBookRequest(s.draft)); err != nil {
		s.log.Error("There was an error adding the book!", zap.Error(err))
		return err
	}
	s.emit(kafka.EventBook{Action: kafka.ActionCreate, Title: s.draft.Title})
	_ = s.refresh(ctx)
	s.draft = model.Book{}
	return nil
}

// StartEdit copies the listed record into the working copy and opens the modal.
func (s *Session) StartEdit(id model.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.book(id)
	if err != nil {
		return err
	}
	s.editing = &book
	return nil
}

func (s *Session) CloseModal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = nil
}

// UpdateBook sends the working copy keyed by its id. On failure the modal stays open.
func (s *Session) UpdateBook(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editing == nil {
		return errs.ErrNotEditing
	}
	book := *s.editing
	if err := s.m.svc.UpdateBook(ctx, book); err != nil {
		s.log.Error("There was an error updating the book!", zap.Error(err), zap.Stringer("id", book.ID))
		return err
	}
	s.emit(kafka.EventBook{Action: kafka.ActionUpdate, BookID: book.ID.String(), Title: book.Title})
	_ = s.refresh(ctx)
	s.editing = nil
	return nil
}

// DeleteBook asks confirm first; a declined prompt sends nothing and changes nothing.
// Only listed books can be deleted.
func (s *Session) DeleteBook(ctx context.Context, id model.ID, confirm Confirmer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.book(id)
	if err != nil {
		return err
	}
	id = book.ID
	if confirm == nil || !confirm.Confirm(ConfirmDeletePrompt) {
		return nil
	}
	if err := s.m.svc.DeleteBook(ctx, id); err != nil {
		s.log.Error("There was an error deleting the book!", zap.Error(err), zap.Stringer("id", id))
		return err
	}
	s.emit(kafka.EventBook{Action: kafka.ActionDelete, BookID: id.String()})
	_ = s.refresh(ctx)
	return nil
}

// Book returns the listed record with the given id.
func (s *Session) Book(id model.ID) (model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book(id)
}

func (s *Session) book(id model.ID) (model.Book, error) {
	for _, b := range s.books {
		if b.ID.Matches(id) {
			return b, nil
		}
	}
	return model.Book{}, errs.ErrNotFound
}

func (s *Session) emit(ev kafka.EventBook) {
	ev.Timestamp = s.m.now()
	ev.Session = s.id
	if err := s.m.events.Log(ev); err != nil {
		s.log.Warn("events.Log", zap.Error(err))
	}
}
