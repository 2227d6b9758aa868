package catalog

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"artesanato-catalog/internal/domain"
	"artesanato-catalog/internal/store"
)

// MockView is a mock implementation of View
type MockView struct {
	mock.Mock
}

func (m *MockView) RenderList(products []domain.Product, filter string) error {
	args := m.Called(products, filter)
	return args.Error(0)
}

func (m *MockView) RenderPreview(dataURI string) error {
	args := m.Called(dataURI)
	return args.Error(0)
}

func (m *MockView) ShowTransientMessage(text string, d time.Duration) error {
	args := m.Called(text, d)
	return args.Error(0)
}

func (m *MockView) ResetForm() {
	m.Called()
}

func (m *MockView) Alert(text string) {
	m.Called(text)
}

func (m *MockView) Confirm(text string) bool {
	args := m.Called(text)
	return args.Bool(0)
}

func newTestController(t *testing.T, kv store.KeyValueStorer) (*Controller, *Store) {
	s := newTestStore(t, kv)
	return NewController(s, NewImageEncoder(0), nil), s
}

func submission(name string) Submission {
	return Submission{
		FormID:      "form-a",
		Category:    "roupas",
		Name:        name,
		Price:       "39.90",
		Description: "Vestido de chita",
		Photo:       pngUpload(),
	}
}

func TestController_StartRendersEverything(t *testing.T) {
	c, s := newTestController(t, store.NewMemoryStore(0))
	_, _ = s.Add(context.Background(), draft("roupas", "Vestido", "10"))
	view := new(MockView)
	view.On("RenderList", mock.MatchedBy(func(p []domain.Product) bool { return len(p) == 1 }), "").Return(nil).Once()

	require.NoError(t, c.Start(context.Background(), view))

	view.AssertExpectations(t)
}

func TestController_SubmitSuccess(t *testing.T) {
	c, s := newTestController(t, store.NewMemoryStore(0))
	view := new(MockView)
	view.On("RenderList", mock.MatchedBy(func(p []domain.Product) bool {
		return len(p) == 1 && p[0].Name == "Vestido"
	}), "roupas").Return(nil).Once()
	view.On("ResetForm").Return().Once()
	view.On("RenderPreview", "").Return(nil).Once()
	view.On("ShowTransientMessage", MsgSubmitted, DefaultSuccessDelay).Return(nil).Once()

	sub := submission("Vestido")
	sub.Filter = "roupas"
	p, err := c.Submit(context.Background(), view, sub)

	require.NoError(t, err)
	assert.Equal(t, "Vestido", p.Name)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgoAAAANSUhEUg==", p.Photo)
	assert.Len(t, s.Query(""), 1)
	assert.Equal(t, StateIdle, c.State("form-a"))
	view.AssertExpectations(t)
}

func TestController_SubmitWithoutPhotoIsRejected(t *testing.T) {
	kv := store.NewMemoryStore(0)
	c, s := newTestController(t, kv)
	view := new(MockView)
	view.On("Alert", MsgPhotoRequired).Return().Twice()

	sub := submission("Vestido")
	sub.Photo = nil
	_, err := c.Submit(context.Background(), view, sub)
	assert.True(t, IsValidation(err))

	sub.Photo = &Upload{Filename: "empty.png", Size: 0, Content: bytes.NewReader(nil)}
	_, err = c.Submit(context.Background(), view, sub)
	assert.ErrorIs(t, err, ErrPhotoRequired)

	assert.Empty(t, s.Query(""))
	_, getErr := kv.Get(context.Background(), SnapshotKey)
	assert.ErrorIs(t, getErr, store.ErrKeyNotFound)
	view.AssertExpectations(t)
	view.AssertNotCalled(t, "RenderList", mock.Anything, mock.Anything)
	view.AssertNotCalled(t, "ResetForm")
	assert.Equal(t, StateIdle, c.State("form-a"))
}

func TestController_SubmitInvalidFieldsAlerts(t *testing.T) {
	c, s := newTestController(t, store.NewMemoryStore(0))
	view := new(MockView)
	view.On("Alert", "Verifique os campos: price.").Return().Once()

	sub := submission("Vestido")
	sub.Price = "caro"
	_, err := c.Submit(context.Background(), view, sub)

	assert.True(t, IsValidation(err))
	assert.Empty(t, s.Query(""))
	view.AssertExpectations(t)
}

func TestController_SubmitStorageFailureIsVisible(t *testing.T) {
	c, s := newTestController(t, store.NewMemoryStore(64))
	view := new(MockView)
	view.On("Alert", MsgStorageFailure).Return().Once()

	_, err := c.Submit(context.Background(), view, submission("Vestido"))

	assert.True(t, IsStorage(err))
	assert.Empty(t, s.Query(""))
	view.AssertExpectations(t)
}

// blockingReader holds the photo read open until released, keeping the
// first submission in flight.
type blockingReader struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	data    *bytes.Reader
}

func (r *blockingReader) Read(p []byte) (int, error) {
	r.once.Do(func() {
		close(r.started)
		<-r.release
	})
	return r.data.Read(p)
}

func TestController_OverlappingSubmissionIsRejected(t *testing.T) {
	c, s := newTestController(t, store.NewMemoryStore(0))
	slow := &blockingReader{
		started: make(chan struct{}),
		release: make(chan struct{}),
		data:    bytes.NewReader(pngHeader),
	}

	first := new(MockView)
	first.On("RenderList", mock.Anything, "").Return(nil)
	first.On("ResetForm").Return()
	first.On("RenderPreview", "").Return(nil)
	first.On("ShowTransientMessage", MsgSubmitted, DefaultSuccessDelay).Return(nil)

	done := make(chan error, 1)
	go func() {
		sub := submission("Vestido")
		sub.Photo = &Upload{Filename: "slow.png", Size: int64(len(pngHeader)), Content: slow}
		_, err := c.Submit(context.Background(), first, sub)
		done <- err
	}()

	<-slow.started
	assert.Equal(t, StateSubmitting, c.State("form-a"))

	second := new(MockView)
	second.On("Alert", MsgBusy).Return().Once()
	_, err := c.Submit(context.Background(), second, submission("Saia"))
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	close(slow.release)
	require.NoError(t, <-done)

	products := s.Query("")
	require.Len(t, products, 1)
	assert.Equal(t, "Vestido", products[0].Name)
	assert.Equal(t, StateIdle, c.State("form-a"))
	second.AssertExpectations(t)
}

func TestController_OtherFormsAreNotBlocked(t *testing.T) {
	c, s := newTestController(t, store.NewMemoryStore(0))
	slow := &blockingReader{
		started: make(chan struct{}),
		release: make(chan struct{}),
		data:    bytes.NewReader(pngHeader),
	}

	first := new(MockView)
	first.On("RenderList", mock.Anything, "").Return(nil)
	first.On("ResetForm").Return()
	first.On("RenderPreview", "").Return(nil)
	first.On("ShowTransientMessage", MsgSubmitted, DefaultSuccessDelay).Return(nil)

	done := make(chan error, 1)
	go func() {
		sub := submission("Vestido")
		sub.Photo = &Upload{Filename: "slow.png", Size: int64(len(pngHeader)), Content: slow}
		_, err := c.Submit(context.Background(), first, sub)
		done <- err
	}()
	<-slow.started

	other := new(MockView)
	other.On("RenderList", mock.Anything, "").Return(nil).Once()
	other.On("ResetForm").Return().Once()
	other.On("RenderPreview", "").Return(nil).Once()
	other.On("ShowTransientMessage", MsgSubmitted, DefaultSuccessDelay).Return(nil).Once()

	sub := submission("Saia")
	sub.FormID = "form-b"
	_, err := c.Submit(context.Background(), other, sub)

	require.NoError(t, err)
	other.AssertNotCalled(t, "Alert", mock.Anything)
	assert.Equal(t, StateSubmitting, c.State("form-a"))
	assert.Equal(t, StateIdle, c.State("form-b"))

	close(slow.release)
	require.NoError(t, <-done)
	assert.Len(t, s.Query(""), 2)
	assert.Equal(t, StateIdle, c.State("form-a"))
	other.AssertExpectations(t)
}

func TestController_DeleteAsksForConfirmation(t *testing.T) {
	c, s := newTestController(t, store.NewMemoryStore(0))
	p, _ := s.Add(context.Background(), draft("roupas", "Vestido", "10"))
	_, _ = s.Add(context.Background(), draft("acessórios", "Bolsa", "10"))

	declining := new(MockView)
	declining.On("Confirm", `Tem certeza que deseja excluir o produto "Vestido"?`).Return(false).Once()
	confirmed, err := c.Delete(context.Background(), declining, p.ID, "roupas")
	require.NoError(t, err)
	assert.False(t, confirmed)
	assert.Len(t, s.Query(""), 2)

	accepting := new(MockView)
	accepting.On("Confirm", mock.Anything).Return(true).Once()
	accepting.On("RenderList", mock.MatchedBy(func(p []domain.Product) bool { return len(p) == 0 }), "roupas").Return(nil).Once()
	confirmed, err = c.Delete(context.Background(), accepting, p.ID, "roupas")
	require.NoError(t, err)
	assert.True(t, confirmed)
	assert.Len(t, s.Query(""), 1)

	declining.AssertExpectations(t)
	accepting.AssertExpectations(t)
}

func TestController_DeleteUnknownIDJustRerenders(t *testing.T) {
	c, _ := newTestController(t, store.NewMemoryStore(0))
	view := new(MockView)
	view.On("RenderList", mock.Anything, "").Return(nil).Once()

	confirmed, err := c.Delete(context.Background(), view, "404", "")

	require.NoError(t, err)
	assert.False(t, confirmed)
	view.AssertNotCalled(t, "Confirm", mock.Anything)
	view.AssertExpectations(t)
}

func TestController_PreviewAndFilter(t *testing.T) {
	c, s := newTestController(t, store.NewMemoryStore(0))
	_, _ = s.Add(context.Background(), draft("roupas", "Vestido", "10"))
	_, _ = s.Add(context.Background(), draft("acessórios", "Bolsa", "10"))
	view := new(MockView)
	view.On("RenderPreview", "data:image/png;base64,iVBORw0KGgoAAAANSUhEUg==").Return(nil).Once()
	view.On("RenderPreview", "").Return(nil).Once()
	view.On("RenderList", mock.MatchedBy(func(p []domain.Product) bool {
		return len(p) == 1 && p[0].Name == "Bolsa"
	}), "acessórios").Return(nil).Once()

	require.NoError(t, c.Preview(context.Background(), view, pngUpload()))
	require.NoError(t, c.Preview(context.Background(), view, nil))
	require.NoError(t, c.Filter(context.Background(), view, "acessórios"))

	assert.Equal(t, []string{"roupas", "acessórios"}, c.Categories())
	view.AssertExpectations(t)
}
