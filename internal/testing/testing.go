// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"monthify/internal/models"
	"monthify/internal/services"
)

// MockService is a configurable test double for [services.Service].
//
// Pages holds saved-track pages keyed by offset; call counters record
// every remote interaction so tests can assert on mutation counts.
type MockService struct {
	UserID    string
	UserErr   error
	Pages     map[int]*services.SavedTrackPage
	PagesErr  error
	Lists     []models.Playlist
	ListsErr  error
	Items     map[string][]models.Track
	ItemsErr  error
	Created   *models.Playlist
	CreateErr error
	AddErr    error

	SavedCalls  []int // offsets requested
	ListCalls   int
	ItemCalls   []string // playlist ids loaded
	CreateCalls []string // names created
	AddCalls    [][]string
}

func (m *MockService) Name() string { return "mock" }

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *MockService) CurrentUserID(ctx context.Context) (string, error) {
	if m.UserErr != nil {
		return "", m.UserErr
	}
	if m.UserID == "" {
		return "tester", nil
	}
	return m.UserID, nil
}

func (m *MockService) SavedTracks(ctx context.Context, limit, offset int) (*services.SavedTrackPage, error) {
	m.SavedCalls = append(m.SavedCalls, offset)
	if m.PagesErr != nil {
		return nil, m.PagesErr
	}
	if page, ok := m.Pages[offset]; ok {
		return page, nil
	}
	return &services.SavedTrackPage{}, nil
}

func (m *MockService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	m.ListCalls++
	if m.ListsErr != nil {
		return nil, m.ListsErr
	}
	return m.Lists, nil
}

func (m *MockService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	m.ItemCalls = append(m.ItemCalls, playlistID)
	if m.ItemsErr != nil {
		return nil, m.ItemsErr
	}
	return m.Items[playlistID], nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, userID, name string) (*models.Playlist, error) {
	m.CreateCalls = append(m.CreateCalls, name)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if m.Created != nil {
		return m.Created, nil
	}
	return &models.Playlist{ID: "created-" + name, Name: name}, nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.AddCalls = append(m.AddCalls, append([]string{playlistID}, trackIDs...))
	return m.AddErr
}

// AddedTo returns how many add calls targeted the given playlist.
func (m *MockService) AddedTo(playlistID string) int {
	count := 0
	for _, call := range m.AddCalls {
		if len(call) > 0 && call[0] == playlistID {
			count++
		}
	}
	return count
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
