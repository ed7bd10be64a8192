package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavesd/internal/notify"
	"github.com/llehouerou/wavesd/internal/playlist"
)

type mockNotifier struct {
	notifications []notify.Notification
	nextID        uint32
}

func (m *mockNotifier) Notify(n notify.Notification) (uint32, error) {
	m.notifications = append(m.notifications, n)
	m.nextID++
	return m.nextID, nil
}

func (m *mockNotifier) Close(_ uint32) error { return nil }

func TestNotifyPresenceSendsOnTrackChange(t *testing.T) {
	mock := &mockNotifier{}
	p := NewNotifyPresence(mock, false, 5000)

	track := &playlist.Track{
		URI:    "/music/a.mp3",
		Title:  "Test Song",
		Artist: "Test Artist",
		Album:  "Test Album",
	}
	p.Update(track, playlist.Running, 0)

	require.Len(t, mock.notifications, 1)
	n := mock.notifications[0]
	assert.Equal(t, "Test Song", n.Title)
	assert.Equal(t, "Test Artist · Test Album", n.Body)
	assert.Equal(t, int32(5000), n.Timeout)
	assert.Equal(t, notify.UrgencyLow, n.Urgency)
	assert.Empty(t, n.Icon)
}

func TestNotifyPresenceDedupsSameTrack(t *testing.T) {
	mock := &mockNotifier{}
	p := NewNotifyPresence(mock, false, 0)

	track := &playlist.Track{URI: "/music/a.mp3", Title: "A"}
	p.Update(track, playlist.Running, 0)
	p.Update(track, playlist.Running, 10*time.Second)

	assert.Len(t, mock.notifications, 1)
}

func TestNotifyPresenceReplacesPrevious(t *testing.T) {
	mock := &mockNotifier{}
	p := NewNotifyPresence(mock, false, 0)

	p.Update(&playlist.Track{URI: "/music/a.mp3", Title: "A"}, playlist.Running, 0)
	p.Update(&playlist.Track{URI: "/music/b.mp3", Title: "B"}, playlist.Running, 0)

	require.Len(t, mock.notifications, 2)
	assert.Zero(t, mock.notifications[0].ReplacesID)
	assert.Equal(t, uint32(1), mock.notifications[1].ReplacesID)
}

func TestNotifyPresenceSkipsWhenNotRunning(t *testing.T) {
	mock := &mockNotifier{}
	p := NewNotifyPresence(mock, false, 0)

	track := &playlist.Track{URI: "/music/a.mp3", Title: "A"}
	p.Update(track, playlist.Paused, 0)
	p.Update(track, playlist.Stopped, 0)
	p.Update(nil, playlist.Stopped, 0)

	assert.Empty(t, mock.notifications)
}

func TestNotifyPresenceRenotifiesAfterStop(t *testing.T) {
	mock := &mockNotifier{}
	p := NewNotifyPresence(mock, false, 0)

	track := &playlist.Track{URI: "/music/a.mp3", Title: "A"}
	p.Update(track, playlist.Running, 0)
	p.Update(nil, playlist.Stopped, 0)
	p.Update(track, playlist.Running, 0)

	assert.Len(t, mock.notifications, 2)
}

func TestBodyFallbacks(t *testing.T) {
	assert.Equal(t, "Artist", body(&playlist.Track{Artist: "Artist"}))
	assert.Equal(t, "Album", body(&playlist.Track{Album: "Album"}))
	assert.Equal(t, "", body(&playlist.Track{}))
	assert.Equal(t, "/x.mp3", title(&playlist.Track{URI: "/x.mp3"}))
}
