package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/tonearm/internal/lock"
)

func TestCatalogService_AddAlbumValidation(t *testing.T) {
	tests := []struct {
		name     string
		input    AddAlbumInput
		expected string
	}{
		{name: "missing album", input: AddAlbumInput{SongCount: "1", ArtistName: "x"}, expected: MsgAllFieldsRequired},
		{name: "missing count", input: AddAlbumInput{AlbumName: "a", ArtistName: "x"}, expected: MsgAllFieldsRequired},
		{name: "missing artist", input: AddAlbumInput{AlbumName: "a", SongCount: "1"}, expected: MsgAllFieldsRequired},
		{name: "count not a number", input: AddAlbumInput{AlbumName: "a", SongCount: "twelve", ArtistName: "x"}, expected: MsgSongCountInvalid},
		{name: "negative count", input: AddAlbumInput{AlbumName: "a", SongCount: "-1", ArtistName: "x"}, expected: MsgSongCountInvalid},
		{name: "fractional count", input: AddAlbumInput{AlbumName: "a", SongCount: "1.5", ArtistName: "x"}, expected: MsgSongCountInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMockStore()
			_, err := NewCatalogService(store, lock.NewMemoryLocker(), nil, zerolog.Nop()).AddAlbum(context.Background(), tt.input)

			verr, ok := IsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, tt.expected, verr.Message)
			assert.Empty(t, store.txs)
		})
	}
}

func TestCatalogService_AddAlbum(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	svc := NewCatalogService(store, lock.NewMemoryLocker(), nil, zerolog.Nop())

	first, err := svc.AddAlbum(ctx, AddAlbumInput{AlbumName: "OK Computer", SongCount: "12", ArtistName: "Radiohead"})
	require.NoError(t, err)
	assert.True(t, first.ArtistCreated)
	assert.Equal(t, first.Artist.ID, first.Album.ArtistID)
	assert.Equal(t, 12, first.Album.NumOfSongs)

	second, err := svc.AddAlbum(ctx, AddAlbumInput{AlbumName: "Kid A", SongCount: "10", ArtistName: "Radiohead"})
	require.NoError(t, err)
	assert.False(t, second.ArtistCreated)
	assert.Equal(t, first.Artist.ID, second.Artist.ID)

	assert.Len(t, store.state.artists, 1)
	assert.Len(t, store.state.albums, 2)

	albums, err := svc.ListAlbums(ctx)
	require.NoError(t, err)
	require.Len(t, albums, 2)
	assert.Equal(t, "OK Computer", albums[0].Name)
	assert.Equal(t, "Radiohead", albums[1].ArtistName)
	assert.True(t, store.lastTx().ReadOnly)
}

func TestCatalogService_AddAlbumZeroSongs(t *testing.T) {
	out, err := NewCatalogService(NewMockStore(), nil, nil, zerolog.Nop()).
		AddAlbum(context.Background(), AddAlbumInput{AlbumName: "4'33\"", SongCount: "0", ArtistName: "Cage"})
	require.NoError(t, err)
	assert.Zero(t, out.Album.NumOfSongs)
}

func TestCatalogService_AddAlbumLocksArtistName(t *testing.T) {
	locker := new(MockLocker)
	key := lock.Keys.Artist("Radiohead")
	locker.On("AcquireWithRetry", mock.Anything, key, lock.DefaultTTL, lock.DefaultRetries, lock.DefaultRetryDelay).Return("t1", true, nil).Once()
	locker.On("Release", mock.Anything, key, "t1").Return(true, nil).Once()

	_, err := NewCatalogService(NewMockStore(), locker, nil, zerolog.Nop()).
		AddAlbum(context.Background(), AddAlbumInput{AlbumName: "Kid A", SongCount: "10", ArtistName: "Radiohead"})
	require.NoError(t, err)
	locker.AssertExpectations(t)
}
