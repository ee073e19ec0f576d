package catalog

import (
	"time"

	"github.com/osa030/trackdeck/internal/domain/playlist"
	"github.com/osa030/trackdeck/internal/domain/track"
)

// Builtin returns the demo catalog used when no catalog file is configured.
func Builtin() *playlist.Catalog {
	return playlist.NewCatalog("Willi ArVi", []track.Track{
		{
			ID:       "1",
			Title:    "Mi Canción Nueva",
			Artist:   "Willi ArVi",
			Album:    "Single 2024",
			Duration: 3*time.Minute + 45*time.Second,
			URL:      "music/mi-cancion-nueva.mp3",
			CoverURL: "https://images.unsplash.com/photo-1511379938547-c1f69419868d?w=400&h=400&fit=crop",
		},
		{
			ID:       "2",
			Title:    "Sueños Urbanos",
			Artist:   "Willi ArVi",
			Album:    "EP 2023",
			Duration: 4*time.Minute + 20*time.Second,
			URL:      "music/suenos-urbanos.mp3",
			CoverURL: "https://images.unsplash.com/photo-1493225457124-a3eb161ffa5f?w=400&h=400&fit=crop",
		},
		{
			ID:       "3",
			Title:    "Bajo las Estrellas",
			Artist:   "Willi ArVi",
			Album:    "EP 2023",
			Duration: 3*time.Minute + 55*time.Second,
			URL:      "music/bajo-las-estrellas.mp3",
			CoverURL: "https://images.unsplash.com/photo-1429962714451-bb934ecdc4ec?w=400&h=400&fit=crop",
		},
		{
			ID:       "4",
			Title:    "Ritmo en la Ciudad",
			Artist:   "Willi ArVi",
			Album:    "Single 2022",
			Duration: 4*time.Minute + 10*time.Second,
			URL:      "music/ritmo-en-la-ciudad.mp3",
			CoverURL: "https://images.unsplash.com/photo-1506157786151-b8491531f063?w=400&h=400&fit=crop",
		},
	})
}
