package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log"
	"net/http"
	"sync/atomic"
)

// Stands in for the generation backend and its image host on :3001.
// Point BACKEND_URL at http://localhost:3001/generate and IMAGE_HOST_URL at
// http://localhost:3001/images.
func main() {
	var counter atomic.Int64

	mux := http.NewServeMux()

	mux.HandleFunc("POST /generate", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Prompt string `json:"prompt"`
			Seed   uint32 `json:"seed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Prompt == "" {
			http.Error(w, `{"error":"bad payload"}`, http.StatusBadRequest)
			return
		}

		key := fmt.Sprintf("dummy-%d-%d", counter.Add(1), payload.Seed)
		log.Printf("Generated %s for prompt %q", key, payload.Prompt)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"images":[{"imageKey":%q}]}`, key)
	})

	mux.HandleFunc("GET /images/{file}", func(w http.ResponseWriter, r *http.Request) {
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		shade := uint8(counter.Load() * 40)
		for x := 0; x < 64; x++ {
			for y := 0; y < 64; y++ {
				img.Set(x, y, color.RGBA{R: shade, G: uint8(x * 4), B: uint8(y * 4), A: 255})
			}
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, nil); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		log.Printf("Serving image %s", r.PathValue("file"))
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(buf.Bytes())
	})

	log.Println("Dummy backend starting on :3001")
	if err := http.ListenAndServe(":3001", mux); err != nil {
		log.Fatal(err)
	}
}
