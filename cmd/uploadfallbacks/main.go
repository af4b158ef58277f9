package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"storyreel/store"
)

// Uploads a local directory of images to the artifact store's fallback pool.
// Renders pick from this pool when every image provider is unavailable.
func main() {
	dir := flag.String("dir", "", "Directory of png/jpg images to upload as fallbacks")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		log.Fatal("--dir is required")
	}

	_ = godotenv.Load()
	ctx := context.Background()

	st, err := store.NewFromEnv(ctx)
	if err != nil {
		log.Fatalf("failed to initialize artifact store: %v", err)
	}

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatalf("failed to read directory: %v", err)
	}

	uploaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		contentType := contentTypeFor(name)
		if contentType == "" {
			continue
		}

		if ok, err := st.Exists(ctx, "fallback/"+name); err != nil {
			log.Printf("skipping %s: %v", name, err)
			continue
		} else if ok {
			log.Printf("already registered: %s", name)
			continue
		}

		data, err := os.ReadFile(filepath.Join(*dir, name))
		if err != nil {
			log.Printf("skipping %s: %v", name, err)
			continue
		}
		url, err := st.PutFallbackImage(ctx, name, data, contentType)
		if err != nil {
			log.Printf("upload failed for %s: %v", name, err)
			continue
		}
		log.Printf("uploaded %s -> %s", name, url)
		uploaded++
	}
	log.Printf("done: %d image(s) uploaded", uploaded)
}

func contentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return ""
}
