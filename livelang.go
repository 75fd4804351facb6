// Package livelang overlays stored translations onto server-rendered HTML.
//
// Translations are (original text → translated text) pairs scoped to a page
// slug and a language, or marked global. On every render the overlay builds
// the mapping that applies to the current page, caches it per
// (language, slug), and substitutes it into the finished HTML before the
// response leaves the server.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/livelang"
//	    "github.com/ZaguanLabs/livelang/cache"
//	    "github.com/ZaguanLabs/livelang/store"
//	)
//
//	func main() {
//	    db, err := store.Open("sqlite", "livelang.db")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := store.Migrate(db); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    overlay := livelang.NewOverlay(store.NewTranslationStore(db),
//	        livelang.WithCache(cache.NewInMemoryCache(12*time.Hour)),
//	        livelang.WithSettings(store.NewSettingsStore(db)),
//	    )
//
//	    page := livelang.Page{Slug: "home", Language: "es"}
//	    result := overlay.Process(context.Background(), page, "<h1>Welcome</h1>")
//	    fmt.Println(result.Content) // <h1>Bienvenido</h1>
//	}
package livelang
