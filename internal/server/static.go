package server

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed public
var publicFiles embed.FS

func staticHandler() http.Handler {
	sub, err := fs.Sub(publicFiles, "public")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
