// Package client embeds the browser script that connects live pages to the
// server.
package client

import (
	"embed"
	"io/fs"
	"net/http"
)

// ScriptName is the file name of the live client script.
const ScriptName = "dashboard.js"

//go:embed src/*.js
var assets embed.FS

// Assets returns the embedded filesystem containing JavaScript files.
func Assets() fs.FS {
	fsys, err := fs.Sub(assets, "src")
	if err != nil {
		panic(err)
	}
	return fsys
}

// Handler serves the embedded assets. Mount it under a prefix with
// http.StripPrefix.
func Handler() http.Handler {
	return http.FileServer(http.FS(Assets()))
}

// GetFile returns the contents of an embedded file.
func GetFile(name string) ([]byte, error) {
	return assets.ReadFile("src/" + name)
}
