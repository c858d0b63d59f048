// cmd/quasim/main.go
package main

import (
	"quasim/internal/app"
	"quasim/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}
