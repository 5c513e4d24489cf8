// cmd/bamstats/main.go
package main

import (
	"bamstats/internal/app"
	"bamstats/internal/appshell"
)

func main() { appshell.Main(app.RunContext) }
