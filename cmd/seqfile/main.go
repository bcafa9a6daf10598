// cmd/seqfile/main.go
package main

import (
	"seqfile/internal/app"
	"seqfile/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}
