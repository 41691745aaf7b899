package main

import (
	"os"

	"github.com/go-oidc-login/go-oidc-login/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
