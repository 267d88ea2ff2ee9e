package main

import (
	"go.uber.org/fx"

	"github.com/makerclub/printq/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
